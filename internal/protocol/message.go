package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type MessageType `json:"type"`
	// ID 请求 ID，需要回执的请求（create_room/join_room）由客户端填写，ack 原样带回
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 房间操作
	MsgCreateRoom    MessageType = "create_room"     // 创建房间
	MsgJoinRoom      MessageType = "join_room"       // 加入房间
	MsgChangeGame    MessageType = "change_game"     // 切换游戏（房主，大厅）
	MsgStartGame     MessageType = "start_game"      // 开始游戏（房主）
	MsgReturnToLobby MessageType = "return_to_lobby" // 返回大厅（房主）
	MsgLeaveRoom     MessageType = "leave_room"      // 离开房间
	MsgRequestRole   MessageType = "request_role"    // 重新获取秘密身份

	// 问答
	MsgSubmitAnswer MessageType = "submit_answer"

	// 谁是白板
	MsgDoneSpeaking MessageType = "done_speaking"
	MsgChangePhase  MessageType = "change_phase"
	MsgSubmitVote   MessageType = "submit_vote"

	// 内鬼
	MsgImposterKill MessageType = "imposter_kill"
	MsgImposterVote MessageType = "imposter_vote"

	// 卡丁车
	MsgKartPosition MessageType = "kart_position"
	MsgKartFinished MessageType = "kart_finished"

	// 飞行棋
	MsgLudoRoll MessageType = "ludo_roll"
	MsgLudoMove MessageType = "ludo_move"

	// 蛇梯棋
	MsgSnlRoll MessageType = "snl_roll"

	// UNO
	MsgUnoPlayCard MessageType = "uno_play_card"
	MsgUnoDrawCard MessageType = "uno_draw_card"
	MsgUnoCall     MessageType = "uno_call"
)

// 服务端 → 客户端 消息类型
const (
	MsgAck           MessageType = "ack"            // 请求回执
	MsgRoomUpdate    MessageType = "room_update"    // 房间完整快照
	MsgSecretRole    MessageType = "secret_role"    // 私密身份
	MsgStartError    MessageType = "start_error"    // 开始游戏失败（仅发起者）
	MsgRaceFinished  MessageType = "race_finished"  // 比赛最终名次
	MsgKartPositions MessageType = "kart_positions" // 赛车位置（轻量广播）

	// 系统通知
	MsgMaintenancePush MessageType = "maintenance_push"

	// 错误
	MsgError MessageType = "error"
)
