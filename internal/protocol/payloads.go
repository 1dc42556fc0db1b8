package protocol

// --- 客户端 → 服务端 ---

// CreateRoomPayload 创建房间
type CreateRoomPayload struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	GameType string `json:"gameType"`
}

// PlayerName 兼容 username/name 两种字段
func (p *CreateRoomPayload) PlayerName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Name
}

// JoinRoomPayload 加入房间
type JoinRoomPayload struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	RoomCode string `json:"roomCode"`
}

// PlayerName 兼容 username/name 两种字段
func (p *JoinRoomPayload) PlayerName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Name
}

// RoomCodePayload 仅携带房间号的请求
type RoomCodePayload struct {
	RoomCode string `json:"roomCode"`
}

// ChangeGamePayload 切换游戏
type ChangeGamePayload struct {
	RoomCode string `json:"roomCode"`
	GameType string `json:"gameType"`
}

// SubmitAnswerPayload 提交答案
type SubmitAnswerPayload struct {
	RoomCode    string `json:"roomCode"`
	AnswerIndex int    `json:"answerIndex"`
}

// ChangePhasePayload 切换阶段
type ChangePhasePayload struct {
	RoomCode string `json:"roomCode"`
	NewPhase string `json:"newPhase"`
}

// VotePayload 投票
type VotePayload struct {
	RoomCode string `json:"roomCode"`
	VotedID  string `json:"votedId"`
}

// KillPayload 夜间行动
type KillPayload struct {
	RoomCode string `json:"roomCode"`
	TargetID string `json:"targetId"`
}

// KartPositionPayload 赛车位置上报
type KartPositionPayload struct {
	RoomCode string  `json:"roomCode"`
	Progress float64 `json:"progress"`
	Angle    float64 `json:"angle"`
	Laps     int     `json:"laps"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// LudoMovePayload 移动棋子
type LudoMovePayload struct {
	RoomCode string `json:"roomCode"`
	TokenIdx int    `json:"tokenIdx"`
}

// PlayCardPayload 出牌
type PlayCardPayload struct {
	RoomCode  string `json:"roomCode"`
	CardIndex int    `json:"cardIndex"`
	NewColor  string `json:"newColor,omitempty"`
}

// --- 服务端 → 客户端 ---

// AckPayload 请求回执
type AckPayload struct {
	Success  bool   `json:"success"`
	RoomCode string `json:"roomCode,omitempty"`
	GameType string `json:"game,omitempty"`
	Code     int    `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Score  int    `json:"score"`
}

// RoomSnapshot 房间完整快照，按观察者裁剪私密信息
type RoomSnapshot struct {
	Code      string       `json:"code"`
	GameType  string       `json:"game"`
	State     string       `json:"state"`
	Players   []PlayerInfo `json:"players"`
	GameState any          `json:"gameState"`
}

// SecretRolePayload 私密身份
type SecretRolePayload struct {
	Role string `json:"role"`
	Word string `json:"word,omitempty"`
}

// StartErrorPayload 开始游戏失败
type StartErrorPayload struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// MaintenancePayload 维护通知
type MaintenancePayload struct {
	Maintenance bool   `json:"maintenance"`
	Message     string `json:"message"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
