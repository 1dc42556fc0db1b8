package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001
	ErrCodeRateLimit  = 1002 // 速率限制

	// 房间相关（用户可见，通过 ack 或 start_error 返回）
	ErrCodeRoomNotFound     = 2001
	ErrCodeRoomFull         = 2002
	ErrCodeNotInRoom        = 2003
	ErrCodeGameStarted      = 2004 // 游戏已开始
	ErrCodeNameTaken        = 2005
	ErrCodeInvalidName      = 2006
	ErrCodeUnknownGame      = 2007
	ErrCodeAlreadyInRoom    = 2008
	ErrCodeNotEnoughPlayers = 2009
	ErrCodeNotHost          = 2010

	// 游戏内协议违规（静默丢弃）
	ErrCodeGameNotPlaying = 3001
	ErrCodeNotYourTurn    = 3002
	ErrCodeWrongPhase     = 3003
	ErrCodeInvalidAction  = 3004

	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "Unknown error",
	ErrCodeInvalidMsg:        "Invalid message format",
	ErrCodeRateLimit:         "Too many requests",
	ErrCodeRoomNotFound:      "Room not found",
	ErrCodeRoomFull:          "Room is full",
	ErrCodeNotInRoom:         "You are not in a room",
	ErrCodeGameStarted:       "Game already started",
	ErrCodeNameTaken:         "Username already taken",
	ErrCodeInvalidName:       "Username is required",
	ErrCodeUnknownGame:       "Unknown game type",
	ErrCodeAlreadyInRoom:     "You are already in a room",
	ErrCodeNotEnoughPlayers:  "Not enough players to start",
	ErrCodeNotHost:           "Only the host can do that",
	ErrCodeGameNotPlaying:    "No game in progress",
	ErrCodeNotYourTurn:       "It is not your turn",
	ErrCodeWrongPhase:        "Action not allowed in this phase",
	ErrCodeInvalidAction:     "Invalid action",
	ErrCodeServerMaintenance: "Server is under maintenance",
}
