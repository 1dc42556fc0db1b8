package apperrors

import (
	"fmt"

	"github.com/palemoky/partyhub/internal/protocol"
)

// GameError 游戏错误（房间和各游戏引擎共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is 按错误码比较，便于带动态文本的错误与预定义错误匹配
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

// 预定义错误：用户可见，通过 ack / start_error 返回
var (
	ErrRoomNotFound      = newError(protocol.ErrCodeRoomNotFound)
	ErrRoomFull          = newError(protocol.ErrCodeRoomFull)
	ErrGameStarted       = newError(protocol.ErrCodeGameStarted)
	ErrNameTaken         = newError(protocol.ErrCodeNameTaken)
	ErrInvalidName       = newError(protocol.ErrCodeInvalidName)
	ErrUnknownGame       = newError(protocol.ErrCodeUnknownGame)
	ErrAlreadyInRoom     = newError(protocol.ErrCodeAlreadyInRoom)
	ErrNotEnoughPlayers  = newError(protocol.ErrCodeNotEnoughPlayers)
	ErrServerMaintenance = newError(protocol.ErrCodeServerMaintenance)
)

// 预定义错误：协议违规，调度器静默丢弃
var (
	ErrNotInRoom      = newError(protocol.ErrCodeNotInRoom)
	ErrNotHost        = newError(protocol.ErrCodeNotHost)
	ErrGameNotPlaying = newError(protocol.ErrCodeGameNotPlaying)
	ErrNotYourTurn    = newError(protocol.ErrCodeNotYourTurn)
	ErrWrongPhase     = newError(protocol.ErrCodeWrongPhase)
	ErrInvalidAction  = newError(protocol.ErrCodeInvalidAction)
)

func newError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// RoomFull 带人数上限的房间已满错误
func RoomFull(limit int) *GameError {
	return &GameError{Code: protocol.ErrCodeRoomFull, Message: fmt.Sprintf("Room is full (max %d)", limit)}
}

// NotEnoughPlayers 带最少人数的开局失败错误
func NotEnoughPlayers(min int, game string) *GameError {
	return &GameError{
		Code:    protocol.ErrCodeNotEnoughPlayers,
		Message: fmt.Sprintf("Need at least %d players to start %s.", min, game),
	}
}

// Invalid 带说明的非法操作，仅用于日志
func Invalid(format string, args ...any) *GameError {
	return &GameError{Code: protocol.ErrCodeInvalidAction, Message: fmt.Sprintf(format, args...)}
}
