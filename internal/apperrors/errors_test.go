package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/partyhub/internal/protocol"
)

func TestGameError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, RoomFull(20), ErrRoomFull)
	assert.ErrorIs(t, NotEnoughPlayers(3, "mrwhite"), ErrNotEnoughPlayers)
	assert.ErrorIs(t, Invalid("token %d", 5), ErrInvalidAction)
	assert.NotErrorIs(t, ErrRoomFull, ErrRoomNotFound)

	wrapped := fmt.Errorf("join: %w", ErrNameTaken)
	assert.ErrorIs(t, wrapped, ErrNameTaken)

	var gameErr *GameError
	assert.True(t, errors.As(wrapped, &gameErr))
	assert.Equal(t, protocol.ErrCodeNameTaken, gameErr.Code)
}

func TestGameError_Messages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Room not found", ErrRoomNotFound.Error())
	assert.Equal(t, "Room is full (max 20)", RoomFull(20).Error())
	assert.Equal(t, "Need at least 3 players to start mrwhite.", NotEnoughPlayers(3, "mrwhite").Error())
}
