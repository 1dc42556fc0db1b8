package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
	"github.com/palemoky/partyhub/internal/game/room"
	"github.com/palemoky/partyhub/internal/logger"
	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/protocol/codec"
	"github.com/palemoky/partyhub/internal/trivia"
	"github.com/palemoky/partyhub/internal/types"
)

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		h.ackError(client, msg, apperrors.ErrServerMaintenance)
		return
	}

	payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		h.ackInvalid(client, msg)
		return
	}

	rm, err := h.rooms.Create(client.GetID(), payload.PlayerName(), game.Type(payload.GameType))
	if err != nil {
		h.ackError(client, msg, err)
		return
	}

	client.SendMessage(codec.NewAck(msg.ID, protocol.AckPayload{Success: true, RoomCode: rm.Code}))
	h.broadcastRoom(rm)
	h.persist(rm)
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsMaintenanceMode() {
		h.ackError(client, msg, apperrors.ErrServerMaintenance)
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		h.ackInvalid(client, msg)
		return
	}

	rm, err := h.rooms.Join(client.GetID(), payload.PlayerName(), payload.RoomCode)
	if err != nil {
		h.ackError(client, msg, err)
		return
	}

	client.SendMessage(codec.NewAck(msg.ID, protocol.AckPayload{
		Success:  true,
		RoomCode: rm.Code,
		GameType: string(rm.GameType),
	}))
	h.broadcastRoom(rm)
	h.persist(rm)
}

// handleChangeGame 房主在大厅切换游戏
func (h *Handler) handleChangeGame(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ChangeGamePayload](msg)
	if err != nil {
		drop(client, msg, err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(payload.RoomCode))
	rm, err := h.rooms.ChangeGame(code, client.GetID(), game.Type(payload.GameType))
	if err != nil {
		drop(client, msg, err)
		return
	}

	h.broadcastRoom(rm)
	h.persist(rm)
}

// handleStartGame 房主开始游戏。人数不足时只通知发起者
func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.Message) {
	rm, info, err := h.rooms.PrepareStart(codec.ParseRoomCode(msg), client.GetID())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotEnoughPlayers) {
			sendStartError(client, err)
			return
		}
		drop(client, msg, err)
		return
	}

	if info.NeedsQuestions {
		// 题库在后台获取，期间房间拒绝加入和重复开局
		rm.Starting = true
		h.fetchQuestions(rm)
		return
	}
	h.launch(client, rm, nil)
}

// fetchQuestions 在独立协程中出题，完成后回到调度协程开局
func (h *Handler) fetchQuestions(rm *room.Room) {
	source := h.questions
	timeout := h.fetchTimeout
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(r, "question fetch")
				h.post(func() { h.questionsReady(rm, nil) })
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var questions []trivia.Question
		if source != nil {
			questions = source.Questions(ctx)
		}
		h.post(func() { h.questionsReady(rm, questions) })
	}()
}

// questionsReady 题目到达。房间可能已解散、房间号已被新房间复用，或房主已换人
func (h *Handler) questionsReady(rm *room.Room, questions []trivia.Question) {
	if current, ok := h.rooms.Get(rm.Code); !ok || current != rm || !rm.Starting {
		log.Debug().Str("room", rm.Code).Msg("questions arrived for a room that is no longer starting")
		return
	}

	host := rm.Host()
	h.launch(h.clients[host.ID], rm, questions)
}

// launch 创建对局并广播，失败时通知发起者
func (h *Handler) launch(requester types.ClientInterface, rm *room.Room, questions []trivia.Question) {
	env := game.Env{
		Rand:      h.rnd,
		Now:       h.now,
		Questions: questions,
		Laps:      h.raceLaps,
	}
	if err := h.rooms.Launch(rm, env); err != nil {
		log.Info().Err(err).Str("room", rm.Code).Msg("game start failed")
		if requester != nil {
			sendStartError(requester, err)
		}
		return
	}

	h.broadcastRoom(rm)
	h.sendSecrets(rm)
	h.persist(rm)
}

// handleReturnToLobby 房主返回大厅
func (h *Handler) handleReturnToLobby(client types.ClientInterface, msg *protocol.Message) {
	rm, err := h.rooms.ReturnToLobby(codec.ParseRoomCode(msg), client.GetID())
	if err != nil {
		drop(client, msg, err)
		return
	}

	h.broadcastRoom(rm)
	h.persist(rm)
}

// leave 玩家离开（主动或断线）
func (h *Handler) leave(playerID string) {
	for _, d := range h.rooms.Leave(playerID) {
		if d.Deleted {
			h.mirror.DeleteRoom(d.Room.Code)
			continue
		}
		// 名单变化总是需要广播快照
		out := d.Outcome
		out.Quiet = false
		h.afterMutation(d.Room, out)
	}
}

// ackInvalid 回执：消息格式错误
func (h *Handler) ackInvalid(client types.ClientInterface, msg *protocol.Message) {
	client.SendMessage(codec.NewAck(msg.ID, protocol.AckPayload{
		Code:  protocol.ErrCodeInvalidMsg,
		Error: protocol.ErrorMessages[protocol.ErrCodeInvalidMsg],
	}))
}

// ackError 回执：业务错误
func (h *Handler) ackError(client types.ClientInterface, msg *protocol.Message, err error) {
	ack := protocol.AckPayload{Code: protocol.ErrCodeUnknown, Error: err.Error()}
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		ack.Code = gameErr.Code
	}
	client.SendMessage(codec.NewAck(msg.ID, ack))
}

func sendStartError(client types.ClientInterface, err error) {
	payload := protocol.StartErrorPayload{Code: protocol.ErrCodeUnknown, Error: err.Error()}
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		payload.Code = gameErr.Code
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgStartError, payload))
}
