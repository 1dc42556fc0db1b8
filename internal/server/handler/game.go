package handler

import (
	"slices"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/protocol/codec"
	"github.com/palemoky/partyhub/internal/types"
)

// actionSpec 描述一种对局消息：适用的游戏、是否仅限房主、如何解码
type actionSpec struct {
	games    []game.Type
	hostOnly bool
	decode   func(msg *protocol.Message) (game.Action, error)
}

// constant 无 payload 的操作
func constant(action game.Action) func(*protocol.Message) (game.Action, error) {
	return func(*protocol.Message) (game.Action, error) { return action, nil }
}

var actionSpecs = map[protocol.MessageType]actionSpec{
	protocol.MsgSubmitAnswer: {
		games: []game.Type{game.TypeQuiz},
		decode: func(msg *protocol.Message) (game.Action, error) {
			p, err := codec.ParsePayload[protocol.SubmitAnswerPayload](msg)
			if err != nil {
				return nil, err
			}
			return game.SubmitAnswer{Index: p.AnswerIndex}, nil
		},
	},
	protocol.MsgDoneSpeaking: {
		games:  []game.Type{game.TypeHiddenWord},
		decode: constant(game.DoneSpeaking{}),
	},
	protocol.MsgChangePhase: {
		games:    []game.Type{game.TypeHiddenWord, game.TypeHiddenRole},
		hostOnly: true,
		decode: func(msg *protocol.Message) (game.Action, error) {
			p, err := codec.ParsePayload[protocol.ChangePhasePayload](msg)
			if err != nil {
				return nil, err
			}
			return game.ChangePhase{Phase: p.NewPhase}, nil
		},
	},
	protocol.MsgSubmitVote: {
		games:  []game.Type{game.TypeHiddenWord},
		decode: decodeVote,
	},
	protocol.MsgImposterKill: {
		games: []game.Type{game.TypeHiddenRole},
		decode: func(msg *protocol.Message) (game.Action, error) {
			p, err := codec.ParsePayload[protocol.KillPayload](msg)
			if err != nil {
				return nil, err
			}
			return game.Kill{TargetID: p.TargetID}, nil
		},
	},
	protocol.MsgImposterVote: {
		games:  []game.Type{game.TypeHiddenRole},
		decode: decodeVote,
	},
	protocol.MsgKartPosition: {
		games: []game.Type{game.TypeRace},
		decode: func(msg *protocol.Message) (game.Action, error) {
			p, err := codec.ParsePayload[protocol.KartPositionPayload](msg)
			if err != nil {
				return nil, err
			}
			return game.UpdatePosition{Progress: p.Progress, Angle: p.Angle, Laps: p.Laps, X: p.X, Y: p.Y}, nil
		},
	},
	protocol.MsgKartFinished: {
		games:  []game.Type{game.TypeRace},
		decode: constant(game.CrossLine{}),
	},
	protocol.MsgLudoRoll: {
		games:  []game.Type{game.TypeTokenRace},
		decode: constant(game.Roll{}),
	},
	protocol.MsgLudoMove: {
		games: []game.Type{game.TypeTokenRace},
		decode: func(msg *protocol.Message) (game.Action, error) {
			p, err := codec.ParsePayload[protocol.LudoMovePayload](msg)
			if err != nil {
				return nil, err
			}
			return game.Move{Token: p.TokenIdx}, nil
		},
	},
	protocol.MsgSnlRoll: {
		games:  []game.Type{game.TypeSnakeLadder},
		decode: constant(game.Roll{}),
	},
	protocol.MsgUnoPlayCard: {
		games: []game.Type{game.TypeCardGame},
		decode: func(msg *protocol.Message) (game.Action, error) {
			p, err := codec.ParsePayload[protocol.PlayCardPayload](msg)
			if err != nil {
				return nil, err
			}
			return game.PlayCard{Index: p.CardIndex, Color: p.NewColor}, nil
		},
	},
	protocol.MsgUnoDrawCard: {
		games:  []game.Type{game.TypeCardGame},
		decode: constant(game.DrawCard{}),
	},
	protocol.MsgUnoCall: {
		games:  []game.Type{game.TypeCardGame},
		decode: constant(game.CallUno{}),
	},
}

func decodeVote(msg *protocol.Message) (game.Action, error) {
	p, err := codec.ParsePayload[protocol.VotePayload](msg)
	if err != nil {
		return nil, err
	}
	return game.Vote{TargetID: p.VotedID}, nil
}

// handleAction 处理对局内操作。任何校验失败都静默丢弃，状态不变
func (h *Handler) handleAction(client types.ClientInterface, msg *protocol.Message, rule actionSpec) {
	playerID := client.GetID()
	rm, ok := h.rooms.RoomOf(playerID)
	if !ok {
		drop(client, msg, apperrors.ErrNotInRoom)
		return
	}
	// 携带的房间号必须是玩家所在的房间
	if code := codec.ParseRoomCode(msg); code != "" && code != rm.Code {
		drop(client, msg, apperrors.ErrNotInRoom)
		return
	}
	if !slices.Contains(rule.games, rm.GameType) {
		drop(client, msg, apperrors.ErrInvalidAction)
		return
	}
	if rule.hostOnly && !rm.IsHost(playerID) {
		drop(client, msg, apperrors.ErrNotHost)
		return
	}

	action, err := rule.decode(msg)
	if err != nil {
		drop(client, msg, err)
		return
	}

	out, err := rm.Apply(playerID, action)
	if err != nil {
		drop(client, msg, err)
		return
	}
	h.afterMutation(rm, out)
}

// handleRequestRole 重新私发身份（断线重连或刷新页面后）
func (h *Handler) handleRequestRole(client types.ClientInterface, msg *protocol.Message) {
	rm, ok := h.rooms.RoomOf(client.GetID())
	if !ok || rm.Game == nil {
		drop(client, msg, apperrors.ErrGameNotPlaying)
		return
	}
	h.sendSecret(rm, client.GetID())
}
