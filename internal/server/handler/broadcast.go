package handler

import (
	"github.com/rs/zerolog/log"

	"github.com/palemoky/partyhub/internal/game"
	"github.com/palemoky/partyhub/internal/game/room"
	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/protocol/codec"
	"github.com/palemoky/partyhub/internal/server/storage"
)

// afterMutation 一次被接受的变更之后：广播快照和通知，记录结果，同步 Redis
func (h *Handler) afterMutation(rm *room.Room, out game.Outcome) {
	if !out.Quiet {
		h.broadcastRoom(rm)
	}
	for _, n := range out.Notices {
		h.broadcast(rm, codec.MustNewMessage(protocol.MessageType(n.Type), n.Payload))
	}
	if out.Finished {
		h.recordResults(rm, out.Winners)
	}
	if !out.Quiet {
		h.persist(rm)
	}
}

// broadcastRoom 向房间内每位玩家发送按其视角裁剪的快照
func (h *Handler) broadcastRoom(rm *room.Room) {
	for _, p := range rm.Players {
		if c, ok := h.clients[p.ID]; ok {
			c.SendMessage(codec.MustNewMessage(protocol.MsgRoomUpdate, rm.Snapshot(p.ID)))
		}
	}
}

// broadcast 向房间内所有玩家发送同一条消息
func (h *Handler) broadcast(rm *room.Room, msg *protocol.Message) {
	for _, p := range rm.Players {
		if c, ok := h.clients[p.ID]; ok {
			c.SendMessage(msg)
		}
	}
}

// sendSecrets 私发身份（仅限有秘密身份的游戏）
func (h *Handler) sendSecrets(rm *room.Room) {
	for _, p := range rm.Players {
		h.sendSecret(rm, p.ID)
	}
}

func (h *Handler) sendSecret(rm *room.Room, playerID string) {
	teller, ok := rm.Game.(game.RoleTeller)
	if !ok {
		return
	}
	secret, ok := teller.Secret(playerID)
	if !ok {
		return
	}
	if c, ok := h.clients[playerID]; ok {
		c.SendMessage(codec.MustNewMessage(protocol.MsgSecretRole, protocol.SecretRolePayload{
			Role: secret.Role,
			Word: secret.Word,
		}))
	}
}

// recordResults 对局结束：写入排行榜
func (h *Handler) recordResults(rm *room.Room, winners []string) {
	log.Info().
		Str("room", rm.Code).
		Str("game", string(rm.GameType)).
		Strs("winners", winners).
		Msg("game finished")

	isWinner := make(map[string]bool, len(winners))
	for _, id := range winners {
		isWinner[id] = true
	}
	results := make([]storage.Result, 0, len(rm.Players))
	for _, p := range rm.Players {
		results = append(results, storage.Result{Name: p.Name, Winner: isWinner[p.ID]})
	}
	h.mirror.RecordResults(string(rm.GameType), results)
}

// persist 异步同步房间快照到 Redis
func (h *Handler) persist(rm *room.Room) {
	h.mirror.SaveRoom(rm.ToRoomData())
}
