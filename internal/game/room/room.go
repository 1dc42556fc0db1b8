package room

import (
	"slices"
	"time"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/server/storage"
)

// Player 房间中的玩家
type Player struct {
	ID     string
	Name   string
	IsHost bool
	Score  int
}

// Room 游戏房间
//
// 房间不加锁：所有读写都发生在调度协程内。
type Room struct {
	Code      string      // 房间号
	GameType  game.Type   // 当前选择的游戏
	State     State       // 生命周期状态
	Players   []*Player   // 玩家列表（加入顺序）
	Game      game.Engine // 对局引擎，大厅中为 nil
	Starting  bool        // 正在准备开局（等待题库），期间拒绝加入
	CreatedAt time.Time   // 创建时间
}

// Player 按 ID 查找玩家
func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Host 返回房主
func (r *Room) Host() *Player {
	for _, p := range r.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// IsHost 判断玩家是否为房主
func (r *Room) IsHost(id string) bool {
	p := r.Player(id)
	return p != nil && p.IsHost
}

// Roster 引擎视角的玩家列表
func (r *Room) Roster() []game.Player {
	players := make([]game.Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = game.Player{ID: p.ID, Name: p.Name}
	}
	return players
}

// IDs 返回所有玩家 ID
func (r *Room) IDs() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// Apply 把一次对局操作交给引擎，并同步分数和结束状态
func (r *Room) Apply(playerID string, action game.Action) (game.Outcome, error) {
	if r.State != StatePlaying || r.Game == nil {
		return game.Outcome{}, apperrors.ErrGameNotPlaying
	}
	if r.Player(playerID) == nil {
		return game.Outcome{}, apperrors.ErrNotInRoom
	}

	out, err := r.Game.Apply(playerID, action)
	if err != nil {
		return game.Outcome{}, err
	}
	r.settle(out)
	return out, nil
}

// settle 同步引擎分数，对局结束时切换到 finished
func (r *Room) settle(out game.Outcome) {
	if scorer, ok := r.Game.(game.Scorer); ok {
		scores := scorer.Scores()
		for _, p := range r.Players {
			p.Score = scores[p.ID]
		}
	}
	if out.Finished {
		r.State = StateFinished
	}
}

// removePlayer 从名单中移除玩家，对局中同时通知引擎
func (r *Room) removePlayer(id string) (game.Outcome, bool) {
	idx := slices.IndexFunc(r.Players, func(p *Player) bool { return p.ID == id })
	if idx < 0 {
		return game.Outcome{}, false
	}
	wasHost := r.Players[idx].IsHost
	r.Players = slices.Delete(r.Players, idx, idx+1)

	if wasHost && len(r.Players) > 0 {
		r.Players[0].IsHost = true
	}

	if r.Game == nil {
		return game.Outcome{}, true
	}
	out := r.Game.RemovePlayer(id)
	if r.State != StatePlaying {
		// 已结束的对局只需要裁剪名单
		return game.Outcome{}, true
	}
	r.settle(out)
	return out, true
}

// resetToLobby 丢弃对局并清零分数
func (r *Room) resetToLobby() {
	r.State = StateLobby
	r.Game = nil
	r.Starting = false
	for _, p := range r.Players {
		p.Score = 0
	}
}

// Snapshot 生成发给某个玩家的房间快照，隐藏其不应看到的信息
func (r *Room) Snapshot(viewerID string) protocol.RoomSnapshot {
	snap := protocol.RoomSnapshot{
		Code:     r.Code,
		GameType: string(r.GameType),
		State:    string(r.State),
		Players:  make([]protocol.PlayerInfo, len(r.Players)),
	}
	for i, p := range r.Players {
		snap.Players[i] = protocol.PlayerInfo{ID: p.ID, Name: p.Name, IsHost: p.IsHost, Score: p.Score}
	}
	if r.Game != nil {
		snap.GameState = r.Game.View(viewerID)
	}
	return snap
}

// ToRoomData 将 Room 转换为可序列化的 RoomData
func (r *Room) ToRoomData() *storage.RoomData {
	data := &storage.RoomData{
		Code:      r.Code,
		Game:      string(r.GameType),
		State:     string(r.State),
		Players:   make([]storage.PlayerData, 0, len(r.Players)),
		CreatedAt: r.CreatedAt.Unix(),
		UpdatedAt: time.Now().Unix(),
	}
	for _, p := range r.Players {
		data.Players = append(data.Players, storage.PlayerData{
			ID:     p.ID,
			Name:   p.Name,
			IsHost: p.IsHost,
			Score:  p.Score,
		})
	}
	return data
}
