package room

import (
	"math/rand/v2"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

const (
	DefaultMaxPlayers = 20 // 房间人数上限
	maxNameLength     = 20 // 玩家名最大长度（字符）
)

// Registry 房间注册表，持有所有存活房间
//
// Registry 不是并发安全的，只能由调度协程访问。
type Registry struct {
	games      *game.Registry
	rnd        *rand.Rand
	maxPlayers int
	now        func() time.Time

	rooms   map[string]*Room
	members map[string]string // playerID -> roomCode
}

// NewRegistry 创建房间注册表
func NewRegistry(games *game.Registry, maxPlayers int, rnd *rand.Rand) *Registry {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return &Registry{
		games:      games,
		rnd:        rnd,
		maxPlayers: maxPlayers,
		now:        time.Now,
		rooms:      make(map[string]*Room),
		members:    make(map[string]string),
	}
}

// MaxPlayers 房间人数上限
func (r *Registry) MaxPlayers() int {
	return r.maxPlayers
}

// NormalizeName 去掉首尾空白并校验长度
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", apperrors.ErrInvalidName
	}
	return name, nil
}

// Create 创建房间，创建者成为房主
func (r *Registry) Create(playerID, name string, gameType game.Type) (*Room, error) {
	if _, in := r.members[playerID]; in {
		return nil, apperrors.ErrAlreadyInRoom
	}
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if gameType == "" {
		gameType = game.TypeQuiz
	}
	if _, ok := r.games.Lookup(gameType); !ok {
		return nil, apperrors.ErrUnknownGame
	}

	code := r.generateRoomCode()
	room := &Room{
		Code:      code,
		GameType:  gameType,
		State:     StateLobby,
		Players:   []*Player{{ID: playerID, Name: name, IsHost: true}},
		CreatedAt: r.now(),
	}
	r.rooms[code] = room
	r.members[playerID] = code

	log.Info().Str("room", code).Str("player", name).Str("game", string(gameType)).Msg("room created")
	return room, nil
}

// Join 加入房间。房间号不区分大小写
func (r *Registry) Join(playerID, name, code string) (*Room, error) {
	if _, in := r.members[playerID]; in {
		return nil, apperrors.ErrAlreadyInRoom
	}
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	room, ok := r.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	if room.State != StateLobby || room.Starting {
		return nil, apperrors.ErrGameStarted
	}
	if len(room.Players) >= r.maxPlayers {
		return nil, apperrors.RoomFull(r.maxPlayers)
	}
	if slices.ContainsFunc(room.Players, func(p *Player) bool { return p.Name == name }) {
		return nil, apperrors.ErrNameTaken
	}

	room.Players = append(room.Players, &Player{ID: playerID, Name: name})
	r.members[playerID] = room.Code

	log.Info().Str("room", room.Code).Str("player", name).Int("players", len(room.Players)).Msg("player joined")
	return room, nil
}

// Get 按房间号获取房间
func (r *Registry) Get(code string) (*Room, bool) {
	room, ok := r.rooms[code]
	return room, ok
}

// RoomOf 返回玩家所在的房间
func (r *Registry) RoomOf(playerID string) (*Room, bool) {
	code, ok := r.members[playerID]
	if !ok {
		return nil, false
	}
	return r.Get(code)
}

// hostRoom 校验房间存在且请求者是房主
func (r *Registry) hostRoom(code, requesterID string) (*Room, error) {
	room, ok := r.rooms[code]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	if room.Player(requesterID) == nil {
		return nil, apperrors.ErrNotInRoom
	}
	if !room.IsHost(requesterID) {
		return nil, apperrors.ErrNotHost
	}
	return room, nil
}

// ChangeGame 房主在大厅中切换游戏
func (r *Registry) ChangeGame(code, requesterID string, gameType game.Type) (*Room, error) {
	room, err := r.hostRoom(code, requesterID)
	if err != nil {
		return nil, err
	}
	if room.State != StateLobby || room.Starting {
		return nil, apperrors.ErrWrongPhase
	}
	if _, ok := r.games.Lookup(gameType); !ok {
		return nil, apperrors.ErrUnknownGame
	}

	room.GameType = gameType
	log.Info().Str("room", code).Str("game", string(gameType)).Msg("game changed")
	return room, nil
}

// PrepareStart 校验开局条件：房主、大厅状态、人数
func (r *Registry) PrepareStart(code, requesterID string) (*Room, game.Info, error) {
	room, err := r.hostRoom(code, requesterID)
	if err != nil {
		return nil, game.Info{}, err
	}
	if room.State != StateLobby || room.Starting {
		return nil, game.Info{}, apperrors.ErrWrongPhase
	}
	info, ok := r.games.Lookup(room.GameType)
	if !ok {
		return nil, game.Info{}, apperrors.ErrUnknownGame
	}
	if len(room.Players) < info.MinPlayers {
		return nil, game.Info{}, apperrors.NotEnoughPlayers(info.MinPlayers, info.Title)
	}
	return room, info, nil
}

// Launch 创建对局引擎并进入 playing 状态
func (r *Registry) Launch(room *Room, env game.Env) error {
	room.Starting = false
	eng, err := r.games.Start(room.GameType, room.Roster(), env)
	if err != nil {
		return err
	}

	for _, p := range room.Players {
		p.Score = 0
	}
	room.Game = eng
	room.State = StatePlaying

	log.Info().Str("room", room.Code).Str("game", string(room.GameType)).Int("players", len(room.Players)).Msg("game started")
	return nil
}

// ReturnToLobby 房主结束对局回到大厅
func (r *Registry) ReturnToLobby(code, requesterID string) (*Room, error) {
	room, err := r.hostRoom(code, requesterID)
	if err != nil {
		return nil, err
	}
	if room.State != StatePlaying && room.State != StateFinished {
		return nil, apperrors.ErrWrongPhase
	}

	room.resetToLobby()
	log.Info().Str("room", code).Msg("returned to lobby")
	return room, nil
}

// Departure 玩家离开某个房间的结果
type Departure struct {
	Room    *Room
	Deleted bool         // 房间因无人而删除
	NewHost string       // 新房主 ID，房主未变化时为空
	Outcome game.Outcome // 对局引擎的反应
}

// Leave 把玩家从所有房间中移除：空房间删除，房主离开时由第一位玩家接任
func (r *Registry) Leave(playerID string) []Departure {
	delete(r.members, playerID)

	var departures []Departure
	for code, room := range r.rooms {
		wasHost := room.IsHost(playerID)
		out, ok := room.removePlayer(playerID)
		if !ok {
			continue
		}

		d := Departure{Room: room, Outcome: out}
		switch {
		case len(room.Players) == 0:
			delete(r.rooms, code)
			d.Deleted = true
			log.Info().Str("room", code).Msg("room deleted")
		case wasHost:
			d.NewHost = room.Players[0].ID
			log.Info().Str("room", code).Str("player", room.Players[0].Name).Msg("host promoted")
		}
		log.Info().Str("room", code).Str("player_id", playerID).Msg("player left")
		departures = append(departures, d)
	}
	return departures
}

// Summary 房间概要（供 HTTP 接口和统计使用）
type Summary struct {
	Code      string    `json:"code"`
	Game      game.Type `json:"game"`
	State     State     `json:"state"`
	Players   int       `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
}

// List 列出所有房间，按创建时间排序
func (r *Registry) List() []Summary {
	list := make([]Summary, 0, len(r.rooms))
	for _, room := range r.rooms {
		list = append(list, Summary{
			Code:      room.Code,
			Game:      room.GameType,
			State:     room.State,
			Players:   len(room.Players),
			CreatedAt: room.CreatedAt,
		})
	}
	slices.SortFunc(list, func(a, b Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Code, b.Code)
	})
	return list
}

// Stats 房间统计
type Stats struct {
	Rooms       int `json:"rooms"`
	ActiveGames int `json:"activeGames"`
	Players     int `json:"players"`
}

// Stats 统计房间、进行中的对局和玩家数量
func (r *Registry) Stats() Stats {
	var s Stats
	for _, room := range r.rooms {
		s.Rooms++
		s.Players += len(room.Players)
		if room.State == StatePlaying || room.Starting {
			s.ActiveGames++
		}
	}
	return s
}
