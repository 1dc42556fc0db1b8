// Package snakeladder 100 格的蛇梯棋。
package snakeladder

import (
	"math/rand/v2"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

// Goal 终点格，必须恰好到达
const Goal = 100

// Snakes 蛇头到蛇尾的映射
var Snakes = map[int]int{98: 79, 95: 13, 87: 24, 64: 60, 54: 34, 17: 7}

// Ladders 梯子底部到顶部的映射
var Ladders = map[int]int{4: 14, 9: 31, 20: 38, 28: 84, 40: 59, 51: 67, 63: 81, 71: 91}

// View.LastEvent 中的事件类型
const (
	EventSnake  = "snake"
	EventLadder = "ladder"
	EventBounce = "bounce"
)

// Event 描述棋盘上最近一次特殊移动
type Event struct {
	Kind     string `json:"kind"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	From     int    `json:"from"`
	To       int    `json:"to"`
}

// Engine 蛇梯棋状态机
type Engine struct {
	rnd       *rand.Rand
	order     []string
	names     map[string]string
	positions map[string]int
	current   int
	die       int
	dieRolled bool
	lastEvent *Event
	winner    string
}

// View 发送给客户端的状态
type View struct {
	Positions        map[string]int `json:"positions"`
	CurrentPlayerIdx int            `json:"currentPlayerIdx"`
	CurrentPlayerID  string         `json:"currentPlayerId"`
	Die              *int           `json:"die"`
	DieRolled        bool           `json:"dieRolled"`
	LastEvent        *Event         `json:"lastEvent"`
	Winner           string         `json:"winner,omitempty"`
}

// New 所有玩家从第 0 格出发
func New(players []game.Player, env game.Env) (game.Engine, error) {
	e := &Engine{
		rnd:       env.Rand,
		order:     game.IDs(players),
		names:     make(map[string]string, len(players)),
		positions: make(map[string]int, len(players)),
	}
	for _, p := range players {
		e.names[p.ID] = p.Name
		e.positions[p.ID] = 0
	}
	return e, nil
}

func (e *Engine) Apply(playerID string, action game.Action) (game.Outcome, error) {
	if _, ok := action.(game.Roll); !ok {
		return game.Outcome{}, apperrors.ErrInvalidAction
	}
	if e.winner != "" {
		return game.Outcome{}, apperrors.ErrGameNotPlaying
	}
	if len(e.order) == 0 || e.order[e.current] != playerID || e.dieRolled {
		return game.Outcome{}, apperrors.ErrNotYourTurn
	}
	return e.roll(playerID), nil
}

func (e *Engine) roll(playerID string) game.Outcome {
	die := e.rnd.IntN(6) + 1
	e.die = die
	e.lastEvent = nil

	from := e.positions[playerID]
	to := Move(from, die)
	if kind := eventKind(from+die, to); kind != "" {
		e.lastEvent = &Event{Kind: kind, PlayerID: playerID, Name: e.names[playerID], From: from + die, To: to}
	}
	e.positions[playerID] = to

	if to == Goal {
		e.winner = playerID
		e.dieRolled = true
		return game.Finish(playerID)
	}
	// 掷出 6 点再掷一次
	if die != 6 {
		e.current = (e.current + 1) % len(e.order)
	}
	return game.Outcome{}
}

// Move 返回从 cell 掷出 die 后到达的格子：超过终点则原地不动，
// 落在蛇头或梯子底部时跳转
func Move(cell, die int) int {
	next := cell + die
	if next > Goal {
		return cell
	}
	if tail, ok := Snakes[next]; ok {
		return tail
	}
	if top, ok := Ladders[next]; ok {
		return top
	}
	return next
}

func eventKind(landed, to int) string {
	switch {
	case landed > Goal:
		return EventBounce
	case to < landed:
		return EventSnake
	case to > landed:
		return EventLadder
	}
	return ""
}

// RemovePlayer 把玩家移出棋盘；只剩一名玩家时该玩家获胜
func (e *Engine) RemovePlayer(playerID string) game.Outcome {
	order, current, ok := game.RemoveFromTurnOrder(e.order, e.current, playerID, 1)
	if !ok {
		return game.Outcome{}
	}
	e.order, e.current = order, current
	delete(e.positions, playerID)
	delete(e.names, playerID)

	if e.winner == "" && len(e.order) == 1 {
		e.winner = e.order[0]
		return game.Finish(e.winner)
	}
	return game.Outcome{}
}

func (e *Engine) View(string) any {
	v := View{
		Positions:        make(map[string]int, len(e.positions)),
		CurrentPlayerIdx: e.current,
		DieRolled:        e.dieRolled,
		LastEvent:        e.lastEvent,
		Winner:           e.winner,
	}
	for id, p := range e.positions {
		v.Positions[id] = p
	}
	if len(e.order) > 0 {
		v.CurrentPlayerID = e.order[e.current]
	}
	if e.die != 0 {
		die := e.die
		v.Die = &die
	}
	return v
}
