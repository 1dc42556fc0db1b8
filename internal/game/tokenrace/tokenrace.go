// Package tokenrace 飞行棋：每人四枚棋子，在共享的 52 格跑道上掷骰前进，可吃子，有安全格。
package tokenrace

import (
	"math/rand/v2"
	"slices"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

// 棋子位置
const (
	Yard       = -1
	TrackCells = 52 // 0..51 为公共跑道
	Finished   = 56 // 52..55 为终点通道
	Tokens     = 4
	entryRoll  = 6
)

// SafeCells 安全格，落在这里不会吃掉对手
var SafeCells = []int{0, 8, 13, 21, 26, 34, 39, 47}

// Engine 飞行棋状态机
type Engine struct {
	rnd       *rand.Rand
	order     []string
	tokens    map[string]*[Tokens]int
	current   int
	die       int
	dieRolled bool
	lastRoll  int
	winner    string
}

// View 发送给客户端的状态。未掷骰时 Die 为 nil
type View struct {
	Tokens           map[string][Tokens]int `json:"tokens"`
	CurrentPlayerIdx int                    `json:"currentPlayerIdx"`
	CurrentPlayerID  string                 `json:"currentPlayerId"`
	Die              *int                   `json:"die"`
	DieRolled        bool                   `json:"dieRolled"`
	LastRoll         int                    `json:"lastRoll,omitempty"`
	Winner           string                 `json:"winner,omitempty"`
}

// New 所有棋子都在基地，由第一位玩家先掷
func New(players []game.Player, env game.Env) (game.Engine, error) {
	e := &Engine{
		rnd:    env.Rand,
		order:  game.IDs(players),
		tokens: make(map[string]*[Tokens]int, len(players)),
	}
	for _, id := range e.order {
		e.tokens[id] = &[Tokens]int{Yard, Yard, Yard, Yard}
	}
	return e, nil
}

func (e *Engine) Apply(playerID string, action game.Action) (game.Outcome, error) {
	if e.winner != "" {
		return game.Outcome{}, apperrors.ErrGameNotPlaying
	}
	if len(e.order) == 0 || e.order[e.current] != playerID {
		return game.Outcome{}, apperrors.ErrNotYourTurn
	}

	switch a := action.(type) {
	case game.Roll:
		return game.Outcome{}, e.roll(playerID)
	case game.Move:
		return e.move(playerID, a.Token)
	default:
		return game.Outcome{}, apperrors.ErrInvalidAction
	}
}

func (e *Engine) roll(playerID string) error {
	if e.dieRolled {
		return apperrors.ErrWrongPhase
	}
	e.die = e.rnd.IntN(6) + 1
	e.dieRolled = true
	e.lastRoll = e.die

	// 没有棋子可走时直接换人，不让房间卡住
	if !e.hasLegalMove(playerID) {
		e.endTurn()
	}
	return nil
}

func (e *Engine) hasLegalMove(playerID string) bool {
	for _, pos := range e.tokens[playerID] {
		if (pos == Yard && e.die == entryRoll) || (pos >= 0 && pos < Finished) {
			return true
		}
	}
	return false
}

func (e *Engine) move(playerID string, token int) (game.Outcome, error) {
	if !e.dieRolled {
		return game.Outcome{}, apperrors.ErrWrongPhase
	}
	if token < 0 || token >= Tokens {
		return game.Outcome{}, apperrors.Invalid("token %d out of range", token)
	}

	mine := e.tokens[playerID]
	pos := mine[token]
	switch {
	case pos == Finished:
		return game.Outcome{}, apperrors.Invalid("token %d already home", token)
	case pos == Yard:
		if e.die != entryRoll {
			return game.Outcome{}, apperrors.Invalid("token %d needs a %d to leave the yard", token, entryRoll)
		}
		mine[token] = 0
	default:
		mine[token] = e.advance(playerID, pos+e.die)
	}

	if slices.Equal(mine[:], []int{Finished, Finished, Finished, Finished}) {
		e.winner = playerID
		e.clearDie()
		return game.Finish(playerID), nil
	}
	e.endTurn()
	return game.Outcome{}, nil
}

// advance 结算落点：终点通道最多到 Finished；
// 落在非安全的公共格时，把那里的对手棋子送回基地
func (e *Engine) advance(playerID string, next int) int {
	if next >= TrackCells {
		return min(next, Finished)
	}
	if !slices.Contains(SafeCells, next) {
		for id, theirs := range e.tokens {
			if id == playerID {
				continue
			}
			for i, p := range theirs {
				if p == next {
					theirs[i] = Yard
				}
			}
		}
	}
	return next
}

// endTurn 清除骰子，除非掷出 6 点否则换人
func (e *Engine) endTurn() {
	if e.die != entryRoll {
		e.current = (e.current + 1) % len(e.order)
	}
	e.clearDie()
}

func (e *Engine) clearDie() {
	e.die = 0
	e.dieRolled = false
}

// RemovePlayer 移除离开玩家的棋子。轮到该玩家时回合顺延；
// 只剩一名玩家时该玩家获胜
func (e *Engine) RemovePlayer(playerID string) game.Outcome {
	heldTurn := len(e.order) > 0 && e.order[e.current] == playerID
	order, current, ok := game.RemoveFromTurnOrder(e.order, e.current, playerID, 1)
	if !ok {
		return game.Outcome{}
	}
	e.order, e.current = order, current
	delete(e.tokens, playerID)
	if heldTurn {
		e.clearDie()
	}

	if e.winner == "" && len(e.order) == 1 {
		e.winner = e.order[0]
		e.clearDie()
		return game.Finish(e.winner)
	}
	return game.Outcome{}
}

func (e *Engine) View(string) any {
	v := View{
		Tokens:           make(map[string][Tokens]int, len(e.tokens)),
		CurrentPlayerIdx: e.current,
		DieRolled:        e.dieRolled,
		LastRoll:         e.lastRoll,
		Winner:           e.winner,
	}
	for id, t := range e.tokens {
		v.Tokens[id] = *t
	}
	if len(e.order) > 0 {
		v.CurrentPlayerID = e.order[e.current]
	}
	if e.dieRolled {
		die := e.die
		v.Die = &die
	}
	return v
}
