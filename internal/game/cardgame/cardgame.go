// Package cardgame UNO 出牌游戏：跟弃牌堆顶牌同色或同值即可出牌，先出完手牌者获胜。
package cardgame

import (
	"math/rand/v2"
	"slices"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

// HandSize 每人发牌数
const HandSize = 7

// Engine UNO 状态机
type Engine struct {
	rnd       *rand.Rand
	order     []string
	deck      []Card
	discard   []Card
	hands     map[string][]Card
	color     string
	turn      int
	direction int
	winner    string
	unoCalled map[string]bool
}

// View 单个玩家视角的状态：只显示自己的手牌，其他人只显示张数
type View struct {
	DeckCount        int             `json:"deckCount"`
	TopCard          Card            `json:"topCard"`
	DiscardCount     int             `json:"discardCount"`
	Hand             []Card          `json:"hand"`
	HandCounts       map[string]int  `json:"handCounts"`
	CurrentColor     string          `json:"currentColor"`
	CurrentTurnIndex int             `json:"currentTurnIndex"`
	CurrentPlayerID  string          `json:"currentPlayerId"`
	Direction        int             `json:"direction"`
	Winner           string          `json:"winner,omitempty"`
	UnoCalled        map[string]bool `json:"unoCalled"`
}

// New 洗一副新牌，每人发 HandSize 张，翻开一张非万能牌作为首张弃牌
func New(players []game.Player, env game.Env) (game.Engine, error) {
	if len(players)*HandSize >= len(NewDeck()) {
		return nil, apperrors.Invalid("too many players for one deck")
	}

	e := &Engine{
		rnd:       env.Rand,
		order:     game.IDs(players),
		deck:      NewDeck(),
		hands:     make(map[string][]Card, len(players)),
		direction: 1,
		unoCalled: make(map[string]bool, len(players)),
	}
	e.shuffle(e.deck)

	for _, id := range e.order {
		e.hands[id] = slices.Clone(e.deck[:HandSize])
		e.deck = e.deck[HandSize:]
	}

	// 万能牌不能作为首张：随机插回牌堆再翻一张
	top := e.pop()
	for top.IsWild() {
		e.deck = slices.Insert(e.deck, e.rnd.IntN(len(e.deck)), top)
		top = e.pop()
	}
	e.discard = []Card{top}
	e.color = top.Color
	return e, nil
}

func (e *Engine) shuffle(cards []Card) {
	e.rnd.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

// pop 从牌堆顶取一张牌，调用前牌堆不能为空
func (e *Engine) pop() Card {
	c := e.deck[len(e.deck)-1]
	e.deck = e.deck[:len(e.deck)-1]
	return c
}

func (e *Engine) top() Card {
	return e.discard[len(e.discard)-1]
}

func (e *Engine) Apply(playerID string, action game.Action) (game.Outcome, error) {
	if e.winner != "" {
		return game.Outcome{}, apperrors.ErrGameNotPlaying
	}
	if _, ok := e.hands[playerID]; !ok {
		return game.Outcome{}, apperrors.ErrNotInRoom
	}

	switch a := action.(type) {
	case game.CallUno:
		return game.Outcome{}, e.callUno(playerID)
	case game.PlayCard:
		if err := e.checkTurn(playerID); err != nil {
			return game.Outcome{}, err
		}
		return e.playCard(playerID, a.Index, a.Color)
	case game.DrawCard:
		if err := e.checkTurn(playerID); err != nil {
			return game.Outcome{}, err
		}
		e.drawCard(playerID)
		return game.Outcome{}, nil
	default:
		return game.Outcome{}, apperrors.ErrInvalidAction
	}
}

func (e *Engine) checkTurn(playerID string) error {
	if e.order[e.turn] != playerID {
		return apperrors.ErrNotYourTurn
	}
	return nil
}

// Playable 判断 c 能否打在当前弃牌上
func (e *Engine) Playable(c Card) bool {
	return c.IsWild() || c.Color == e.color || c.Value == e.top().Value
}

func (e *Engine) playCard(playerID string, idx int, chosen string) (game.Outcome, error) {
	hand := e.hands[playerID]
	if idx < 0 || idx >= len(hand) {
		return game.Outcome{}, apperrors.Invalid("card %d out of range", idx)
	}
	card := hand[idx]
	if !e.Playable(card) {
		return game.Outcome{}, apperrors.Invalid("%s %s does not match", card.Color, card.Value)
	}

	color := card.Color
	if card.IsWild() {
		color = chosen
		if color == "" {
			color = Red
		}
		if !validColor(color) {
			return game.Outcome{}, apperrors.Invalid("unknown color %q", chosen)
		}
	}

	hand = slices.Delete(hand, idx, idx+1)
	e.hands[playerID] = hand
	e.discard = append(e.discard, card)
	e.color = color
	if len(hand) > 1 {
		e.unoCalled[playerID] = false
	}

	if len(hand) == 0 {
		e.winner = playerID
		return game.Finish(playerID), nil
	}

	steps := 1
	switch card.Value {
	case Reverse:
		e.direction = -e.direction
		// 两人对局时反转牌直接把回合交回出牌者
		if len(e.order) == 2 {
			steps = 2
		}
	case Skip:
		steps = 2
	case Draw2:
		e.penalize(2)
		steps = 2
	case Draw4:
		e.penalize(4)
		steps = 2
	}
	e.advance(steps)
	return game.Outcome{}, nil
}

// penalize 让下一位玩家摸 n 张牌
func (e *Engine) penalize(n int) {
	victim := e.order[game.Mod(e.turn+e.direction, len(e.order))]
	for range n {
		c, ok := e.draw()
		if !ok {
			break
		}
		e.hands[victim] = append(e.hands[victim], c)
	}
	e.unoCalled[victim] = false
}

func (e *Engine) drawCard(playerID string) {
	if c, ok := e.draw(); ok {
		e.hands[playerID] = append(e.hands[playerID], c)
		e.unoCalled[playerID] = false
	}
	e.advance(1)
}

// draw 摸一张牌，牌堆为空时把弃牌洗回牌堆
func (e *Engine) draw() (Card, bool) {
	if len(e.deck) == 0 {
		e.reshuffle()
	}
	if len(e.deck) == 0 {
		return Card{}, false
	}
	return e.pop(), true
}

// reshuffle 除堆顶外的所有弃牌洗回牌堆
func (e *Engine) reshuffle() {
	if len(e.discard) <= 1 {
		return
	}
	top := e.top()
	e.deck = append(e.deck, e.discard[:len(e.discard)-1]...)
	e.shuffle(e.deck)
	e.discard = []Card{top}
}

func (e *Engine) advance(steps int) {
	e.turn = game.Mod(e.turn+e.direction*steps, len(e.order))
}

// callUno 手牌不超过两张时随时可以喊，忘记喊没有惩罚
func (e *Engine) callUno(playerID string) error {
	if len(e.hands[playerID]) > 2 {
		return apperrors.Invalid("%s holds too many cards to call", playerID)
	}
	e.unoCalled[playerID] = true
	return nil
}

// RemovePlayer 把离开玩家的手牌洗回牌堆，并按当前方向顺延回合；
// 只剩一名玩家时该玩家获胜
func (e *Engine) RemovePlayer(playerID string) game.Outcome {
	order, turn, ok := game.RemoveFromTurnOrder(e.order, e.turn, playerID, e.direction)
	if !ok {
		return game.Outcome{}
	}
	e.order, e.turn = order, turn
	e.deck = append(e.deck, e.hands[playerID]...)
	e.shuffle(e.deck)
	delete(e.hands, playerID)
	delete(e.unoCalled, playerID)

	if e.winner == "" && len(e.order) == 1 {
		e.winner = e.order[0]
		return game.Finish(e.winner)
	}
	return game.Outcome{}
}

func (e *Engine) View(viewerID string) any {
	v := View{
		DeckCount:        len(e.deck),
		TopCard:          e.top(),
		DiscardCount:     len(e.discard),
		Hand:             slices.Clone(e.hands[viewerID]),
		HandCounts:       make(map[string]int, len(e.hands)),
		CurrentColor:     e.color,
		CurrentTurnIndex: e.turn,
		Direction:        e.direction,
		Winner:           e.winner,
		UnoCalled:        make(map[string]bool, len(e.unoCalled)),
	}
	if v.Hand == nil {
		v.Hand = []Card{}
	}
	for id, h := range e.hands {
		v.HandCounts[id] = len(h)
	}
	for id, called := range e.unoCalled {
		v.UnoCalled[id] = called
	}
	if len(e.order) > 0 {
		v.CurrentPlayerID = e.order[e.turn]
	}
	return v
}
