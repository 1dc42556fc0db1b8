// Package hiddenword 谁是白板：除一人外所有人都知道秘密词，
// 大家轮流描述，然后投票。
package hiddenword

import (
	"math/rand/v2"
	"slices"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

// Phase 一轮中的阶段
type Phase string

const (
	PhaseDiscussion Phase = "discussion"
	PhaseVoting     Phase = "voting"
	PhaseRevealed   Phase = "revealed"
)

// View.Winner 中的阵营
const (
	WinnerCitizens = "citizens"
	WinnerMrWhite  = "mrwhite"
)

// 通过 Secret 发放的身份
const (
	RoleMrWhite  = "mrwhite"
	RoleCivilian = "civilian"
	unknownWord  = "???"
)

// Words 秘密词词库
var Words = []string{
	"Apple", "Banana", "Car", "Laptop", "Ocean", "Mountain", "Guitar", "Piano",
	"Coffee", "Sun", "Clock", "Bridge", "Cloud", "Library", "Diamond", "Penguin",
	"Volcano", "Umbrella", "Castle", "Submarine", "Telescope", "Cactus", "Anchor",
}

// Engine 谁是白板状态机
type Engine struct {
	rnd *rand.Rand

	players        []string
	phase          Phase
	round          int
	speakingOrder  []string
	currentSpeaker int
	active         []string
	eliminated     []string
	votes          map[string]string
	hiddenID       string
	word           string
	lastEliminated string
	tied           bool
	winner         string
}

// View 发送给客户端的状态。揭晓之前不包含白板玩家和秘密词
type View struct {
	Phase               Phase             `json:"phase"`
	Round               int               `json:"round"`
	SpeakingOrder       []string          `json:"speakingOrder"`
	CurrentSpeakerIndex int               `json:"currentSpeakerIndex"`
	ActivePlayers       []string          `json:"activePlayers"`
	EliminatedPlayers   []string          `json:"eliminatedPlayers"`
	Votes               map[string]string `json:"votes"`
	MrWhiteID           string            `json:"mrWhiteId,omitempty"`
	SecretWord          string            `json:"secretWord,omitempty"`
	LastEliminated      string            `json:"lastEliminated,omitempty"`
	Tied                bool              `json:"tied"`
	Winner              string            `json:"winner,omitempty"`
}

// New 分配白板身份和秘密词，开始第一轮
func New(players []game.Player, env game.Env) (game.Engine, error) {
	if len(players) < 2 {
		return nil, apperrors.NotEnoughPlayers(2, "mrwhite")
	}

	ids := game.IDs(players)
	hidden := ids[env.Rand.IntN(len(ids))]
	return &Engine{
		rnd:           env.Rand,
		players:       ids,
		phase:         PhaseDiscussion,
		round:         1,
		speakingOrder: SpeakingOrder(env.Rand, ids, hidden),
		active:        slices.Clone(ids),
		votes:         make(map[string]string),
		hiddenID:      hidden,
		word:          Words[env.Rand.IntN(len(Words))],
	}, nil
}

// SpeakingOrder 打乱除 hiddenID 以外的玩家，再把 hiddenID 插到随机的中间位置，
// 保证白板既不第一个也不最后一个发言。其他玩家少于两人时没有中间位置，
// 白板最后发言
func SpeakingOrder(r *rand.Rand, ids []string, hiddenID string) []string {
	others := game.Without(ids, hiddenID)
	r.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })

	if len(others) < 2 {
		return append(others, hiddenID)
	}
	pos := r.IntN(len(others)-1) + 1
	return slices.Insert(others, pos, hiddenID)
}

func (e *Engine) Apply(playerID string, action game.Action) (game.Outcome, error) {
	if e.phase == PhaseRevealed {
		return game.Outcome{}, apperrors.ErrGameNotPlaying
	}

	switch a := action.(type) {
	case game.DoneSpeaking:
		return game.Outcome{}, e.doneSpeaking(playerID)
	case game.ChangePhase:
		return game.Outcome{}, e.changePhase(Phase(a.Phase))
	case game.Vote:
		return e.vote(playerID, a.TargetID)
	default:
		return game.Outcome{}, apperrors.ErrInvalidAction
	}
}

func (e *Engine) doneSpeaking(playerID string) error {
	if e.phase != PhaseDiscussion {
		return apperrors.ErrWrongPhase
	}
	if e.currentSpeaker >= len(e.speakingOrder) || e.speakingOrder[e.currentSpeaker] != playerID {
		return apperrors.ErrNotYourTurn
	}
	e.currentSpeaker++
	return nil
}

// changePhase 只能开启投票，其余阶段切换都是自动的
func (e *Engine) changePhase(to Phase) error {
	if e.phase != PhaseDiscussion || to != PhaseVoting {
		return apperrors.ErrWrongPhase
	}
	e.phase = PhaseVoting
	e.votes = make(map[string]string)
	return nil
}

func (e *Engine) vote(voterID, targetID string) (game.Outcome, error) {
	if e.phase != PhaseVoting {
		return game.Outcome{}, apperrors.ErrWrongPhase
	}
	if !slices.Contains(e.active, voterID) {
		return game.Outcome{}, apperrors.Invalid("%s is eliminated", voterID)
	}
	if !slices.Contains(e.active, targetID) {
		return game.Outcome{}, apperrors.Invalid("vote target %q is not active", targetID)
	}

	e.votes[voterID] = targetID
	return e.resolveIfComplete(), nil
}

func (e *Engine) resolveIfComplete() game.Outcome {
	if e.phase != PhaseVoting || len(e.active) == 0 || len(e.votes) < len(e.active) {
		return game.Outcome{}
	}

	leaders := game.Tally(e.votes)
	e.tied = len(leaders) > 1
	if e.tied {
		e.lastEliminated = ""
		e.nextRound()
		return game.Outcome{}
	}

	out := leaders[0]
	e.lastEliminated = out
	if out == e.hiddenID {
		return e.reveal(WinnerCitizens)
	}

	e.active = game.Without(e.active, out)
	e.eliminated = append(e.eliminated, out)
	// 只剩两人时无法投出白板
	if len(e.active) <= 2 {
		return e.reveal(WinnerMrWhite)
	}
	e.nextRound()
	return game.Outcome{}
}

func (e *Engine) nextRound() {
	e.round++
	e.phase = PhaseDiscussion
	e.votes = make(map[string]string)
	e.speakingOrder = SpeakingOrder(e.rnd, e.active, e.hiddenID)
	e.currentSpeaker = 0
}

func (e *Engine) reveal(winner string) game.Outcome {
	e.phase = PhaseRevealed
	e.winner = winner
	if winner == WinnerMrWhite {
		return game.Finish(e.hiddenID)
	}
	return game.Finish(game.Without(e.players, e.hiddenID)...)
}

// RemovePlayer 白板离开时平民获胜；
// 否则移除离开玩家的发言顺序、投票以及投给他的票
func (e *Engine) RemovePlayer(playerID string) game.Outcome {
	if !slices.Contains(e.players, playerID) || e.phase == PhaseRevealed {
		e.players = game.Without(e.players, playerID)
		return game.Outcome{}
	}
	if playerID == e.hiddenID {
		out := e.reveal(WinnerCitizens)
		e.players = game.Without(e.players, playerID)
		return out
	}

	e.players = game.Without(e.players, playerID)
	e.eliminated = game.Without(e.eliminated, playerID)
	if !slices.Contains(e.active, playerID) {
		return game.Outcome{}
	}

	e.active = game.Without(e.active, playerID)
	if idx := slices.Index(e.speakingOrder, playerID); idx >= 0 {
		e.speakingOrder = slices.Delete(e.speakingOrder, idx, idx+1)
		if idx < e.currentSpeaker {
			e.currentSpeaker--
		}
	}
	delete(e.votes, playerID)
	for voter, target := range e.votes {
		if target == playerID {
			delete(e.votes, voter)
		}
	}

	if len(e.active) <= 2 {
		return e.reveal(WinnerMrWhite)
	}
	return e.resolveIfComplete()
}

func (e *Engine) View(string) any {
	v := View{
		Phase:               e.phase,
		Round:               e.round,
		SpeakingOrder:       slices.Clone(e.speakingOrder),
		CurrentSpeakerIndex: e.currentSpeaker,
		ActivePlayers:       slices.Clone(e.active),
		EliminatedPlayers:   slices.Clone(e.eliminated),
		Votes:               make(map[string]string, len(e.votes)),
		LastEliminated:      e.lastEliminated,
		Tied:                e.tied,
		Winner:              e.winner,
	}
	for k, t := range e.votes {
		v.Votes[k] = t
	}
	if e.phase == PhaseRevealed {
		v.MrWhiteID = e.hiddenID
		v.SecretWord = e.word
	}
	return v
}

// Secret 告知玩家身份；白板不知道秘密词
func (e *Engine) Secret(playerID string) (game.Secret, bool) {
	if !slices.Contains(e.players, playerID) {
		return game.Secret{}, false
	}
	if playerID == e.hiddenID {
		return game.Secret{Role: RoleMrWhite, Word: unknownWord}, true
	}
	return game.Secret{Role: RoleCivilian, Word: e.word}, true
}
