// Package hiddenrole 内鬼：隐藏的内鬼每晚淘汰一人，
// 幸存者每个白天投票放逐一人。
package hiddenrole

import (
	"slices"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

// Phase 昼夜循环中的阶段
type Phase string

const (
	PhaseNight         Phase = "night"
	PhaseDayDiscussion Phase = "day_discussion"
	PhaseDayVoting     Phase = "day_voting"
	PhaseRevealed      Phase = "revealed"
)

// SkipVote 弃票
const SkipVote = "skip"

const (
	WinnerCrewmates = "crewmates"
	WinnerImposter  = "imposter"

	RoleImposter = "imposter"
	RoleCrewmate = "crewmate"
)

// Engine 内鬼游戏状态机
type Engine struct {
	players     []string
	phase       Phase
	dead        []string
	votes       map[string]string
	hiddenID    string
	lastKilled  string
	lastEjected string
	winner      string
}

// View 发送给客户端的状态；揭晓之后才公开内鬼
type View struct {
	Phase       Phase             `json:"phase"`
	DeadPlayers []string          `json:"deadPlayers"`
	Votes       map[string]string `json:"votes"`
	ImposterID  string            `json:"imposterId,omitempty"`
	LastKilled  string            `json:"lastKilled,omitempty"`
	LastEjected string            `json:"lastEjected,omitempty"`
	Winner      string            `json:"winner,omitempty"`
}

// New 选出内鬼，从夜晚开始
func New(players []game.Player, env game.Env) (game.Engine, error) {
	if len(players) < 2 {
		return nil, apperrors.NotEnoughPlayers(2, "imposter")
	}
	ids := game.IDs(players)
	return &Engine{
		players:  ids,
		phase:    PhaseNight,
		votes:    make(map[string]string),
		hiddenID: ids[env.Rand.IntN(len(ids))],
	}, nil
}

func (e *Engine) Apply(playerID string, action game.Action) (game.Outcome, error) {
	if e.phase == PhaseRevealed {
		return game.Outcome{}, apperrors.ErrGameNotPlaying
	}

	switch a := action.(type) {
	case game.Kill:
		return e.kill(playerID, a.TargetID)
	case game.ChangePhase:
		return game.Outcome{}, e.changePhase(Phase(a.Phase))
	case game.Vote:
		return e.vote(playerID, a.TargetID)
	default:
		return game.Outcome{}, apperrors.ErrInvalidAction
	}
}

func (e *Engine) alive() []string {
	return slices.DeleteFunc(slices.Clone(e.players), func(id string) bool {
		return slices.Contains(e.dead, id)
	})
}

func (e *Engine) isAlive(id string) bool {
	return slices.Contains(e.players, id) && !slices.Contains(e.dead, id)
}

// kill 每晚只接受一次：阶段切换即结束夜晚
func (e *Engine) kill(playerID, targetID string) (game.Outcome, error) {
	if e.phase != PhaseNight {
		return game.Outcome{}, apperrors.ErrWrongPhase
	}
	if playerID != e.hiddenID {
		return game.Outcome{}, apperrors.ErrNotYourTurn
	}
	if targetID == playerID || !e.isAlive(targetID) {
		return game.Outcome{}, apperrors.Invalid("cannot kill %q", targetID)
	}

	e.dead = append(e.dead, targetID)
	e.lastKilled = targetID
	if len(e.alive()) <= 2 {
		return e.reveal(WinnerImposter), nil
	}
	e.phase = PhaseDayDiscussion
	return game.Outcome{}, nil
}

// changePhase 房主可以强制天亮或开启投票
func (e *Engine) changePhase(to Phase) error {
	switch {
	case e.phase == PhaseNight && to == PhaseDayDiscussion:
		e.lastKilled = ""
	case e.phase == PhaseDayDiscussion && to == PhaseDayVoting:
		e.votes = make(map[string]string)
	default:
		return apperrors.ErrWrongPhase
	}
	e.phase = to
	return nil
}

func (e *Engine) vote(voterID, targetID string) (game.Outcome, error) {
	if e.phase != PhaseDayVoting {
		return game.Outcome{}, apperrors.ErrWrongPhase
	}
	if !e.isAlive(voterID) {
		return game.Outcome{}, apperrors.Invalid("%s is dead", voterID)
	}
	if targetID != SkipVote && !e.isAlive(targetID) {
		return game.Outcome{}, apperrors.Invalid("vote target %q is not alive", targetID)
	}

	e.votes[voterID] = targetID
	return e.resolveIfComplete(), nil
}

func (e *Engine) resolveIfComplete() game.Outcome {
	alive := e.alive()
	if e.phase != PhaseDayVoting || len(alive) == 0 || len(e.votes) < len(alive) {
		return game.Outcome{}
	}

	leaders := game.Tally(e.votes)
	if len(leaders) > 1 || leaders[0] == SkipVote {
		e.toNight()
		return game.Outcome{}
	}

	ejected := leaders[0]
	e.dead = append(e.dead, ejected)
	e.lastEjected = ejected
	switch {
	case ejected == e.hiddenID:
		return e.reveal(WinnerCrewmates)
	case len(e.alive()) <= 2:
		return e.reveal(WinnerImposter)
	}
	e.toNight()
	return game.Outcome{}
}

func (e *Engine) toNight() {
	e.phase = PhaseNight
	e.votes = make(map[string]string)
	e.lastKilled = ""
}

func (e *Engine) reveal(winner string) game.Outcome {
	e.phase = PhaseRevealed
	e.winner = winner
	if winner == WinnerImposter {
		return game.Finish(e.hiddenID)
	}
	return game.Finish(game.Without(e.players, e.hiddenID)...)
}

// RemovePlayer 内鬼离开时船员获胜；
// 否则把离开的玩家从存活名单和投票中移除
func (e *Engine) RemovePlayer(playerID string) game.Outcome {
	if !slices.Contains(e.players, playerID) || e.phase == PhaseRevealed {
		e.players = game.Without(e.players, playerID)
		return game.Outcome{}
	}
	if playerID == e.hiddenID {
		out := e.reveal(WinnerCrewmates)
		e.players = game.Without(e.players, playerID)
		return out
	}

	wasAlive := e.isAlive(playerID)
	e.players = game.Without(e.players, playerID)
	e.dead = game.Without(e.dead, playerID)
	if !wasAlive {
		return game.Outcome{}
	}

	delete(e.votes, playerID)
	for voter, target := range e.votes {
		if target == playerID {
			delete(e.votes, voter)
		}
	}
	if len(e.alive()) <= 2 {
		return e.reveal(WinnerImposter)
	}
	return e.resolveIfComplete()
}

func (e *Engine) View(string) any {
	v := View{
		Phase:       e.phase,
		DeadPlayers: slices.Clone(e.dead),
		Votes:       make(map[string]string, len(e.votes)),
		LastKilled:  e.lastKilled,
		LastEjected: e.lastEjected,
		Winner:      e.winner,
	}
	for k, t := range e.votes {
		v.Votes[k] = t
	}
	if e.phase == PhaseRevealed {
		v.ImposterID = e.hiddenID
	}
	return v
}

func (e *Engine) Secret(playerID string) (game.Secret, bool) {
	if !slices.Contains(e.players, playerID) {
		return game.Secret{}, false
	}
	if playerID == e.hiddenID {
		return game.Secret{Role: RoleImposter}, true
	}
	return game.Secret{Role: RoleCrewmate}, true
}
