package hiddenrole

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

func newGame(t *testing.T, n int) *Engine {
	t.Helper()
	players := make([]game.Player, n)
	for i := range players {
		players[i] = game.Player{ID: fmt.Sprintf("p%d", i+1)}
	}
	eng, err := New(players, game.Env{Rand: rand.New(rand.NewPCG(42, uint64(n)))})
	require.NoError(t, err)
	return eng.(*Engine)
}

func crew(e *Engine) []string {
	return game.Without(e.alive(), e.hiddenID)
}

func voteAll(t *testing.T, e *Engine, target string) game.Outcome {
	t.Helper()
	var out game.Outcome
	for _, id := range e.alive() {
		var err error
		out, err = e.Apply(id, game.Vote{TargetID: target})
		require.NoError(t, err)
	}
	return out
}

func TestHiddenRole_OnlyHiddenPlayerKillsAtNight(t *testing.T) {
	t.Parallel()
	e := newGame(t, 5)
	victim := crew(e)[0]

	_, err := e.Apply(crew(e)[1], game.Kill{TargetID: victim})
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	_, err = e.Apply(e.hiddenID, game.Kill{TargetID: e.hiddenID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)

	_, err = e.Apply(e.hiddenID, game.Kill{TargetID: victim})
	require.NoError(t, err)
	assert.Equal(t, PhaseDayDiscussion, e.phase)
	assert.Equal(t, victim, e.lastKilled)
	assert.Contains(t, e.dead, victim)

	_, err = e.Apply(e.hiddenID, game.Kill{TargetID: crew(e)[0]})
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase, "one kill per night")
}

func TestHiddenRole_KillDownToTwoEndsGame(t *testing.T) {
	t.Parallel()
	e := newGame(t, 3)

	out, err := e.Apply(e.hiddenID, game.Kill{TargetID: crew(e)[0]})
	require.NoError(t, err)
	assert.True(t, out.Finished)
	assert.Equal(t, PhaseRevealed, e.phase)
	assert.Equal(t, WinnerImposter, e.winner)
	assert.Equal(t, []string{e.hiddenID}, out.Winners)
}

func TestHiddenRole_PhaseTransitions(t *testing.T) {
	t.Parallel()
	e := newGame(t, 5)

	_, err := e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)

	// 房主强制天亮，无人死亡
	_, err = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayDiscussion)})
	require.NoError(t, err)
	assert.Empty(t, e.dead)

	_, err = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})
	require.NoError(t, err)
	assert.Equal(t, PhaseDayVoting, e.phase)
}

func TestHiddenRole_SkipAndTieReturnToNight(t *testing.T) {
	t.Parallel()
	e := newGame(t, 4)
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayDiscussion)})
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})

	out := voteAll(t, e, SkipVote)
	assert.False(t, out.Finished)
	assert.Equal(t, PhaseNight, e.phase)
	assert.Empty(t, e.dead)
	assert.Empty(t, e.votes)

	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayDiscussion)})
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})
	_, _ = e.Apply("p1", game.Vote{TargetID: "p2"})
	_, _ = e.Apply("p2", game.Vote{TargetID: "p1"})
	_, _ = e.Apply("p3", game.Vote{TargetID: SkipVote})
	_, err := e.Apply("p4", game.Vote{TargetID: "p3"})
	require.NoError(t, err)
	assert.Equal(t, PhaseNight, e.phase)
	assert.Empty(t, e.dead)
}

func TestHiddenRole_EjectingHiddenPlayerCrewWins(t *testing.T) {
	t.Parallel()
	e := newGame(t, 4)
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayDiscussion)})
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})

	out := voteAll(t, e, e.hiddenID)
	assert.True(t, out.Finished)
	assert.Equal(t, WinnerCrewmates, e.winner)
	assert.ElementsMatch(t, game.Without(e.players, e.hiddenID), out.Winners)
	assert.Equal(t, e.hiddenID, e.View("p1").(View).ImposterID)
}

func TestHiddenRole_EjectingCrewmate(t *testing.T) {
	t.Parallel()
	e := newGame(t, 5)
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayDiscussion)})
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})

	victim := crew(e)[0]
	out := voteAll(t, e, victim)
	assert.False(t, out.Finished)
	assert.Equal(t, PhaseNight, e.phase)
	assert.Equal(t, victim, e.lastEjected)

	// 死亡玩家既不能投票也不能被投
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayDiscussion)})
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})
	_, err := e.Apply(victim, game.Vote{TargetID: SkipVote})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)
	_, err = e.Apply(crew(e)[0], game.Vote{TargetID: victim})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)

	// 四人存活：放逐一名船员后剩三人，游戏继续
	out = voteAll(t, e, crew(e)[0])
	assert.False(t, out.Finished)

	// 三人存活：放逐一名船员后剩两人，内鬼获胜
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayDiscussion)})
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})
	out = voteAll(t, e, crew(e)[0])
	assert.True(t, out.Finished)
	assert.Equal(t, WinnerImposter, e.winner)
}

func TestHiddenRole_Secrets(t *testing.T) {
	t.Parallel()
	e := newGame(t, 3)

	s, ok := e.Secret(e.hiddenID)
	require.True(t, ok)
	assert.Equal(t, RoleImposter, s.Role)

	s, ok = e.Secret(crew(e)[0])
	require.True(t, ok)
	assert.Equal(t, RoleCrewmate, s.Role)
	assert.Empty(t, e.View(crew(e)[0]).(View).ImposterID)
}

func TestHiddenRole_Departures(t *testing.T) {
	t.Parallel()

	e := newGame(t, 4)
	out := e.RemovePlayer(e.hiddenID)
	assert.True(t, out.Finished)
	assert.Equal(t, WinnerCrewmates, e.winner)

	e = newGame(t, 5)
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayDiscussion)})
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseDayVoting)})
	victim, leaver := crew(e)[0], crew(e)[3]
	for _, id := range e.alive() {
		if id != leaver {
			_, err := e.Apply(id, game.Vote{TargetID: victim})
			require.NoError(t, err)
		}
	}
	assert.Equal(t, PhaseDayVoting, e.phase)

	out = e.RemovePlayer(leaver)
	assert.False(t, out.Finished)
	assert.Equal(t, victim, e.lastEjected)
	assert.Equal(t, PhaseNight, e.phase)
}
