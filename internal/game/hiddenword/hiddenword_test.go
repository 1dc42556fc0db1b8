package hiddenword

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

func newGame(t *testing.T, seed uint64, n int) *Engine {
	t.Helper()
	players := make([]game.Player, n)
	for i := range players {
		players[i] = game.Player{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("P%d", i+1)}
	}
	eng, err := New(players, game.Env{Rand: rand.New(rand.NewPCG(seed, 7))})
	require.NoError(t, err)
	return eng.(*Engine)
}

// civilians 返回仍在场的平民
func civilians(e *Engine) []string {
	return game.Without(e.active, e.hiddenID)
}

func speakAll(t *testing.T, e *Engine) {
	t.Helper()
	for _, id := range slices.Clone(e.speakingOrder) {
		_, err := e.Apply(id, game.DoneSpeaking{})
		require.NoError(t, err)
	}
}

func TestSpeakingOrder_HiddenNeverAtEdges(t *testing.T) {
	t.Parallel()

	for n := 3; n <= 10; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("p%d", i)
		}
		for seed := range uint64(200) {
			r := rand.New(rand.NewPCG(seed, uint64(n)))
			hidden := ids[r.IntN(n)]
			order := SpeakingOrder(r, ids, hidden)

			require.Len(t, order, n)
			assert.ElementsMatch(t, ids, order)
			pos := slices.Index(order, hidden)
			assert.NotEqual(t, 0, pos)
			assert.NotEqual(t, n-1, pos)
		}
	}
}

func TestSpeakingOrder_TwoPlayersAppendsHidden(t *testing.T) {
	t.Parallel()

	order := SpeakingOrder(rand.New(rand.NewPCG(1, 1)), []string{"a", "b"}, "a")
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestHiddenWord_OnlyCurrentSpeakerAdvances(t *testing.T) {
	t.Parallel()
	e := newGame(t, 1, 4)

	first, second := e.speakingOrder[0], e.speakingOrder[1]
	_, err := e.Apply(second, game.DoneSpeaking{})
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	_, err = e.Apply(first, game.DoneSpeaking{})
	require.NoError(t, err)
	assert.Equal(t, 1, e.currentSpeaker)

	for _, id := range e.speakingOrder[1:] {
		_, err = e.Apply(id, game.DoneSpeaking{})
		require.NoError(t, err)
	}
	_, err = e.Apply(first, game.DoneSpeaking{})
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn, "everyone has spoken")
}

func TestHiddenWord_ChangePhaseOnlyOpensVoting(t *testing.T) {
	t.Parallel()
	e := newGame(t, 2, 3)

	_, err := e.Apply("p1", game.ChangePhase{Phase: string(PhaseRevealed)})
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)

	_, err = e.Apply("p1", game.ChangePhase{Phase: string(PhaseVoting)})
	require.NoError(t, err)
	assert.Equal(t, PhaseVoting, e.phase)

	_, err = e.Apply("p1", game.ChangePhase{Phase: string(PhaseVoting)})
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)

	_, err = e.Apply(e.speakingOrder[0], game.DoneSpeaking{})
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)
}

func TestHiddenWord_ThreeWayTieStartsNewRound(t *testing.T) {
	t.Parallel()
	e := newGame(t, 3, 3)
	speakAll(t, e)
	_, err := e.Apply("p1", game.ChangePhase{Phase: string(PhaseVoting)})
	require.NoError(t, err)

	_, _ = e.Apply("p1", game.Vote{TargetID: "p2"})
	_, _ = e.Apply("p2", game.Vote{TargetID: "p3"})
	out, err := e.Apply("p3", game.Vote{TargetID: "p1"})
	require.NoError(t, err)

	assert.False(t, out.Finished)
	assert.True(t, e.tied)
	assert.Equal(t, 2, e.round)
	assert.Equal(t, PhaseDiscussion, e.phase)
	assert.Equal(t, 0, e.currentSpeaker)
	assert.Empty(t, e.votes)
	assert.Len(t, e.active, 3)
	assert.Empty(t, e.eliminated)
	assert.Empty(t, e.lastEliminated)
	assert.ElementsMatch(t, e.active, e.speakingOrder)
}

func TestHiddenWord_CatchingHiddenPlayerRevealsCitizensWin(t *testing.T) {
	t.Parallel()
	e := newGame(t, 4, 4)
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseVoting)})

	var out game.Outcome
	for _, id := range e.players {
		var err error
		out, err = e.Apply(id, game.Vote{TargetID: e.hiddenID})
		require.NoError(t, err)
	}

	assert.True(t, out.Finished)
	assert.Equal(t, PhaseRevealed, e.phase)
	assert.Equal(t, WinnerCitizens, e.winner)
	assert.ElementsMatch(t, game.Without(e.players, e.hiddenID), out.Winners)

	view := e.View("p1").(View)
	assert.Equal(t, e.hiddenID, view.MrWhiteID)
	assert.Equal(t, e.word, view.SecretWord)
}

func TestHiddenWord_InnocentEliminatedContinuesThenHiddenWins(t *testing.T) {
	t.Parallel()
	e := newGame(t, 5, 4)
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseVoting)})

	victim := civilians(e)[0]
	for _, id := range slices.Clone(e.active) {
		_, err := e.Apply(id, game.Vote{TargetID: victim})
		require.NoError(t, err)
	}
	assert.Equal(t, victim, e.lastEliminated)
	assert.Equal(t, []string{victim}, e.eliminated)
	assert.NotContains(t, e.active, victim)
	assert.Equal(t, 2, e.round)
	assert.Equal(t, PhaseDiscussion, e.phase)

	_, err := e.Apply(victim, game.Vote{TargetID: e.hiddenID})
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)

	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseVoting)})
	_, err = e.Apply(victim, game.Vote{TargetID: e.hiddenID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction, "eliminated players cannot vote")

	second := civilians(e)[0]
	var out game.Outcome
	for _, id := range slices.Clone(e.active) {
		out, err = e.Apply(id, game.Vote{TargetID: second})
		require.NoError(t, err)
	}
	assert.True(t, out.Finished)
	assert.Equal(t, WinnerMrWhite, e.winner)
	assert.Equal(t, []string{e.hiddenID}, out.Winners)
}

func TestHiddenWord_RejectsInactiveTarget(t *testing.T) {
	t.Parallel()
	e := newGame(t, 6, 3)
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseVoting)})

	_, err := e.Apply("p1", game.Vote{TargetID: "nobody"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)
	assert.Empty(t, e.votes)
}

func TestHiddenWord_Secrets(t *testing.T) {
	t.Parallel()
	e := newGame(t, 7, 3)

	secret, ok := e.Secret(e.hiddenID)
	require.True(t, ok)
	assert.Equal(t, RoleMrWhite, secret.Role)
	assert.Equal(t, "???", secret.Word)

	civ := civilians(e)[0]
	secret, ok = e.Secret(civ)
	require.True(t, ok)
	assert.Equal(t, RoleCivilian, secret.Role)
	assert.Contains(t, Words, secret.Word)

	_, ok = e.Secret("stranger")
	assert.False(t, ok)

	view := e.View(civ).(View)
	assert.Empty(t, view.MrWhiteID)
	assert.Empty(t, view.SecretWord)
}

func TestHiddenWord_HiddenPlayerLeavingEndsGame(t *testing.T) {
	t.Parallel()
	e := newGame(t, 8, 4)

	out := e.RemovePlayer(e.hiddenID)
	assert.True(t, out.Finished)
	assert.Equal(t, WinnerCitizens, e.winner)
	assert.Len(t, out.Winners, 3)
}

func TestHiddenWord_DepartureKeepsSpeakerPointer(t *testing.T) {
	t.Parallel()
	e := newGame(t, 9, 5)

	first := e.speakingOrder[0]
	_, err := e.Apply(first, game.DoneSpeaking{})
	require.NoError(t, err)
	next := e.speakingOrder[1]

	// 已发言的玩家离开：指针跟随列表移动
	out := e.RemovePlayer(first)
	assert.False(t, out.Finished)
	assert.Equal(t, next, e.speakingOrder[e.currentSpeaker])
	assert.NotContains(t, e.active, first)
}

func TestHiddenWord_DepartureCompletesVote(t *testing.T) {
	t.Parallel()
	e := newGame(t, 10, 5)
	_, _ = e.Apply("p1", game.ChangePhase{Phase: string(PhaseVoting)})

	civs := civilians(e)
	victim, leaver := civs[0], civs[len(civs)-1]
	for _, id := range e.active {
		if id == leaver {
			continue
		}
		_, err := e.Apply(id, game.Vote{TargetID: victim})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, e.round)

	e.RemovePlayer(leaver)
	assert.Equal(t, victim, e.lastEliminated)
	assert.Equal(t, 2, e.round)
}
