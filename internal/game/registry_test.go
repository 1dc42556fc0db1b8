package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/partyhub/internal/apperrors"
)

type stubEngine struct{ players []Player }

func (s *stubEngine) Apply(string, Action) (Outcome, error) { return Outcome{}, nil }
func (s *stubEngine) View(string) any                       { return len(s.players) }
func (s *stubEngine) RemovePlayer(string) Outcome           { return Outcome{} }

func stubFactory(players []Player, _ Env) (Engine, error) {
	return &stubEngine{players: players}, nil
}

func TestRegistry_Start(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(Info{Type: TypeHiddenWord, Title: "Mr. White", MinPlayers: 3, New: stubFactory})

	_, err := r.Start("chess", nil, Env{})
	assert.ErrorIs(t, err, apperrors.ErrUnknownGame)

	_, err = r.Start(TypeHiddenWord, []Player{{ID: "a"}, {ID: "b"}}, Env{})
	require.ErrorIs(t, err, apperrors.ErrNotEnoughPlayers)
	assert.Equal(t, "Need at least 3 players to start Mr. White.", err.Error())

	eng, err := r.Start(TypeHiddenWord, []Player{{ID: "a"}, {ID: "b"}, {ID: "c"}}, Env{})
	require.NoError(t, err)
	assert.Equal(t, 3, eng.View("a"))
}

func TestRegistry_RegisterDefaultsAndDuplicates(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(Info{Type: TypeRace, New: stubFactory})
	r.Register(Info{Type: TypeCardGame, New: stubFactory})

	info, ok := r.Lookup(TypeRace)
	require.True(t, ok)
	assert.Equal(t, "gokart", info.Title)
	assert.Equal(t, []Type{TypeRace, TypeCardGame}, r.Types())

	assert.Panics(t, func() { r.Register(Info{Type: TypeRace, New: stubFactory}) })
}
