package room

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
	"github.com/palemoky/partyhub/internal/game/games"
	"github.com/palemoky/partyhub/internal/game/hiddenword"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(games.Default(), 0, rand.New(rand.NewPCG(1, 1)))
}

func testEnv() game.Env {
	return game.Env{Rand: rand.New(rand.NewPCG(2, 2))}
}

// lobby 由 p1 创建房间，其余 id 依次加入
func lobby(t *testing.T, r *Registry, gameType game.Type, ids ...string) *Room {
	t.Helper()
	room, err := r.Create("p1", "Name-p1", gameType)
	require.NoError(t, err)
	for _, id := range ids {
		_, err := r.Join(id, "Name-"+id, room.Code)
		require.NoError(t, err)
	}
	return room
}

// playing 以 p1 为房主开始 gameType，并加入额外玩家
func playing(t *testing.T, r *Registry, gameType game.Type, ids ...string) *Room {
	t.Helper()
	room := lobby(t, r, gameType, ids...)
	_, _, err := r.PrepareStart(room.Code, "p1")
	require.NoError(t, err)
	require.NoError(t, r.Launch(room, testEnv()))
	return room
}

func TestCreate(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	room, err := r.Create("p1", "  Ann ", "")
	require.NoError(t, err)
	assert.Len(t, room.Code, roomCodeLength)
	assert.Equal(t, strings.ToUpper(room.Code), room.Code)
	assert.Equal(t, game.TypeQuiz, room.GameType)
	assert.Equal(t, StateLobby, room.State)
	require.Len(t, room.Players, 1)
	assert.Equal(t, Player{ID: "p1", Name: "Ann", IsHost: true}, *room.Players[0])

	got, ok := r.RoomOf("p1")
	require.True(t, ok)
	assert.Same(t, room, got)
}

func TestCreate_Errors(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	_, err := r.Create("p1", "   ", game.TypeQuiz)
	assert.ErrorIs(t, err, apperrors.ErrInvalidName)
	_, err = r.Create("p1", strings.Repeat("x", maxNameLength+1), game.TypeQuiz)
	assert.ErrorIs(t, err, apperrors.ErrInvalidName)
	_, err = r.Create("p1", "Ann", "chess")
	assert.ErrorIs(t, err, apperrors.ErrUnknownGame)

	_, err = r.Create("p1", "Ann", game.TypeQuiz)
	require.NoError(t, err)
	_, err = r.Create("p1", "Ann", game.TypeQuiz)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyInRoom)
}

func TestCreate_CodesAreUnique(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := range 500 {
		room, err := r.Create(fmt.Sprintf("p%d", i), "Ann", game.TypeCardGame)
		require.NoError(t, err)
		assert.False(t, seen[room.Code], room.Code)
		seen[room.Code] = true
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeQuiz)

	got, err := r.Join("p2", "Bob", strings.ToLower(room.Code))
	require.NoError(t, err)
	assert.Same(t, room, got)
	assert.Equal(t, []string{"p1", "p2"}, room.IDs())
	assert.False(t, room.IsHost("p2"))
}

func TestJoin_Errors(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeQuiz, "p2")

	_, err := r.Join("p3", "Cat", "ZZZZ")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)

	_, err = r.Join("p3", "Name-p2", room.Code)
	assert.ErrorIs(t, err, apperrors.ErrNameTaken)

	_, err = r.Join("p2", "Other", room.Code)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyInRoom)

	_, err = r.Join("p3", "", room.Code)
	assert.ErrorIs(t, err, apperrors.ErrInvalidName)

	room.Starting = true
	_, err = r.Join("p3", "Cat", room.Code)
	assert.ErrorIs(t, err, apperrors.ErrGameStarted)

	room.Starting = false
	room.State = StatePlaying
	_, err = r.Join("p3", "Cat", room.Code)
	assert.ErrorIs(t, err, apperrors.ErrGameStarted)
}

func TestJoin_Full(t *testing.T) {
	t.Parallel()
	r := NewRegistry(games.Default(), 3, rand.New(rand.NewPCG(1, 1)))
	room := lobby(t, r, game.TypeQuiz, "p2", "p3")

	_, err := r.Join("p4", "Dan", room.Code)
	require.ErrorIs(t, err, apperrors.ErrRoomFull)
	assert.Equal(t, "Room is full (max 3)", err.Error())
	assert.Len(t, room.Players, 3)
}

func TestChangeGame(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeQuiz, "p2")

	_, err := r.ChangeGame(room.Code, "p2", game.TypeCardGame)
	assert.ErrorIs(t, err, apperrors.ErrNotHost)
	_, err = r.ChangeGame(room.Code, "p1", "chess")
	assert.ErrorIs(t, err, apperrors.ErrUnknownGame)
	_, err = r.ChangeGame("ZZZZ", "p1", game.TypeCardGame)
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
	assert.Equal(t, game.TypeQuiz, room.GameType)

	_, err = r.ChangeGame(room.Code, "p1", game.TypeCardGame)
	require.NoError(t, err)
	assert.Equal(t, game.TypeCardGame, room.GameType)

	require.NoError(t, r.Launch(room, testEnv()))
	_, err = r.ChangeGame(room.Code, "p1", game.TypeQuiz)
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)
}

func TestPrepareStart(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeHiddenWord, "p2")

	_, _, err := r.PrepareStart(room.Code, "p2")
	assert.ErrorIs(t, err, apperrors.ErrNotHost)

	_, _, err = r.PrepareStart(room.Code, "p1")
	require.ErrorIs(t, err, apperrors.ErrNotEnoughPlayers)
	assert.Equal(t, "Need at least 3 players to start Mr. White.", err.Error())

	_, err = r.Join("p3", "Cat", room.Code)
	require.NoError(t, err)
	_, info, err := r.PrepareStart(room.Code, "p1")
	require.NoError(t, err)
	assert.Equal(t, game.TypeHiddenWord, info.Type)
	assert.Equal(t, StateLobby, room.State, "validation alone does not start")
}

func TestLaunch(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := playing(t, r, game.TypeHiddenWord, "p2", "p3")

	assert.Equal(t, StatePlaying, room.State)
	require.NotNil(t, room.Game)
	_, ok := room.Game.(*hiddenword.Engine)
	assert.True(t, ok)

	_, _, err := r.PrepareStart(room.Code, "p1")
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)
}

func TestLaunch_RosterShrankWhileStarting(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeQuiz, "p2")
	room.Starting = true
	r.Leave("p2")

	err := r.Launch(room, testEnv())
	assert.ErrorIs(t, err, apperrors.ErrNotEnoughPlayers)
	assert.False(t, room.Starting)
	assert.Equal(t, StateLobby, room.State)
	assert.Nil(t, room.Game)
}

func TestApply_SyncsScoresAndFinish(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := playing(t, r, game.TypeQuiz, "p2")

	_, err := room.Apply("p9", game.SubmitAnswer{Index: 0})
	assert.ErrorIs(t, err, apperrors.ErrNotInRoom)

	var finished bool
	for !finished {
		view := room.Snapshot("p1").GameState
		require.NotNil(t, view)
		for _, id := range room.IDs() {
			out, err := room.Apply(id, game.SubmitAnswer{Index: 0})
			require.NoError(t, err)
			finished = finished || out.Finished
		}
	}

	assert.Equal(t, StateFinished, room.State)
	scorer := room.Game.(game.Scorer)
	for _, p := range room.Players {
		assert.Equal(t, scorer.Scores()[p.ID], p.Score)
	}

	_, err = room.Apply("p1", game.SubmitAnswer{Index: 0})
	assert.ErrorIs(t, err, apperrors.ErrGameNotPlaying)
}

func TestReturnToLobby(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeCardGame, "p2")

	_, err := r.ReturnToLobby(room.Code, "p1")
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)

	require.NoError(t, r.Launch(room, testEnv()))
	room.Players[1].Score = 300

	_, err = r.ReturnToLobby(room.Code, "p2")
	assert.ErrorIs(t, err, apperrors.ErrNotHost)

	_, err = r.ReturnToLobby(room.Code, "p1")
	require.NoError(t, err)
	assert.Equal(t, StateLobby, room.State)
	assert.Nil(t, room.Game)
	assert.Zero(t, room.Players[1].Score)
	assert.Nil(t, room.Snapshot("p1").GameState)
}

func TestLeave_PromotesFirstPlayer(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeQuiz, "p2", "p3")

	deps := r.Leave("p1")
	require.Len(t, deps, 1)
	assert.False(t, deps[0].Deleted)
	assert.Equal(t, "p2", deps[0].NewHost)
	assert.True(t, room.IsHost("p2"))
	assert.False(t, room.IsHost("p3"))

	_, ok := r.RoomOf("p1")
	assert.False(t, ok)

	deps = r.Leave("p3")
	require.Len(t, deps, 1)
	assert.Empty(t, deps[0].NewHost)
}

func TestLeave_DeletesEmptyRoom(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeQuiz)

	deps := r.Leave("p1")
	require.Len(t, deps, 1)
	assert.True(t, deps[0].Deleted)
	_, ok := r.Get(room.Code)
	assert.False(t, ok)

	assert.Empty(t, r.Leave("p1"))
}

func TestLeave_LastOpponentEndsBoardGame(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := playing(t, r, game.TypeSnakeLadder, "p2")

	deps := r.Leave("p2")
	require.Len(t, deps, 1)
	assert.True(t, deps[0].Outcome.Finished)
	assert.Equal(t, []string{"p1"}, deps[0].Outcome.Winners)
	assert.Equal(t, StateFinished, room.State)

	// 已结束的房间在房主返回大厅之前拒绝加入
	_, err := r.Join("p3", "Cat", room.Code)
	assert.ErrorIs(t, err, apperrors.ErrGameStarted)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	room := lobby(t, r, game.TypeCardGame, "p2")

	snap := room.Snapshot("p1")
	assert.Equal(t, room.Code, snap.Code)
	assert.Equal(t, "uno", snap.GameType)
	assert.Equal(t, "lobby", snap.State)
	assert.Nil(t, snap.GameState)
	require.Len(t, snap.Players, 2)
	assert.True(t, snap.Players[0].IsHost)

	data := room.ToRoomData()
	assert.Equal(t, room.Code, data.Code)
	assert.Equal(t, "uno", data.Game)
	assert.Len(t, data.Players, 2)
}

func TestListAndStats(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	playing(t, r, game.TypeCardGame, "p2")
	_, err := r.Create("p3", "Cat", game.TypeRace)
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, Stats{Rooms: 2, ActiveGames: 1, Players: 3}, r.Stats())
}
