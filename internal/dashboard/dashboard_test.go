package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/partyhub/internal/game"
	"github.com/palemoky/partyhub/internal/game/room"
	"github.com/palemoky/partyhub/internal/server"
	"github.com/palemoky/partyhub/internal/server/storage"
)

var created = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func sampleRooms() *server.RoomsResponse {
	return &server.RoomsResponse{
		Online: 3,
		Stats:  room.Stats{Rooms: 1, ActiveGames: 1, Players: 3},
		Rooms: []room.Summary{
			{Code: "ABCD", Game: game.TypeCardGame, State: room.StatePlaying, Players: 3, CreatedAt: created},
		},
	}
}

func newTestAPI(t *testing.T) *API {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sampleRooms())
	})
	mux.HandleFunc("/api/leaderboard/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/leaderboard/total" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(server.LeaderboardResponse{
			Board:   "total",
			Entries: []storage.LeaderboardEntry{{Rank: 1, Name: "Ann", Score: 11, Wins: 1, WinRate: 50}},
		})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return NewAPI(ts.URL+"/", time.Second)
}

func TestAPI(t *testing.T) {
	api := newTestAPI(t)
	ctx := t.Context()

	rooms, err := api.Rooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rooms.Online)
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, "ABCD", rooms.Rooms[0].Code)

	board, err := api.Leaderboard(ctx, "total", 5)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Ann", board.Entries[0].Name)

	_, err = api.Leaderboard(ctx, "uno", 5)
	assert.ErrorContains(t, err, "404")
}

func TestModel_Fetch(t *testing.T) {
	m := NewModel(newTestAPI(t), time.Second, "", 5)

	msg, ok := m.fetch()().(refreshMsg)
	require.True(t, ok)
	require.NoError(t, msg.roomsErr)
	require.NoError(t, msg.boardErr)

	m.Update(msg)
	require.Len(t, m.rooms.Rows(), 1)
	assert.Equal(t, "ABCD", m.rooms.Rows()[0][0])
	assert.Equal(t, "uno", m.rooms.Rows()[0][1])
	require.Len(t, m.leaders.Rows(), 1)
	assert.Equal(t, "50%", m.leaders.Rows()[0][4])
	assert.Contains(t, m.View(), "online 3")
}

func TestModel_FailedPollKeepsRows(t *testing.T) {
	m := NewModel(NewAPI("http://unused", time.Second), time.Second, "total", 5)
	m.Update(refreshMsg{rooms: sampleRooms(), at: created.Add(90 * time.Second)})
	require.Len(t, m.rooms.Rows(), 1)
	assert.Equal(t, "1m", m.rooms.Rows()[0][4])

	m.Update(refreshMsg{roomsErr: errors.New("connection refused"), at: created.Add(time.Hour)})
	assert.Len(t, m.rooms.Rows(), 1)
	assert.Contains(t, m.View(), "connection refused")
}

func TestModel_StaleBoardIgnored(t *testing.T) {
	m := NewModel(NewAPI("http://unused", time.Second), time.Second, "uno", 5)
	m.Update(refreshMsg{board: &server.LeaderboardResponse{
		Board:   "total",
		Entries: []storage.LeaderboardEntry{{Rank: 1, Name: "Ann"}},
	}})
	assert.Empty(t, m.leaders.Rows())
}

func TestModel_EditBoard(t *testing.T) {
	m := NewModel(NewAPI("http://unused", time.Second), time.Second, "total", 5)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	require.True(t, m.editing)
	assert.Equal(t, "total", m.boardInput.Value())

	m.boardInput.SetValue("ludo")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.editing)
	assert.Equal(t, "ludo", m.board)
	assert.NotNil(t, cmd)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	m.boardInput.SetValue("daily")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "ludo", m.board)
}

func TestModel_TabSwitchesFocus(t *testing.T) {
	m := NewModel(NewAPI("http://unused", time.Second), time.Second, "total", 5)
	require.True(t, m.rooms.Focused())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.rooms.Focused())
	assert.True(t, m.leaders.Focused())
}

func TestAge(t *testing.T) {
	assert.Equal(t, "0s", age(-time.Second))
	assert.Equal(t, "42s", age(42*time.Second))
	assert.Equal(t, "7m", age(7*time.Minute+10*time.Second))
	assert.Equal(t, "3h", age(3*time.Hour))
}
