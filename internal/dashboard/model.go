// Package dashboard 运维面板：轮询 HTTP 接口，展示运行中的房间和排行榜。
package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/partyhub/internal/server"
	"github.com/palemoky/partyhub/internal/server/storage"
)

const (
	fetchTimeout = 3 * time.Second
	tableHeight  = 10
)

// refreshMsg 一次轮询两个接口的结果
type refreshMsg struct {
	rooms    *server.RoomsResponse
	board    *server.LeaderboardResponse
	roomsErr error
	boardErr error
	at       time.Time
}

type tickMsg time.Time

// Model 面板的 bubbletea 模型
type Model struct {
	api      *API
	interval time.Duration
	board    string
	limit    int

	rooms      table.Model
	leaders    table.Model
	boardInput textinput.Model
	editing    bool

	summary    *server.RoomsResponse
	roomsErr   error
	boardErr   error
	lastUpdate time.Time
}

// NewModel 创建每隔 interval 轮询一次的面板
func NewModel(api *API, interval time.Duration, board string, limit int) *Model {
	if board == "" {
		board = storage.BoardTotal
	}

	rooms := table.New(
		table.WithColumns([]table.Column{
			{Title: "Code", Width: 6},
			{Title: "Game", Width: 14},
			{Title: "State", Width: 10},
			{Title: "Players", Width: 8},
			{Title: "Age", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(tableHeight),
	)
	leaders := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Player", Width: 20},
			{Title: "Score", Width: 8},
			{Title: "Wins", Width: 6},
			{Title: "Win %", Width: 7},
		}),
		table.WithHeight(tableHeight),
	)
	styles := table.DefaultStyles()
	styles.Header = headerStyle
	styles.Selected = selectedStyle
	rooms.SetStyles(styles)
	leaders.SetStyles(styles)

	input := textinput.New()
	input.Placeholder = "total, daily or a game id"
	input.CharLimit = 20
	input.Width = 24

	return &Model{
		api:        api,
		interval:   interval,
		board:      board,
		limit:      limit,
		rooms:      rooms,
		leaders:    leaders,
		boardInput: input,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// fetch 在 UI 协程之外轮询两个接口
func (m *Model) fetch() tea.Cmd {
	api, board, limit := m.api, m.board, m.limit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		msg := refreshMsg{at: time.Now()}
		msg.rooms, msg.roomsErr = api.Rooms(ctx)
		msg.board, msg.boardErr = api.Leaderboard(ctx, board, limit)
		return msg
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())
	case refreshMsg:
		m.apply(msg)
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m, m.handleEditKey(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "r":
		return m.fetch()
	case "tab":
		if m.rooms.Focused() {
			m.rooms.Blur()
			m.leaders.Focus()
		} else {
			m.leaders.Blur()
			m.rooms.Focus()
		}
		return nil
	case "b":
		m.editing = true
		m.boardInput.SetValue(m.board)
		return m.boardInput.Focus()
	}

	var cmd tea.Cmd
	if m.rooms.Focused() {
		m.rooms, cmd = m.rooms.Update(msg)
	} else {
		m.leaders, cmd = m.leaders.Update(msg)
	}
	return cmd
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.editing = false
		m.boardInput.Blur()
		if v := m.boardInput.Value(); v != "" && v != m.board {
			m.board = v
			m.leaders.SetRows(nil)
			return m.fetch()
		}
		return nil
	case tea.KeyEsc:
		m.editing = false
		m.boardInput.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.boardInput, cmd = m.boardInput.Update(msg)
	return cmd
}

// apply 把轮询结果写入表格；失败的接口保留上一次的数据
func (m *Model) apply(msg refreshMsg) {
	m.lastUpdate = msg.at
	m.roomsErr, m.boardErr = msg.roomsErr, msg.boardErr

	if msg.rooms != nil {
		m.summary = msg.rooms
		rows := make([]table.Row, 0, len(msg.rooms.Rooms))
		for _, r := range msg.rooms.Rooms {
			rows = append(rows, table.Row{
				r.Code,
				string(r.Game),
				string(r.State),
				strconv.Itoa(r.Players),
				age(msg.at.Sub(r.CreatedAt)),
			})
		}
		m.rooms.SetRows(rows)
	}

	if msg.board != nil && msg.board.Board == m.board {
		rows := make([]table.Row, 0, len(msg.board.Entries))
		for _, e := range msg.board.Entries {
			rows = append(rows, table.Row{
				strconv.Itoa(e.Rank),
				e.Name,
				strconv.Itoa(e.Score),
				strconv.Itoa(e.Wins),
				fmt.Sprintf("%.0f%%", e.WinRate),
			})
		}
		m.leaders.SetRows(rows)
	}
}

// age 粗略显示时长：42s、7m、3h
func age(d time.Duration) string {
	d = max(d, 0)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
