package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	docStyle      = lipgloss.NewStyle().Margin(1, 2)
)

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("partyhub"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.api.BaseURL))
	b.WriteString("\n")
	b.WriteString(m.summaryLine())
	b.WriteString("\n\n")

	rooms := boxStyle.Render(titleStyle.Render("Rooms") + "\n" + m.rooms.View())
	leaders := boxStyle.Render(titleStyle.Render("Leaderboard: "+m.board) + "\n" + m.leaders.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rooms, " ", leaders))
	b.WriteString("\n")

	if m.roomsErr != nil {
		b.WriteString(errorStyle.Render("rooms: " + m.roomsErr.Error()))
		b.WriteString("\n")
	}
	if m.boardErr != nil {
		b.WriteString(dimStyle.Render("leaderboard: " + m.boardErr.Error()))
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString("board: ")
		b.WriteString(m.boardInput.View())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter apply • esc cancel"))
	} else {
		b.WriteString(dimStyle.Render("tab switch table • b board • r refresh • q quit"))
	}
	return docStyle.Render(b.String())
}

func (m *Model) summaryLine() string {
	if m.summary == nil {
		return dimStyle.Render("waiting for first update...")
	}
	line := fmt.Sprintf("online %d • rooms %d • active games %d • players %d • updated %s",
		m.summary.Online,
		m.summary.Stats.Rooms,
		m.summary.Stats.ActiveGames,
		m.summary.Stats.Players,
		m.lastUpdate.Format("15:04:05"))
	if m.summary.Maintenance {
		line += "  " + warnStyle.Render("MAINTENANCE")
	}
	return line
}
