package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/palemoky/partyhub/internal/dashboard"
	"github.com/palemoky/partyhub/internal/server/storage"
)

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
		board    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "partytop",
		Short: "Terminal dashboard for a running partyhub server.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			api := dashboard.NewAPI(addr, 3*time.Second)
			model := dashboard.NewModel(api, interval, board, limit)
			_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&addr, "addr", "a", "http://localhost:1780", "server base URL")
	fs.DurationVarP(&interval, "interval", "i", 2*time.Second, "refresh interval")
	fs.StringVarP(&board, "board", "b", storage.BoardTotal, "leaderboard: total, daily or a game id")
	fs.IntVarP(&limit, "limit", "n", 10, "leaderboard rows")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceUsage = true
	return cmd
}
