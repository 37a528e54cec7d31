package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/huskago/bashautom/internal/state"
)

var (
	histOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#116620", Dark: "#50FA7B"})
	histFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B31D28", Dark: "#FF5555"})
	histDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#777777", Dark: "#6272A4"})
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded command executions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		session, _ := cmd.Flags().GetString("session")

		store, err := state.Open()
		if err != nil {
			return fmt.Errorf("open history db: %w", err)
		}
		defer store.Close()

		entries, err := store.Recent(session, limit)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No history recorded.")
			return nil
		}

		for _, e := range entries {
			marker := histOKStyle.Render("✓")
			if e.ExitCode != 0 || e.TimedOut {
				marker = histFailStyle.Render(fmt.Sprintf("✗ %d", e.ExitCode))
			}
			suffix := ""
			if e.TimedOut {
				suffix = histFailStyle.Render(" (timed out)")
			}
			meta := histDimStyle.Render(fmt.Sprintf("[%s · %s · %s]",
				e.Created.Format("2006-01-02 15:04"), e.Session, formatDuration(e.Duration)))
			fmt.Printf("%s  %s %s%s\n", meta, marker, e.Command, suffix)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().StringP("session", "s", "", "Only show entries for this session name")
	rootCmd.AddCommand(historyCmd)
}
