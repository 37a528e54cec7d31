package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/huskago/bashautom/internal/shell"
	"github.com/huskago/bashautom/internal/tui"
)

func SetVersionInfo(version, commit string) {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
}

var rootCmd = &cobra.Command{
	Use:   "bashautom",
	Short: "Drive persistent bash sessions command-by-command",
	Long: `bashautom keeps a bash subprocess alive between commands, so working
directory, exported variables, and shell functions persist across calls.
Run without arguments for an interactive REPL; use the run and script
subcommands for one-shot automation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		shellPath, _ := cmd.Flags().GetString("shell")
		dir, _ := cmd.Flags().GetString("dir")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		sess, err := shell.New(name, sessionOptions(cfg, shellPath, dir))
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		defer sess.Close()

		store := openStore(cfg, noHistory)
		if store != nil {
			defer store.Close()
		}

		if timeout == 0 {
			timeout = cfg.DefaultTimeout.Std()
		}

		m := tui.NewModel(sess, store, timeout)
		p := tea.NewProgram(m, tea.WithAltScreen())

		finalModel, err := p.Run()
		if err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return finalModel.(tui.Model).Err()
	},
}

func init() {
	rootCmd.Flags().StringP("name", "n", "", "Session name (generated if empty)")
	rootCmd.Flags().String("shell", "", "Shell binary (default from config)")
	rootCmd.Flags().StringP("dir", "c", "", "Initial working directory")
	rootCmd.Flags().DurationP("timeout", "t", 0, "Per-command timeout (default from config)")
	rootCmd.Flags().Bool("no-history", false, "Do not record commands to the history database")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
