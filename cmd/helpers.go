package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/huskago/bashautom/internal/config"
	"github.com/huskago/bashautom/internal/shell"
	"github.com/huskago/bashautom/internal/state"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// sessionOptions merges config defaults with per-command flag overrides.
func sessionOptions(cfg *config.Config, shellPath, dir string) shell.Options {
	if shellPath == "" {
		shellPath = cfg.Shell
	}
	return shell.Options{
		Shell:       shellPath,
		Env:         cfg.SessionEnv(),
		Dir:         dir,
		GracePeriod: cfg.GracePeriod.Std(),
	}
}

// openStore returns the history store, or nil when recording is
// disabled or the database can't be opened. Recording is best effort.
func openStore(cfg *config.Config, disabled bool) *state.Store {
	if disabled || !cfg.HistoryEnabled() {
		return nil
	}
	store, err := state.Open()
	if err != nil {
		log.Warn("history recording disabled", "err", err)
		return nil
	}
	return store
}

// record persists one result, logging instead of failing.
func record(store *state.Store, session string, res *shell.CommandResult) {
	if store == nil {
		return
	}
	if err := store.Record(session, res); err != nil {
		log.Warn("failed to record history", "err", err)
	}
}

// parseExport splits a KEY=VALUE flag argument.
func parseExport(s string) (key, value string, err error) {
	idx := strings.IndexByte(s, '=')
	if idx <= 0 {
		return "", "", fmt.Errorf("invalid export %q: want KEY=VALUE", s)
	}
	return s[:idx], s[idx+1:], nil
}

// exitStatus maps an engine exit code to a process exit code. The
// engine's -1 sentinel (code never recovered) becomes 1.
func exitStatus(code int) int {
	if code < 0 || code > 255 {
		return 1
	}
	return code
}

// formatDuration formats a duration using only the largest unit.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
