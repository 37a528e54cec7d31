package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/huskago/bashautom/internal/shell"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <command...>",
	Short: "Run a command in a fresh session and exit with its status",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		command := strings.Join(args, " ")
		shellPath, _ := cmd.Flags().GetString("shell")
		dir, _ := cmd.Flags().GetString("dir")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		stream, _ := cmd.Flags().GetBool("stream")
		exports, _ := cmd.Flags().GetStringArray("export")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		if timeout == 0 {
			timeout = cfg.DefaultTimeout.Std()
		}

		sess, err := shell.New("", sessionOptions(cfg, shellPath, dir))
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		defer sess.Close()

		for _, kv := range exports {
			key, value, err := parseExport(kv)
			if err != nil {
				return err
			}
			if err := sess.SetVar(key, value); err != nil {
				return fmt.Errorf("export %s: %w", key, err)
			}
		}

		var opts []shell.ExecOption
		if timeout > 0 {
			opts = append(opts, shell.WithTimeout(timeout))
		}
		if stream {
			opts = append(opts, shell.WithStream(func(ev shell.StreamEvent) {
				if ev.Source == shell.Stderr {
					fmt.Fprint(os.Stderr, ev.Data)
				} else {
					fmt.Print(ev.Data)
				}
			}))
		}

		res, err := sess.Execute(command, opts...)
		if err != nil {
			return fmt.Errorf("execute: %w", err)
		}

		store := openStore(cfg, noHistory)
		if store != nil {
			record(store, sess.Name, res)
			store.Close()
		}

		if !stream {
			if res.Stdout != "" {
				fmt.Println(res.Stdout)
			}
			if res.Stderr != "" {
				fmt.Fprintln(os.Stderr, res.Stderr)
			}
		}

		if res.TimedOut {
			log.Warn("command timed out", "command", command, "after", formatDuration(res.Duration))
		}
		if !res.Success() {
			os.Exit(exitStatus(res.ExitCode))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("shell", "", "Shell binary (default from config)")
	runCmd.Flags().StringP("dir", "c", "", "Working directory for the session")
	runCmd.Flags().DurationP("timeout", "t", 0, "Kill the command (not the session) after this long")
	runCmd.Flags().Bool("stream", false, "Print output as it arrives instead of after completion")
	runCmd.Flags().StringArrayP("export", "e", nil, "Export KEY=VALUE into the session before running (repeatable)")
	runCmd.Flags().Bool("no-history", false, "Do not record the command to the history database")
	rootCmd.AddCommand(runCmd)
}
