package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huskago/bashautom/internal/shell"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file>",
	Short: "Run a file line-by-line through one persistent session",
	Long: `Runs each non-blank, non-comment line of the file as a separate command
in a single session, so cd, exports, and shell functions defined by one
line are visible to the next. Stops at the first failing line unless
--keep-going is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		shellPath, _ := cmd.Flags().GetString("shell")
		dir, _ := cmd.Flags().GetString("dir")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		keepGoing, _ := cmd.Flags().GetBool("keep-going")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		if timeout == 0 {
			timeout = cfg.DefaultTimeout.Std()
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		sess, err := shell.New("", sessionOptions(cfg, shellPath, dir))
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		defer sess.Close()

		store := openStore(cfg, noHistory)
		if store != nil {
			defer store.Close()
		}

		var opts []shell.ExecOption
		if timeout > 0 {
			opts = append(opts, shell.WithTimeout(timeout))
		}

		failed := 0
		lineNo := 0
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			res, err := sess.Execute(line, opts...)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			record(store, sess.Name, res)

			if res.Stdout != "" {
				fmt.Println(res.Stdout)
			}
			if res.Stderr != "" {
				fmt.Fprintln(os.Stderr, res.Stderr)
			}

			if !res.Success() {
				failed++
				if !keepGoing {
					return fmt.Errorf("line %d: %q exited %d%s",
						lineNo, line, res.ExitCode, timeoutSuffix(res))
				}
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}

		if failed > 0 {
			return fmt.Errorf("%d command(s) failed", failed)
		}
		return nil
	},
}

func timeoutSuffix(res *shell.CommandResult) string {
	if res.TimedOut {
		return " (timed out)"
	}
	return ""
}

func init() {
	scriptCmd.Flags().String("shell", "", "Shell binary (default from config)")
	scriptCmd.Flags().StringP("dir", "c", "", "Working directory for the session")
	scriptCmd.Flags().DurationP("timeout", "t", 0, "Per-line timeout")
	scriptCmd.Flags().BoolP("keep-going", "k", false, "Continue past failing lines")
	scriptCmd.Flags().Bool("no-history", false, "Do not record commands to the history database")
	rootCmd.AddCommand(scriptCmd)
}
