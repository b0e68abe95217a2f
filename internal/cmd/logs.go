package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/ui"
)

// NewLogsCmd creates the logs command
func NewLogsCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		lines     int
		clearLog  bool
		debEvents bool
	)

	cmd := &cobra.Command{
		Use:   "logs [name]",
		Short: "Show the main log or a per-application log",
		Long: `Without a name, print the tail of the main operations log. With a
name, print that application's launch and install history. --deb shows
the native package operations log instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newServices(cfg, log)
			out := cmd.OutOrStdout()

			if clearLog {
				if len(args) != 1 {
					return fmt.Errorf("--clear requires an application name")
				}
				if err := svc.appLogs.RemoveAppLog(args[0]); err != nil {
					ui.PrintError("failed to clear log for %s: %v", args[0], err)
					return err
				}
				ui.PrintSuccess("Log history for %s cleared", args[0])
				return nil
			}

			if len(args) == 1 {
				content, err := svc.appLogs.ReadAppLog(args[0])
				if err != nil {
					ui.PrintError("%v", err)
					return err
				}
				if content == "" {
					ui.PrintInfo("No log entries for %s", args[0])
					return nil
				}
				fmt.Fprint(out, tailLines(content, lines))
				return nil
			}

			path := cfg.Paths.LogFile
			if debEvents {
				path = svc.appLogs.DebLogPath()
			}
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					ui.PrintInfo("No log entries yet")
					return nil
				}
				ui.PrintError("failed to read %s: %v", path, err)
				return err
			}
			fmt.Fprint(out, tailLines(string(data), lines))
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of trailing lines to show")
	cmd.Flags().BoolVar(&clearLog, "clear", false, "delete an application's log history")
	cmd.Flags().BoolVar(&debEvents, "deb", false, "show the native package operations log")

	return cmd
}

// tailLines returns the last n lines of content, or all of it when
// n <= 0 or content is shorter.
func tailLines(content string, n int) string {
	if n <= 0 || content == "" {
		return content
	}

	trimmed := strings.TrimRight(content, "\n")
	all := strings.Split(trimmed, "\n")
	if len(all) <= n {
		return content
	}
	return strings.Join(all[len(all)-n:], "\n") + "\n"
}
