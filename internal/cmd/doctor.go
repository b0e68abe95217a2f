package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/db"
	"github.com/squashmate/squashmate/internal/fsops"
	"github.com/squashmate/squashmate/internal/helpers"
	"github.com/squashmate/squashmate/internal/ui"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system dependencies and integration health",
		Long: `Check the external tools squashmate relies on, the managed
directories, the tracking database, and the desktop integration state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := newServices(cfg, log)

			ui.PrintHeader("System Diagnostics")

			var issues []string
			var warnings []string

			ui.PrintSubheader("Bundle Tools")
			bundleTools := []toolCheck{
				{"unsquashfs", "extract AppImage bundles without FUSE", false},
			}
			checkTools(svc.runner, bundleTools, &issues, &warnings)

			ui.PrintSubheader("Native Package Tools")
			debTools := []toolCheck{
				{"dpkg", "install .deb packages", true},
				{"apt-get", "resolve .deb dependencies", true},
				{"dpkg-deb", "read .deb metadata (built-in fallback otherwise)", false},
			}
			checkTools(svc.runner, debTools, &issues, &warnings)

			if escalator, err := svc.provider.Escalator(); err == nil {
				ui.PrintSuccess("privilege escalation: %s", escalator)
			} else {
				ui.PrintError("privilege escalation: neither pkexec nor sudo found")
				issues = append(issues, "no privilege escalation command available")
			}

			ui.PrintSubheader("Desktop Integration Tools")
			desktopTools := []toolCheck{
				{"update-desktop-database", "refresh the application menu", false},
				{"gtk4-update-icon-cache", "refresh the icon cache", false},
			}
			checkTools(svc.runner, desktopTools, &issues, &warnings)

			ui.PrintSubheader("Directories")
			checkDirs(svc, cfg, &issues)

			ui.PrintSubheader("Desktop Integration")
			if svc.desktopMgr.HasWrapper() {
				ui.PrintSuccess("launch wrapper installed: %s", svc.resolver.WrapperPath())
			} else {
				ui.PrintInfo("launch wrapper not installed yet (written on first install)")
			}

			ui.PrintSubheader("Tracking Database")
			tracker, err := db.Open(ctx, svc.resolver.DBFile())
			if err != nil {
				ui.PrintError("database: not accessible (%v)", err)
				issues = append(issues, fmt.Sprintf("cannot open tracking database: %v", err))
			} else {
				ui.PrintSuccess("database: accessible (%s)", svc.resolver.DBFile())
				if tracked, err := tracker.List(ctx); err != nil {
					warnings = append(warnings, fmt.Sprintf("cannot list tracked packages: %v", err))
					ui.PrintWarning("cannot list tracked packages: %v", err)
				} else {
					ui.PrintInfo("tracked packages: %d", len(tracked))
				}
				tracker.Close()
			}

			fmt.Println()
			ui.PrintHeader("Summary")

			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed")
			} else {
				ui.PrintError("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
			}
			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(warnings))
				ui.PrintList(warnings)
			}

			if len(issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(issues))
			}
			return nil
		},
	}

	return cmd
}

type toolCheck struct {
	command  string
	purpose  string
	required bool
}

func checkTools(runner helpers.CommandRunner, tools []toolCheck, issues, warnings *[]string) {
	for _, tool := range tools {
		if runner.CommandExists(tool.command) {
			ui.PrintSuccess("%s: found", tool.command)
			continue
		}
		if tool.required {
			ui.PrintError("%s: NOT FOUND (%s)", tool.command, tool.purpose)
			*issues = append(*issues, fmt.Sprintf("missing required tool: %s (%s)", tool.command, tool.purpose))
		} else {
			ui.PrintWarning("%s: not found (%s)", tool.command, tool.purpose)
			*warnings = append(*warnings, fmt.Sprintf("missing optional tool: %s", tool.command))
		}
	}
}

func checkDirs(svc *services, cfg *config.Config, issues *[]string) {
	dirs := []struct {
		path string
		name string
	}{
		{svc.resolver.AppsRoot(), "applications root"},
		{svc.resolver.DataDir(), "data directory"},
		{svc.resolver.DesktopDir(), "desktop entry directory"},
		{svc.resolver.BinDir(), "wrapper directory"},
	}

	for _, dir := range dirs {
		if err := fsops.EnsureDir(svc.fs, dir.path, 0o755); err != nil {
			ui.PrintError("%s: cannot create (%s)", dir.name, dir.path)
			*issues = append(*issues, fmt.Sprintf("%s not creatable: %s", dir.name, dir.path))
			continue
		}
		if err := fsops.CheckWritable(svc.fs, dir.path); err != nil {
			ui.PrintError("%s: NOT WRITABLE (%s)", dir.name, dir.path)
			*issues = append(*issues, fmt.Sprintf("%s not writable: %s", dir.name, dir.path))
			continue
		}
		ui.PrintSuccess("%s: %s", dir.name, dir.path)
	}
}
