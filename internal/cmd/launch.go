package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/launch"
	"github.com/squashmate/squashmate/internal/registry"
	"github.com/squashmate/squashmate/internal/ui"
)

// NewLaunchCmd creates the launch command
func NewLaunchCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <name> [-- args...]",
		Short: "Launch a managed application",
		Long: `Launch a managed application detached from the terminal. Arguments
after -- are passed to the application unchanged. The command returns
once the application survives its startup window.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := newServices(cfg, log)

			app, err := findApplication(cmd, svc, log, args[0])
			if err != nil {
				return err
			}

			runner := launch.NewRunner(cfg, svc.appLogs, log)
			if err := runner.Launch(ctx, app, core.TagDirectLaunch, args[1:]); err != nil {
				ui.PrintError("failed to launch %s: %v", app.Name, err)
				return err
			}

			ui.PrintSuccess("%s launched", app.Name)
			return nil
		},
	}

	return cmd
}

// NewWrapCmd creates the hidden wrap command the shared desktop wrapper
// script invokes. It behaves like launch but records the event as a
// desktop launch.
func NewWrapCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:    "wrap <name> [args...]",
		Hidden: true,
		Args:   cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := newServices(cfg, log)

			app, err := findApplication(cmd, svc, log, args[0])
			if err != nil {
				return err
			}

			runner := launch.NewRunner(cfg, svc.appLogs, log)
			return runner.Launch(ctx, app, core.TagDesktopLaunch, args[1:])
		},
	}
}

// findApplication resolves a managed application by name. Native
// packages are rejected here; they have nothing to execute.
func findApplication(cmd *cobra.Command, svc *services, log *zerolog.Logger, name string) (*core.ManagedApplication, error) {
	// The application roster lives on the filesystem, so no tracking
	// database is needed to resolve a launch target.
	reg := registry.New(svc.fs, svc.resolver, nil, svc.provider, svc.desktopMgr, svc.appLogs, log)

	item, err := reg.Find(cmd.Context(), name)
	if err != nil {
		ui.PrintError("%v", err)
		return nil, err
	}
	if !item.Launchable() {
		ui.PrintError("%s is a native package, not a launchable application", name)
		return nil, fmt.Errorf("%s is not launchable", name)
	}
	return item.App, nil
}
