package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/squashmate/squashmate/internal/config"
)

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "squashmate",
		Short:        "AppImage and Debian package lifecycle manager",
		Long:         `SquashMate installs, upgrades, launches and removes AppImage bundles and local .deb packages, with desktop-menu integration and per-application logs.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewInstallCmd(cfg, log))
	cmd.AddCommand(NewUninstallCmd(cfg, log))
	cmd.AddCommand(NewListCmd(cfg, log))
	cmd.AddCommand(NewLaunchCmd(cfg, log))
	cmd.AddCommand(NewWrapCmd(cfg, log))
	cmd.AddCommand(NewLogsCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}
