package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/db"
	"github.com/squashmate/squashmate/internal/deb"
	"github.com/squashmate/squashmate/internal/extract"
	"github.com/squashmate/squashmate/internal/fsops"
	"github.com/squashmate/squashmate/internal/helpers"
	"github.com/squashmate/squashmate/internal/icons"
	"github.com/squashmate/squashmate/internal/plan"
	"github.com/squashmate/squashmate/internal/security"
	"github.com/squashmate/squashmate/internal/transaction"
	"github.com/squashmate/squashmate/internal/ui"
)

// NewInstallCmd creates the install command
func NewInstallCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		customName  string
		skipDesktop bool
		timeoutSecs int
	)

	cmd := &cobra.Command{
		Use:   "install <file>",
		Short: "Install an AppImage bundle or a local .deb package",
		Long: `Install a package from a local file. AppImage bundles are extracted
into the managed applications directory with a desktop-menu entry;
.deb files are handed to the system package manager and verified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packagePath := args[0]

			if _, err := os.Stat(packagePath); err != nil {
				ui.PrintError("file not found: %s", packagePath)
				return fmt.Errorf("package not found: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutSecs)*time.Second)
			defer cancel()

			svc := newServices(cfg, log)

			ui.PrintInfo("Detecting file type...")
			fileType, err := helpers.DetectFileType(packagePath)
			if err != nil {
				return fmt.Errorf("detect file type: %w", err)
			}

			opts := core.InstallOptions{CustomName: customName, SkipDesktop: skipDesktop}
			switch fileType {
			case helpers.FileTypeAppImage:
				ui.PrintSuccess("AppImage bundle detected")
				return installBundle(ctx, cfg, log, svc, packagePath, opts)
			case helpers.FileTypeDEB:
				ui.PrintSuccess("Debian package detected")
				return installDeb(ctx, cfg, log, svc, packagePath)
			default:
				err := &core.FormatError{Path: packagePath, Reason: fmt.Sprintf("unsupported file type %q", fileType)}
				ui.PrintError("%v", err)
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&customName, "name", "n", "", "override the application name derived from the filename")
	cmd.Flags().BoolVar(&skipDesktop, "skip-desktop", false, "skip desktop-menu integration")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 600, "overall timeout in seconds")

	return cmd
}

// installBundle runs the managed-application flow: extract, place,
// integrate. The whole mutation runs under the coordinator so a second
// install of the same application fails fast instead of racing.
func installBundle(ctx context.Context, cfg *config.Config, log *zerolog.Logger, svc *services, bundlePath string, opts core.InstallOptions) error {
	name := opts.CustomName
	if name == "" {
		name = helpers.DeriveLogicalName(bundlePath)
	}
	if err := security.ValidateAppName(name); err != nil {
		ui.PrintError("invalid application name %q: %v", name, err)
		return err
	}

	return svc.coordinator.Run(name, func() error {
		spinner := ui.NewSpinner(fmt.Sprintf("Extracting %s...", filepath.Base(bundlePath)))
		extractor := extract.NewWithDeps(svc.fs, svc.runner, log)
		extraction, err := extractor.Extract(ctx, bundlePath)
		spinner.Finish()
		if err != nil {
			ui.PrintError("extraction failed: %v", err)
			return err
		}
		defer extractor.Cleanup(extraction)
		ui.PrintSuccess("Extracted in %s", extraction.Elapsed.Round(time.Millisecond))

		planner := plan.NewPlanner(svc.fs, log)
		installPlan, err := planner.Plan(svc.resolver.AppsRoot(), name, extraction.PayloadDir)
		if err != nil {
			ui.PrintError("planning failed: %v", err)
			return err
		}
		if installPlan.Kind == plan.Upgrade {
			ui.PrintInfo("Upgrading existing installation of %s", name)
		}

		tx := transaction.NewManager(log)
		if err := planner.Apply(installPlan, extraction.PayloadDir, tx); err != nil {
			ui.PrintError("placement failed: %v", err)
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("rollback reported errors")
			}
			return err
		}

		app := &core.ManagedApplication{
			Name:        name,
			InstallPath: installPlan.TargetDir,
			SizeBytes:   fsops.DirSize(svc.fs, installPlan.TargetDir),
			InstalledAt: time.Now(),
		}

		if !opts.SkipDesktop {
			if err := integrateDesktop(svc, log, app); err != nil {
				// Desktop integration failing never loses the install
				ui.PrintWarning("desktop integration incomplete: %v", err)
				log.Warn().Err(err).Str("app", name).Msg("desktop integration failed")
			}
		}

		tx.Commit()

		event := "Install"
		if installPlan.Kind == plan.Upgrade {
			event = "Upgrade"
		}
		if err := svc.appLogs.InstallEvent(name, event, true, fmt.Sprintf("From: %s", bundlePath)); err != nil {
			log.Warn().Err(err).Msg("failed to append app log")
		}

		ui.PrintSuccess("%s installed to %s", name, installPlan.TargetDir)
		if !opts.SkipDesktop {
			ui.PrintInfo("Menu entry: %s", svc.resolver.DesktopFile(name))
		}
		return nil
	})
}

func integrateDesktop(svc *services, log *zerolog.Logger, app *core.ManagedApplication) error {
	iconPath := ""
	if best, ok := icons.NewFinder(svc.fs).FindBest(app.InstallPath); ok {
		installed, err := svc.desktopMgr.InstallIcon(app.Name, best.Path)
		if err != nil {
			// Fall back to referencing the icon inside the bundle
			log.Warn().Err(err).Str("app", app.Name).Msg("icon install failed")
			iconPath = best.Path
		} else {
			iconPath = installed
			svc.refresher.RefreshIconCache(svc.resolver.IconDir(), log)
		}
	}

	if err := svc.desktopMgr.WriteEntry(app, iconPath); err != nil {
		return err
	}
	app.HasDesktopEntry = true
	app.HasWrapper = true

	svc.refresher.RefreshDesktopDatabase(svc.resolver.DesktopDir(), log)
	return nil
}

// installDeb runs the native-package flow under the same coordinator,
// keyed by the file's package name once known; until metadata is read
// the file path stands in as the key.
func installDeb(ctx context.Context, cfg *config.Config, log *zerolog.Logger, svc *services, pkgPath string) error {
	return svc.coordinator.Run(filepath.Base(pkgPath), func() error {
		tracker, err := db.Open(ctx, svc.resolver.DBFile())
		if err != nil {
			ui.PrintError("failed to open tracking database: %v", err)
			return fmt.Errorf("open tracking database: %w", err)
		}
		defer tracker.Close()

		installer := deb.NewInstaller(svc.fs, svc.provider, tracker, svc.appLogs, log)
		installer.ResolveDependencies = cfg.Deb.ResolveDependencies

		phases := ui.NewPhaseTracker(5)
		installer.OnStage = func(stage deb.Stage, success bool, detail string) {
			phases.Start(string(stage))
			if success {
				phases.Done(detail)
			}
		}

		record, err := installer.Install(ctx, pkgPath)
		if err != nil {
			ui.PrintError("installation failed: %v", err)
			return err
		}

		ui.PrintSuccess("%s %s installed and verified", record.Name, record.Version)
		ui.PrintInfo("Stage log: %s", svc.appLogs.DebLogPath())
		return nil
	})
}
