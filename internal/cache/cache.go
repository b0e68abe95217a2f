package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/squashmate/squashmate/internal/helpers"
)

// Refresher nudges the desktop environment after entries or icons
// change. Everything here is best-effort: a missing tool or a failed
// refresh never fails the surrounding install or uninstall.
type Refresher struct {
	runner helpers.CommandRunner
}

// NewRefresher creates a Refresher with the default command runner
func NewRefresher() *Refresher {
	return &Refresher{runner: helpers.NewOSCommandRunner()}
}

// NewRefresherWithRunner creates a Refresher with a custom runner
func NewRefresherWithRunner(runner helpers.CommandRunner) *Refresher {
	return &Refresher{runner: runner}
}

// RefreshDesktopDatabase rebuilds the MIME/desktop cache for the
// per-user applications directory
func (r *Refresher) RefreshDesktopDatabase(appsDir string, log *zerolog.Logger) {
	if !r.runner.CommandExists("update-desktop-database") {
		log.Debug().Msg("update-desktop-database not found, skipping refresh")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := r.runner.RunCommand(ctx, "update-desktop-database", appsDir); err != nil {
		log.Warn().Err(err).Msg("desktop database refresh failed (non-fatal)")
		return
	}
	log.Debug().Str("apps_dir", appsDir).Msg("desktop database refreshed")
}

// RefreshIconCache rebuilds the hicolor icon cache when a gtk cache
// tool is installed
func (r *Refresher) RefreshIconCache(iconDir string, log *zerolog.Logger) {
	cmdName := ""
	switch {
	case r.runner.CommandExists("gtk4-update-icon-cache"):
		cmdName = "gtk4-update-icon-cache"
	case r.runner.CommandExists("gtk-update-icon-cache"):
		cmdName = "gtk-update-icon-cache"
	default:
		log.Debug().Msg("gtk-update-icon-cache not found, skipping refresh")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := r.runner.RunCommand(ctx, cmdName, "-f", "-t", iconDir); err != nil {
		log.Warn().Err(err).Msg("icon cache refresh failed (non-fatal)")
		return
	}
	log.Debug().Str("icon_dir", iconDir).Msg("icon cache refreshed")
}
