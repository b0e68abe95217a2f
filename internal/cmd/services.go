package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/cache"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/desktop"
	"github.com/squashmate/squashmate/internal/helpers"
	"github.com/squashmate/squashmate/internal/logging"
	"github.com/squashmate/squashmate/internal/paths"
	"github.com/squashmate/squashmate/internal/syspkg/dpkg"
	"github.com/squashmate/squashmate/internal/task"
)

// services bundles the dependencies every command assembles the same
// way. The tracking database is opened per command because not every
// command needs it.
type services struct {
	fs          afero.Fs
	runner      helpers.CommandRunner
	resolver    *paths.Resolver
	appLogs     *logging.AppLogs
	desktopMgr  *desktop.Manager
	refresher   *cache.Refresher
	coordinator *task.Coordinator
	provider    *dpkg.Provider
}

func newServices(cfg *config.Config, log *zerolog.Logger) *services {
	fs := afero.NewOsFs()
	runner := helpers.NewOSCommandRunner()
	resolver := paths.NewResolver(cfg)

	return &services{
		fs:          fs,
		runner:      runner,
		resolver:    resolver,
		appLogs:     logging.NewAppLogs(resolver.DataDir()),
		desktopMgr:  desktop.NewManagerWithDeps(fs, cfg, resolver, log, os.Executable),
		refresher:   cache.NewRefresherWithRunner(runner),
		coordinator: task.NewCoordinator(resolver.LockFile(), log),
		provider:    dpkg.New(runner, cfg.Deb.Escalator, log),
	}
}
