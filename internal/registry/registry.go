package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/db"
	"github.com/squashmate/squashmate/internal/desktop"
	"github.com/squashmate/squashmate/internal/fsops"
	"github.com/squashmate/squashmate/internal/heuristics"
	"github.com/squashmate/squashmate/internal/logging"
	"github.com/squashmate/squashmate/internal/paths"
	"github.com/squashmate/squashmate/internal/syspkg"
)

// Registry is the unified view over everything squashmate manages:
// application directories under the apps root and native packages
// recorded in the tracking database. Neither source is cached; every
// query re-reads the filesystem and re-checks the dpkg database, so
// the listing never drifts from reality.
type Registry struct {
	fs         afero.Fs
	resolver   *paths.Resolver
	tracker    *db.TrackingDB
	provider   syspkg.Provider
	desktopMgr *desktop.Manager
	appLogs    *logging.AppLogs
	logger     *zerolog.Logger
}

// UninstallOptions carries the uninstall contract flags
type UninstallOptions struct {
	// Confirmation must equal the item's display name exactly
	Confirmation string
	// PreserveConfig keeps user-data subtrees of an application
	// directory in place
	PreserveConfig bool
	// PurgeLogs also removes the per-application log history
	PurgeLogs bool
}

// New creates a Registry
func New(fs afero.Fs, resolver *paths.Resolver, tracker *db.TrackingDB, provider syspkg.Provider, desktopMgr *desktop.Manager, appLogs *logging.AppLogs, logger *zerolog.Logger) *Registry {
	return &Registry{
		fs:         fs,
		resolver:   resolver,
		tracker:    tracker,
		provider:   provider,
		desktopMgr: desktopMgr,
		appLogs:    appLogs,
		logger:     logger,
	}
}

// List returns every installed item, applications first, each group
// sorted by name
func (r *Registry) List(ctx context.Context) ([]core.InstalledItem, error) {
	apps, err := r.listApplications()
	if err != nil {
		return nil, err
	}
	pkgs, err := r.listPackages(ctx)
	if err != nil {
		return nil, err
	}
	return append(apps, pkgs...), nil
}

// Find looks an item up by its display name
func (r *Registry) Find(ctx context.Context, name string) (core.InstalledItem, error) {
	items, err := r.List(ctx)
	if err != nil {
		return core.InstalledItem{}, err
	}
	for _, item := range items {
		if item.DisplayName() == name {
			return item, nil
		}
	}
	return core.InstalledItem{}, fmt.Errorf("%q is not installed", name)
}

func (r *Registry) listApplications() ([]core.InstalledItem, error) {
	appsRoot := r.resolver.AppsRoot()
	entries, err := afero.ReadDir(r.fs, appsRoot)
	if err != nil {
		// A missing root just means nothing installed yet
		if exists, _ := afero.DirExists(r.fs, appsRoot); !exists {
			return nil, nil
		}
		return nil, fmt.Errorf("read apps root: %w", err)
	}

	hasWrapper := r.desktopMgr.HasWrapper()
	var items []core.InstalledItem
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		installPath := filepath.Join(appsRoot, entry.Name())

		// Only directories with an AppRun entry point are managed
		// applications; anything else in the root is left alone
		if ok, _ := afero.Exists(r.fs, filepath.Join(installPath, "AppRun")); !ok {
			continue
		}

		items = append(items, core.InstalledItem{
			Kind: core.KindManagedApp,
			App: &core.ManagedApplication{
				Name:            entry.Name(),
				InstallPath:     installPath,
				SizeBytes:       fsops.DirSize(r.fs, installPath),
				InstalledAt:     entry.ModTime(),
				HasDesktopEntry: r.desktopMgr.HasEntry(entry.Name()),
				HasWrapper:      hasWrapper,
			},
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].App.Name) < strings.ToLower(items[j].App.Name)
	})
	return items, nil
}

// listPackages cross-checks every tracking record against the dpkg
// database. Records for packages removed behind squashmate's back are
// dropped so they stop appearing in listings.
func (r *Registry) listPackages(ctx context.Context) ([]core.InstalledItem, error) {
	if r.tracker == nil {
		return nil, nil
	}
	tracked, err := r.tracker.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("read tracking database: %w", err)
	}

	var items []core.InstalledItem
	for _, pkg := range tracked {
		installed, err := r.provider.IsInstalled(ctx, pkg.Name)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", pkg.Name, err)
		}
		if !installed {
			r.logger.Info().Str("package", pkg.Name).Msg("tracked package no longer installed, dropping record")
			if err := r.tracker.Untrack(ctx, pkg.Name); err != nil {
				r.logger.Warn().Err(err).Str("package", pkg.Name).Msg("failed to drop stale record")
			}
			continue
		}

		version := pkg.Version
		if v, err := r.provider.InstalledVersion(ctx, pkg.Name); err == nil && v != "" {
			version = v
		}

		items = append(items, core.InstalledItem{
			Kind: core.KindNativePackage,
			Pkg: &core.NativePackageRecord{
				Name:    pkg.Name,
				Version: version,
				Depends: pkg.Depends,
			},
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Pkg.Name < items[j].Pkg.Name
	})
	return items, nil
}

// Uninstall removes an installed item. The confirmation token must be
// the item's display name, typed exactly; anything else aborts before
// any state changes.
func (r *Registry) Uninstall(ctx context.Context, item core.InstalledItem, opts UninstallOptions) error {
	if opts.Confirmation != item.DisplayName() {
		return core.ErrConfirmationMismatch
	}

	switch item.Kind {
	case core.KindManagedApp:
		return r.uninstallApplication(item.App, opts)
	case core.KindNativePackage:
		return r.uninstallPackage(ctx, item.Pkg, opts)
	}
	return &core.UninstallError{Item: item.DisplayName(), Err: fmt.Errorf("unknown item kind %q", item.Kind)}
}

// uninstallApplication revokes desktop integration before touching
// the install directory, so a failure partway leaves no menu entry
// pointing at a half-removed tree.
func (r *Registry) uninstallApplication(app *core.ManagedApplication, opts UninstallOptions) error {
	if err := r.desktopMgr.RevokeEntry(app.Name); err != nil {
		return &core.UninstallError{Item: app.Name, Err: err}
	}

	if opts.PreserveConfig {
		if err := r.removeExceptUserData(app.InstallPath); err != nil {
			return &core.UninstallError{Item: app.Name, Err: err}
		}
	} else {
		if err := r.fs.RemoveAll(app.InstallPath); err != nil {
			return &core.UninstallError{Item: app.Name, Err: err}
		}
	}

	if opts.PurgeLogs {
		if err := r.appLogs.RemoveAppLog(app.Name); err != nil {
			r.logger.Warn().Err(err).Str("app", app.Name).Msg("failed to remove app log")
		}
	} else if err := r.appLogs.InstallEvent(app.Name, "Uninstall", true, ""); err != nil {
		r.logger.Warn().Err(err).Str("app", app.Name).Msg("failed to append app log")
	}

	r.logger.Info().
		Str("app", app.Name).
		Bool("preserve_config", opts.PreserveConfig).
		Msg("application uninstalled")
	return nil
}

// removeExceptUserData deletes application content but keeps the
// subtrees that look like user state. The directory itself stays in
// place when anything is kept.
func (r *Registry) removeExceptUserData(installPath string) error {
	entries, err := afero.ReadDir(r.fs, installPath)
	if err != nil {
		return err
	}

	kept := 0
	for _, entry := range entries {
		if heuristics.LooksLikeUserData(entry.Name()) {
			kept++
			continue
		}
		if err := r.fs.RemoveAll(filepath.Join(installPath, entry.Name())); err != nil {
			return err
		}
	}

	if kept == 0 {
		return r.fs.RemoveAll(installPath)
	}
	r.logger.Info().Int("kept", kept).Str("path", installPath).Msg("user data preserved")
	return nil
}

func (r *Registry) uninstallPackage(ctx context.Context, pkg *core.NativePackageRecord, opts UninstallOptions) error {
	output, err := r.provider.Remove(ctx, pkg.Name)
	if err != nil {
		return &core.UninstallError{Item: pkg.Name, Err: fmt.Errorf("%w: %s", err, output)}
	}

	if r.tracker != nil {
		if err := r.tracker.Untrack(ctx, pkg.Name); err != nil {
			r.logger.Warn().Err(err).Str("package", pkg.Name).Msg("failed to drop tracking record")
		}
	}

	if err := r.appLogs.DebStage(pkg.Name, "removed", 0, true, ""); err != nil {
		r.logger.Warn().Err(err).Msg("failed to append deb log")
	}

	r.logger.Info().Str("package", pkg.Name).Msg("native package removed")
	return nil
}
