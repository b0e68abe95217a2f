package desktop

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/fsops"
	"github.com/squashmate/squashmate/internal/heuristics"
	"github.com/squashmate/squashmate/internal/icons"
	"github.com/squashmate/squashmate/internal/paths"
)

// Manager writes and removes the desktop-menu integration for managed
// applications: one shared wrapper script in ~/.local/bin plus one
// .desktop entry per app. Failures here are reported as
// core.PermissionError so callers can keep the install alive and tell
// the user the menu entry is missing.
type Manager struct {
	fs       afero.Fs
	resolver *paths.Resolver
	cfg      *config.Config
	logger   *zerolog.Logger

	// selfPath locates the squashmate binary the wrapper delegates to
	selfPath func() (string, error)
}

// NewManager creates a Manager against the real filesystem
func NewManager(cfg *config.Config, resolver *paths.Resolver, logger *zerolog.Logger) *Manager {
	return NewManagerWithDeps(afero.NewOsFs(), cfg, resolver, logger, os.Executable)
}

// NewManagerWithDeps creates a Manager with injected fs and self-path lookup
func NewManagerWithDeps(fs afero.Fs, cfg *config.Config, resolver *paths.Resolver, logger *zerolog.Logger, selfPath func() (string, error)) *Manager {
	return &Manager{fs: fs, resolver: resolver, cfg: cfg, logger: logger, selfPath: selfPath}
}

// EnsureWrapper installs or refreshes the shared launch wrapper. Every
// desktop entry execs the wrapper rather than the application, so
// desktop launches and direct launches go through the same code path
// and get the same per-app logging.
func (m *Manager) EnsureWrapper() error {
	self, err := m.selfPath()
	if err != nil {
		return &core.PermissionError{Path: m.resolver.WrapperPath(), Err: fmt.Errorf("locate own binary: %w", err)}
	}

	if err := fsops.EnsureDir(m.fs, m.resolver.BinDir(), 0o755); err != nil {
		return &core.PermissionError{Path: m.resolver.BinDir(), Err: err}
	}

	script := fmt.Sprintf("#!/bin/sh\nexec %s wrap \"$@\"\n", QuoteExecArg(self))
	wrapperPath := m.resolver.WrapperPath()

	existing, err := afero.ReadFile(m.fs, wrapperPath)
	if err == nil && bytes.Equal(existing, []byte(script)) {
		return nil
	}

	if err := afero.WriteFile(m.fs, wrapperPath, []byte(script), 0o755); err != nil {
		return &core.PermissionError{Path: wrapperPath, Err: err}
	}
	// WriteFile does not touch mode on an existing file
	if err := m.fs.Chmod(wrapperPath, 0o755); err != nil {
		return &core.PermissionError{Path: wrapperPath, Err: err}
	}

	m.logger.Debug().Str("wrapper", wrapperPath).Msg("launch wrapper installed")
	return nil
}

// WriteEntry creates or replaces the desktop entry for an application.
// Writing the same entry twice is a no-op, so repeated installs and
// upgrades never duplicate menu items.
func (m *Manager) WriteEntry(app *core.ManagedApplication, iconPath string) error {
	if err := m.EnsureWrapper(); err != nil {
		return err
	}
	if err := fsops.EnsureDir(m.fs, m.resolver.DesktopDir(), 0o755); err != nil {
		return &core.PermissionError{Path: m.resolver.DesktopDir(), Err: err}
	}

	// Electron bundles carry a human-facing product name; the menu
	// shows that while Exec and the confirmation token keep the
	// logical name.
	displayName := app.Name
	if product := heuristics.ElectronProductName(m.fs, app.InstallPath); product != "" {
		displayName = product
	}

	entry := &core.DesktopEntry{
		Type:          "Application",
		Name:          displayName,
		Comment:       fmt.Sprintf("%s (managed by squashmate)", app.Name),
		Exec:          fmt.Sprintf("%s %s", QuoteExecArg(m.resolver.WrapperPath()), QuoteExecArg(app.Name)),
		Icon:          iconPath,
		Categories:    m.cfg.Desktop.Categories,
		MimeType:      []string{"application/vnd.appimage"},
		Terminal:      false,
		StartupNotify: true,
	}

	var buf bytes.Buffer
	if err := Write(&buf, entry); err != nil {
		return &core.PermissionError{Path: m.resolver.DesktopFile(app.Name), Err: err}
	}

	entryPath := m.resolver.DesktopFile(app.Name)
	if err := afero.WriteFile(m.fs, entryPath, buf.Bytes(), 0o644); err != nil {
		return &core.PermissionError{Path: entryPath, Err: err}
	}

	m.logger.Info().Str("app", app.Name).Str("entry", entryPath).Msg("desktop entry written")
	return nil
}

// InstallIcon copies an application's best icon into the per-user icon
// directory and returns the installed path. The desktop entry references
// the copy, so the icon survives upgrades that replace the application
// tree wholesale.
func (m *Manager) InstallIcon(appName, iconPath string) (string, error) {
	if err := fsops.EnsureDir(m.fs, m.resolver.IconDir(), 0o755); err != nil {
		return "", &core.PermissionError{Path: m.resolver.IconDir(), Err: err}
	}

	ext := strings.ToLower(filepath.Ext(iconPath))
	if filepath.Base(iconPath) == ".DirIcon" || ext == "" {
		// .DirIcon files are PNG by AppImage convention
		ext = ".png"
	}
	target := filepath.Join(m.resolver.IconDir(), "squashmate-"+icons.NormalizeIconName(appName)+ext)

	data, err := afero.ReadFile(m.fs, iconPath)
	if err != nil {
		return "", &core.PermissionError{Path: iconPath, Err: err}
	}
	if err := afero.WriteFile(m.fs, target, data, 0o644); err != nil {
		return "", &core.PermissionError{Path: target, Err: err}
	}

	m.logger.Debug().Str("app", appName).Str("icon", target).Msg("icon installed")
	return target, nil
}

// RevokeEntry removes the desktop entry and installed icon for an
// application. Missing files are fine: revoking is idempotent and runs
// before the install directory is touched during uninstall.
func (m *Manager) RevokeEntry(name string) error {
	entryPath := m.resolver.DesktopFile(name)
	if exists, _ := afero.Exists(m.fs, entryPath); exists {
		if err := m.fs.Remove(entryPath); err != nil {
			return &core.PermissionError{Path: entryPath, Err: err}
		}
		m.logger.Info().Str("app", name).Str("entry", entryPath).Msg("desktop entry removed")
	}

	pattern := filepath.Join(m.resolver.IconDir(), "squashmate-"+icons.NormalizeIconName(name)+".*")
	matches, _ := afero.Glob(m.fs, pattern)
	for _, icon := range matches {
		if err := m.fs.Remove(icon); err != nil {
			m.logger.Warn().Err(err).Str("icon", icon).Msg("failed to remove installed icon")
		}
	}
	return nil
}

// HasEntry reports whether an application currently has a desktop entry
func (m *Manager) HasEntry(name string) bool {
	exists, _ := afero.Exists(m.fs, m.resolver.DesktopFile(name))
	return exists
}

// HasWrapper reports whether the shared wrapper is installed
func (m *Manager) HasWrapper() bool {
	exists, _ := afero.Exists(m.fs, m.resolver.WrapperPath())
	return exists
}
