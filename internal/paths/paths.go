package paths

import (
	"os"
	"path/filepath"

	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/helpers"
)

// Resolver centralizes the well-known per-user locations SquashMate
// reads and writes: the managed application root, the desktop-entry
// directory, the executable directory holding the launch wrapper, and
// the data directory with the tracking database and logs.
type Resolver struct {
	homeDir string
	cfg     *config.Config
}

// NewResolver creates a Resolver using the current user's home directory.
func NewResolver(cfg *config.Config) *Resolver {
	homeDir, _ := os.UserHomeDir()
	return &Resolver{homeDir: homeDir, cfg: cfg}
}

// NewResolverWithHome creates a Resolver with an explicit home directory
// (used by tests).
func NewResolverWithHome(cfg *config.Config, homeDir string) *Resolver {
	return &Resolver{homeDir: homeDir, cfg: cfg}
}

// HomeDir returns the resolved home directory.
func (r *Resolver) HomeDir() string {
	return r.homeDir
}

// AppsRoot returns the managed application root, ~/Applications by
// default. One subdirectory per logical application name.
func (r *Resolver) AppsRoot() string {
	if r.cfg != nil && r.cfg.Paths.AppsRoot != "" {
		return r.cfg.Paths.AppsRoot
	}
	return filepath.Join(r.homeDir, "Applications")
}

// DataDir returns the per-user data directory holding the tracking
// database and all logs.
func (r *Resolver) DataDir() string {
	if r.cfg != nil && r.cfg.Paths.DataDir != "" {
		return r.cfg.Paths.DataDir
	}
	return filepath.Join(r.homeDir, ".local", "share", "squashmate")
}

// DBFile returns the sqlite tracking database path.
func (r *Resolver) DBFile() string {
	if r.cfg != nil && r.cfg.Paths.DBFile != "" {
		return r.cfg.Paths.DBFile
	}
	return filepath.Join(r.DataDir(), "tracked.db")
}

// BinDir returns ~/.local/bin, where the shared launch wrapper lives.
func (r *Resolver) BinDir() string {
	return filepath.Join(r.homeDir, ".local", "bin")
}

// DesktopDir returns ~/.local/share/applications.
func (r *Resolver) DesktopDir() string {
	return filepath.Join(r.homeDir, ".local", "share", "applications")
}

// IconDir returns ~/.local/share/icons, where installed application
// icons are placed for desktop theme lookup.
func (r *Resolver) IconDir() string {
	return filepath.Join(r.homeDir, ".local", "share", "icons")
}

// WrapperPath returns the absolute path of the shared launch wrapper.
func (r *Resolver) WrapperPath() string {
	name := "squashmate-launch"
	if r.cfg != nil && r.cfg.Desktop.WrapperName != "" {
		name = r.cfg.Desktop.WrapperName
	}
	return filepath.Join(r.BinDir(), name)
}

// AppDir returns the install path for one logical application name.
func (r *Resolver) AppDir(name string) string {
	return filepath.Join(r.AppsRoot(), name)
}

// DesktopFile returns the desktop-entry path for one application.
// The file name is normalized so "Joplin Desktop" maps to
// squashmate-joplin-desktop.desktop, and carries the squashmate-
// prefix so entries this tool owns are recognizable.
func (r *Resolver) DesktopFile(name string) string {
	return filepath.Join(r.DesktopDir(), "squashmate-"+helpers.NormalizeFilename(name)+".desktop")
}

// LockFile returns the path of the managed-tree mutation lock.
func (r *Resolver) LockFile() string {
	return filepath.Join(r.DataDir(), ".squashmate.lock")
}
