package syspkg

import (
	"context"
)

// PackageInfo is the metadata squashmate needs from the system
// package database
type PackageInfo struct {
	Name    string
	Version string
	Depends []string
}

// Provider abstracts the system package manager. The only shipping
// implementation is dpkg/apt; the interface keeps the deb install
// flow testable and leaves room for other Debian-family frontends.
type Provider interface {
	// Name returns the provider name, e.g. "dpkg"
	Name() string

	// Inspect reads metadata out of a local package file
	Inspect(ctx context.Context, pkgPath string) (*PackageInfo, error)

	// Install installs a package from a local path
	Install(ctx context.Context, pkgPath string) (output string, err error)

	// InstallByName installs repository packages by name; used for
	// advisory dependency pre-resolution
	InstallByName(ctx context.Context, names []string) (output string, err error)

	// FixDependencies resolves and installs missing dependencies after
	// a partially configured install
	FixDependencies(ctx context.Context) (output string, err error)

	// Remove removes an installed package by name
	Remove(ctx context.Context, pkgName string) (output string, err error)

	// IsInstalled checks the system database for an installed,
	// configured package
	IsInstalled(ctx context.Context, pkgName string) (bool, error)

	// InstalledVersion returns the configured version of a package
	InstalledVersion(ctx context.Context, pkgName string) (string, error)
}
