package core

import (
	"path/filepath"
	"time"
)

// ItemKind tags the two sources an installed item can come from.
type ItemKind string

const (
	KindManagedApp    ItemKind = "app"
	KindNativePackage ItemKind = "deb"
)

// ManagedApplication is one self-contained bundle installed under the
// managed applications root.
type ManagedApplication struct {
	Name            string    `json:"name"`
	InstallPath     string    `json:"install_path"`
	SizeBytes       int64     `json:"size_bytes"`
	InstalledAt     time.Time `json:"installed_at"`
	HasDesktopEntry bool      `json:"has_desktop_entry"`
	HasWrapper      bool      `json:"has_wrapper"`
}

// EntryPoint returns the executable the application is launched through.
func (a *ManagedApplication) EntryPoint() string {
	return filepath.Join(a.InstallPath, "AppRun")
}

// NativePackageRecord is a package installed via the system package tool,
// observed by querying the package database. SquashMate never caches this
// independently of a fresh query.
type NativePackageRecord struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Depends []string `json:"depends,omitempty"`
}

// InstalledItem is the unified view over managed applications and native
// packages. Exactly one of App/Pkg is set, matching Kind.
type InstalledItem struct {
	Kind ItemKind             `json:"kind"`
	App  *ManagedApplication  `json:"app,omitempty"`
	Pkg  *NativePackageRecord `json:"pkg,omitempty"`
}

// DisplayName is the name shown to the user and the exact string the
// uninstall confirmation token must match.
func (i InstalledItem) DisplayName() string {
	switch i.Kind {
	case KindManagedApp:
		return i.App.Name
	case KindNativePackage:
		return i.Pkg.Name
	}
	return ""
}

// Launchable reports whether the item can be started as an application.
// Native packages provide libraries or services and are not launchable.
func (i InstalledItem) Launchable() bool {
	return i.Kind == KindManagedApp
}

// SupportsPreserveConfig reports whether preserve-config applies on
// uninstall. For native packages configuration survival is the package
// tool's own policy.
func (i InstalledItem) SupportsPreserveConfig() bool {
	return i.Kind == KindManagedApp
}

// DesktopEntry represents a .desktop launcher descriptor.
type DesktopEntry struct {
	Type          string
	Name          string
	Comment       string
	Exec          string
	Icon          string
	Categories    []string
	MimeType      []string
	Terminal      bool
	StartupNotify bool
}

// InstallOptions carries per-install flags from the caller.
type InstallOptions struct {
	CustomName  string // override the name derived from the bundle filename
	SkipDesktop bool   // skip desktop-entry generation
}

// LaunchTag distinguishes the two launch paths in per-application logs.
type LaunchTag string

const (
	TagDirectLaunch  LaunchTag = "Direct Launch"
	TagDesktopLaunch LaunchTag = "Desktop Launch"
)
