package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstalledItem_DisplayName(t *testing.T) {
	t.Parallel()

	app := InstalledItem{
		Kind: KindManagedApp,
		App:  &ManagedApplication{Name: "Cursor", InstallPath: "/home/u/Applications/Cursor"},
	}
	assert.Equal(t, "Cursor", app.DisplayName())

	pkg := InstalledItem{
		Kind: KindNativePackage,
		Pkg:  &NativePackageRecord{Name: "libfoo", Version: "1.2-1"},
	}
	assert.Equal(t, "libfoo", pkg.DisplayName())
}

func TestInstalledItem_KindDispatch(t *testing.T) {
	t.Parallel()

	app := InstalledItem{Kind: KindManagedApp, App: &ManagedApplication{Name: "Cursor"}}
	pkg := InstalledItem{Kind: KindNativePackage, Pkg: &NativePackageRecord{Name: "libfoo"}}

	assert.True(t, app.Launchable())
	assert.True(t, app.SupportsPreserveConfig())
	assert.False(t, pkg.Launchable())
	assert.False(t, pkg.SupportsPreserveConfig())
}

func TestManagedApplication_EntryPoint(t *testing.T) {
	t.Parallel()

	app := &ManagedApplication{Name: "Cursor", InstallPath: "/home/u/Applications/Cursor"}
	assert.Equal(t, "/home/u/Applications/Cursor/AppRun", app.EntryPoint())
}

func TestErrorUnwrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 2")
	var err error = &ExtractionError{Bundle: "/tmp/x.AppImage", Reason: "non-zero exit", Err: cause}

	var exErr *ExtractionError
	assert.True(t, errors.As(err, &exErr))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "non-zero exit")

	err = &VerificationError{Package: "goose", Expected: "1.0", Found: ""}
	var vErr *VerificationError
	assert.True(t, errors.As(err, &vErr))
	assert.Contains(t, err.Error(), "absent from package database")
}
