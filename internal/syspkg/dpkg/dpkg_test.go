package dpkg

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/squashmate/squashmate/internal/helpers"
	"github.com/squashmate/squashmate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(escalator string, mock *helpers.MockCommandRunner) *Provider {
	return New(mock, escalator, logging.NewTestLogger(io.Discard))
}

func TestEscalatorAutoPrefersPkexec(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	p := newProvider("auto", mock)

	esc, err := p.Escalator()
	require.NoError(t, err)
	assert.Equal(t, "pkexec", esc)
}

func TestEscalatorAutoFallsBackToSudo(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	mock.CommandExistsFunc = func(name string) bool { return name == "sudo" }
	p := newProvider("auto", mock)

	esc, err := p.Escalator()
	require.NoError(t, err)
	assert.Equal(t, "sudo", esc)
}

func TestEscalatorNoneAvailable(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	mock.CommandExistsFunc = func(string) bool { return false }
	p := newProvider("auto", mock)

	_, err := p.Escalator()
	assert.Error(t, err)
}

func TestInstallRunsEscalatedDpkg(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	p := newProvider("pkexec", mock)

	_, err := p.Install(context.Background(), "/tmp/zoom.deb")
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, []string{"pkexec", "dpkg", "-i", "/tmp/zoom.deb"}, mock.Calls[0])
}

func TestFixDependencies(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	p := newProvider("sudo", mock)

	_, err := p.FixDependencies(context.Background())
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, []string{"sudo", "apt-get", "install", "-f", "-y"}, mock.Calls[0])
}

func TestInstallByName(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	p := newProvider("pkexec", mock)

	_, err := p.InstallByName(context.Background(), []string{"libglib2.0-0", "libnotify4"})
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, []string{"pkexec", "apt-get", "install", "-y", "libglib2.0-0", "libnotify4"}, mock.Calls[0])

	_, err = p.InstallByName(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, mock.Calls, 1, "empty list runs nothing")
}

func TestInspectParsesControlFields(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	mock.RunCommandFunc = func(_ context.Context, name string, args ...string) (string, error) {
		return "Package: zoom\nVersion: 5.17.1\nDepends: libglib2.0-0 (>= 2.12.0), libxcb-shape0 | libxcb1\n", nil
	}
	p := newProvider("auto", mock)

	info, err := p.Inspect(context.Background(), "/tmp/zoom.deb")
	require.NoError(t, err)
	assert.Equal(t, "zoom", info.Name)
	assert.Equal(t, "5.17.1", info.Version)
	assert.Equal(t, []string{"libglib2.0-0", "libxcb-shape0"}, info.Depends)
}

func TestInspectWithoutDpkgDeb(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	mock.CommandExistsFunc = func(name string) bool { return name != "dpkg-deb" }
	p := newProvider("auto", mock)

	_, err := p.Inspect(context.Background(), "/tmp/zoom.deb")
	assert.ErrorIs(t, err, ErrInspectUnavailable)
}

func TestIsInstalled(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	mock.RunCommandFunc = func(_ context.Context, name string, args ...string) (string, error) {
		return "install ok installed", nil
	}
	p := newProvider("auto", mock)

	ok, err := p.IsInstalled(context.Background(), "zoom")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsInstalledUnknownPackage(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	mock.RunCommandFunc = func(_ context.Context, name string, args ...string) (string, error) {
		return "", errors.New("dpkg-query: no packages found matching nope")
	}
	p := newProvider("auto", mock)

	ok, err := p.IsInstalled(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseDependsField(t *testing.T) {
	tests := []struct {
		field string
		want  []string
	}{
		{"", nil},
		{"libc6", []string{"libc6"}},
		{"libc6 (>= 2.17), libgtk-3-0", []string{"libc6", "libgtk-3-0"}},
		{"gconf2 | gconf-service, libnotify4", []string{"gconf2", "libnotify4"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDependsField(tt.field), "field=%q", tt.field)
	}
}
