package cache

import (
	"io"
	"testing"

	"github.com/squashmate/squashmate/internal/helpers"
	"github.com/squashmate/squashmate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshDesktopDatabaseRunsTool(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	r := NewRefresherWithRunner(mock)
	log := logging.NewTestLogger(io.Discard)

	r.RefreshDesktopDatabase("/home/user/.local/share/applications", log)

	require.Len(t, mock.Calls, 1)
	assert.Equal(t, []string{"update-desktop-database", "/home/user/.local/share/applications"}, mock.Calls[0])
}

func TestRefreshDesktopDatabaseSkipsWhenToolMissing(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	mock.CommandExistsFunc = func(string) bool { return false }
	r := NewRefresherWithRunner(mock)

	r.RefreshDesktopDatabase("/apps", logging.NewTestLogger(io.Discard))

	assert.Empty(t, mock.Calls)
}

func TestRefreshIconCachePrefersGtk4(t *testing.T) {
	mock := helpers.NewMockCommandRunner()
	r := NewRefresherWithRunner(mock)

	r.RefreshIconCache("/home/user/.local/share/icons/hicolor", logging.NewTestLogger(io.Discard))

	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "gtk4-update-icon-cache", mock.Calls[0][0])
}
