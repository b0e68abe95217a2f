package logging

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppLogs_LaunchEventAppends(t *testing.T) {
	t.Parallel()

	logs := NewAppLogs(t.TempDir())

	err := logs.LaunchEvent("Cursor", "Direct Launch", []string{"/apps/Cursor/AppRun"}, true, "")
	require.NoError(t, err)
	err = logs.LaunchEvent("Cursor", "Desktop Launch", []string{"/apps/Cursor/AppRun"}, false, "segfault")
	require.NoError(t, err)

	content, err := logs.ReadAppLog("Cursor")
	require.NoError(t, err)

	// Append-only: both blocks present, in order
	assert.Contains(t, content, "Direct Launch:")
	assert.Contains(t, content, "Desktop Launch:")
	assert.Contains(t, content, "Status: SUCCESS")
	assert.Contains(t, content, "Status: FAILED")
	assert.Contains(t, content, "Error Output:\nsegfault")
	assert.Less(t, strings.Index(content, "Direct Launch"), strings.Index(content, "Desktop Launch"))
}

func TestAppLogs_DebStage(t *testing.T) {
	t.Parallel()

	logs := NewAppLogs(t.TempDir())

	require.NoError(t, logs.DebStage("goose", "Validated", 12*time.Millisecond, true, ""))
	require.NoError(t, logs.DebStage("goose", "Installed", 0, false, "dpkg: error\nsecond line"))

	data, err := os.ReadFile(logs.DebLogPath())
	require.NoError(t, err)

	assert.Contains(t, string(data), "Validated")
	assert.Contains(t, string(data), "FAILED")
	assert.Contains(t, string(data), "    dpkg: error")
}

func TestAppLogs_RemoveAppLog(t *testing.T) {
	t.Parallel()

	logs := NewAppLogs(t.TempDir())
	require.NoError(t, logs.InstallEvent("Cursor", "Install", true, "fresh install"))

	require.NoError(t, logs.RemoveAppLog("Cursor"))
	content, err := logs.ReadAppLog("Cursor")
	require.NoError(t, err)
	assert.Empty(t, content)

	// Removing a missing log is not an error
	require.NoError(t, logs.RemoveAppLog("Cursor"))
}
