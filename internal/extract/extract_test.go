package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/helpers"
	"github.com/squashmate/squashmate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSucceeds(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/downloads/Cursor-1.2.AppImage", []byte("bundle"), 0o644))

	mock := helpers.NewMockCommandRunner()
	mock.RunCommandInDirFunc = func(_ context.Context, dir, name string, args ...string) (string, error) {
		// Self-extraction drops squashfs-root in the working directory
		require.NoError(t, fs.MkdirAll(filepath.Join(dir, "squashfs-root"), 0o755))
		return "", nil
	}

	e := NewWithDeps(fs, mock, logging.NewTestLogger(io.Discard))
	x, err := e.Extract(context.Background(), "/downloads/Cursor-1.2.AppImage")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(x.StagingDir, "squashfs-root"), x.PayloadDir)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "--appimage-extract", mock.Calls[0][1])

	e.Cleanup(x)
	exists, _ := afero.DirExists(fs, x.StagingDir)
	assert.False(t, exists)
}

func TestExtractMissingBundle(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := NewWithDeps(fs, helpers.NewMockCommandRunner(), logging.NewTestLogger(io.Discard))

	_, err := e.Extract(context.Background(), "/nope.AppImage")
	var xerr *core.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Reason, "not found")
}

func TestExtractLogsFailureOutcome(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/Broken-1.0.AppImage", []byte("bundle"), 0o644))

	mock := helpers.NewMockCommandRunner()
	mock.RunCommandInDirFunc = func(context.Context, string, string, ...string) (string, error) {
		return "", errors.New("execution failed")
	}
	mock.CommandExistsFunc = func(string) bool { return false }

	var buf bytes.Buffer
	e := NewWithDeps(fs, mock, logging.NewTestLogger(&buf))

	_, err := e.Extract(context.Background(), "/dl/Broken-1.0.AppImage")
	require.Error(t, err)

	line := buf.String()
	assert.Contains(t, line, "bundle extraction failed")
	assert.Contains(t, line, "Broken-1.0.AppImage")
	assert.Contains(t, line, "elapsed")
}

func TestExtractFallsBackToUnsquashfs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/app.AppImage", []byte("bundle"), 0o644))

	mock := helpers.NewMockCommandRunner()
	mock.RunCommandInDirFunc = func(_ context.Context, dir, name string, args ...string) (string, error) {
		if name == "unsquashfs" {
			require.NoError(t, fs.MkdirAll(filepath.Join(dir, "squashfs-root"), 0o755))
			return "", nil
		}
		return "", errors.New("exec format error")
	}

	e := NewWithDeps(fs, mock, logging.NewTestLogger(io.Discard))
	x, err := e.Extract(context.Background(), "/dl/app.AppImage")
	require.NoError(t, err)
	assert.NotEmpty(t, x.PayloadDir)
	require.Len(t, mock.Calls, 2)
	assert.Equal(t, "unsquashfs", mock.Calls[1][0])
}

func TestExtractFailsWithoutSquashfsRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/odd.AppImage", []byte("bundle"), 0o644))

	// Runner succeeds but produces nothing
	e := NewWithDeps(fs, helpers.NewMockCommandRunner(), logging.NewTestLogger(io.Discard))
	_, err := e.Extract(context.Background(), "/dl/odd.AppImage")

	var xerr *core.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Reason, "squashfs-root")
}

func TestExtractReportsToolGap(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/app.AppImage", []byte("bundle"), 0o644))

	mock := helpers.NewMockCommandRunner()
	mock.RunCommandInDirFunc = func(context.Context, string, string, ...string) (string, error) {
		return "", errors.New("exec format error")
	}
	mock.CommandExistsFunc = func(string) bool { return false }

	e := NewWithDeps(fs, mock, logging.NewTestLogger(io.Discard))
	_, err := e.Extract(context.Background(), "/dl/app.AppImage")

	var xerr *core.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Reason, "unsquashfs not found")
}
