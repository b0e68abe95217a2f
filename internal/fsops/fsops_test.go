package fsops

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSize(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/app/sub", 0755))
	require.NoError(t, afero.WriteFile(fs, "/app/a.bin", make([]byte, 100), 0644))
	require.NoError(t, afero.WriteFile(fs, "/app/sub/b.bin", make([]byte, 50), 0644))

	assert.Equal(t, int64(150), DirSize(fs, "/app"))
	assert.Equal(t, int64(0), DirSize(fs, "/missing"))
}

func TestCopyTree(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/src/nested", 0755))
	require.NoError(t, afero.WriteFile(fs, "/src/AppRun", []byte("#!/bin/sh"), 0755))
	require.NoError(t, afero.WriteFile(fs, "/src/nested/data", []byte("x"), 0644))

	require.NoError(t, CopyTree(fs, "/src", "/dst"))

	data, err := afero.ReadFile(fs, "/dst/AppRun")
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh", string(data))
	assert.True(t, Exists(fs, "/dst/nested/data"))
}

func TestMoveTree(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/staging/squashfs-root", 0755))
	require.NoError(t, afero.WriteFile(fs, "/staging/squashfs-root/AppRun", []byte("run"), 0755))

	require.NoError(t, MoveTree(fs, "/staging/squashfs-root", "/apps/Cursor"))

	assert.True(t, Exists(fs, "/apps/Cursor/AppRun"))
	assert.False(t, Exists(fs, "/staging/squashfs-root"))
}

func TestCheckWritable(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/ok", 0755))
	assert.NoError(t, CheckWritable(fs, "/ok"))

	ro := afero.NewReadOnlyFs(fs)
	assert.Error(t, CheckWritable(ro, "/ok"))
}
