package icons

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestDiscoverFindsIconExtensions(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/icon.png", pngBytes(t, 64, 64), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/app/usr/share/icons/hicolor/256x256/apps/foo.png", pngBytes(t, 256, 256), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/app/readme.txt", bytes.Repeat([]byte("x"), 200), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/app/.DirIcon", []byte("tiny"), 0o644))

	finder := NewFinder(fs)
	got, err := finder.Discover("/app")
	require.NoError(t, err)

	paths := make([]string, len(got))
	for i, ic := range got {
		paths[i] = ic.Path
	}
	assert.Contains(t, paths, "/app/icon.png")
	assert.Contains(t, paths, "/app/.DirIcon")
	assert.NotContains(t, paths, "/app/readme.txt")
}

func TestDiscoverSkipsTinyFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/stub.png", []byte("x"), 0o644))

	finder := NewFinder(fs)
	got, err := finder.Discover("/app")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDetectSizeFromPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	finder := NewFinder(fs)

	assert.Equal(t, "256x256", finder.detectSize("/icons/hicolor/256x256/apps/a.png"))
	assert.Equal(t, "scalable", finder.detectSize("/icons/hicolor/scalable/apps/a.svg"))
	assert.Equal(t, "scalable", finder.detectSize("/app/logo.svg"))
}

func TestDetectSizeFromImageHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/logo.png", pngBytes(t, 128, 96), 0o644))

	finder := NewFinder(fs)
	assert.Equal(t, "128x128", finder.detectSize("/app/logo.png"), "non-square rounds up to the larger side")
}

func TestFindBestPrefersRootLevelIcon(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/cursor.png", pngBytes(t, 48, 48), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/app/usr/share/icons/hicolor/512x512/apps/cursor.png", pngBytes(t, 512, 512), 0o644))

	finder := NewFinder(fs)
	best, ok := finder.FindBest("/app")
	require.True(t, ok)
	assert.Equal(t, "/app/cursor.png", best.Path)
}

func TestFindBestNoCandidates(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/app", 0o755))

	finder := NewFinder(fs)
	_, ok := finder.FindBest("/app")
	assert.False(t, ok)
}

func TestNormalizeIconName(t *testing.T) {
	assert.Equal(t, "joplin-desktop", NormalizeIconName("Joplin Desktop.png"))
	assert.Equal(t, "cursor", NormalizeIconName("/some/path/Cursor.svg"))
	assert.Equal(t, "my_app-2.0", NormalizeIconName("My_App-2.0.ico"))
}
