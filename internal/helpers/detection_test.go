package helpers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func fakeAppImageBytes() []byte {
	header := append([]byte{0x7F, 'E', 'L', 'F'}, bytes.Repeat([]byte{0}, 100)...)
	return append(header, []byte("hsqs")...)
}

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content []byte
		want    FileType
	}{
		{"deb by extension", "pkg.deb", []byte("anything"), FileTypeDEB},
		{"deb by ar magic", "pkg.bin", []byte("!<arch>\ndebian-binary   "), FileTypeDEB},
		{"appimage with squashfs payload", "tool.bin", fakeAppImageBytes(), FileTypeAppImage},
		{"plain elf without payload", "tool", append([]byte{0x7F, 'E', 'L', 'F'}, bytes.Repeat([]byte{0}, 64)...), FileTypeELF},
		{"shell script", "run.sh", []byte("#!/bin/sh\necho hi\n"), FileTypeScript},
		{"unknown", "notes.txt", []byte("just text"), FileTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, tt.file, tt.content)
			got, err := DetectFileType(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFileType_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := DetectFileType(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestIsAppImage(t *testing.T) {
	t.Parallel()

	// A truncated ELF header is rejected by the ELF parser, so the
	// squashfs scan never runs.
	stub := writeFixture(t, "stub", fakeAppImageBytes())
	ok, err := IsAppImage(stub)
	assert.NoError(t, err)
	assert.False(t, ok)

	text := writeFixture(t, "text", []byte("not elf"))
	ok, err = IsAppImage(text)
	assert.NoError(t, err)
	assert.False(t, ok)
}
