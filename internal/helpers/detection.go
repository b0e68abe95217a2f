package helpers

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileType represents the detected type of a selected file
type FileType string

const (
	FileTypeAppImage FileType = "appimage"
	FileTypeELF      FileType = "elf"
	FileTypeDEB      FileType = "deb"
	FileTypeScript   FileType = "script"
	FileTypeUnknown  FileType = "unknown"
)

// DetectFileType identifies the type of a file based on extension and
// magic numbers.
func DetectFileType(filePath string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".deb":
		return FileTypeDEB, nil
	case ".appimage":
		if isAppImage, err := IsAppImage(filePath); err == nil && isAppImage {
			return FileTypeAppImage, nil
		}
	}

	f, err := os.Open(filePath)
	if err != nil {
		return FileTypeUnknown, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	// ELF magic: 0x7F 'E' 'L' 'F'
	if len(header) >= 4 && bytes.Equal(header[:4], []byte{0x7F, 'E', 'L', 'F'}) {
		if isAppImage, _ := hasSquashFS(f); isAppImage {
			return FileTypeAppImage, nil
		}
		return FileTypeELF, nil
	}

	// DEB magic: ar archive starting "!<arch>" with a debian-binary member
	if len(header) >= 8 && bytes.Equal(header[:8], []byte("!<arch>\n")) &&
		bytes.Contains(header[:min(len(header), 72)], []byte("debian")) {
		return FileTypeDEB, nil
	}

	// Shell script magic: #!
	if len(header) >= 2 && bytes.Equal(header[:2], []byte{'#', '!'}) {
		return FileTypeScript, nil
	}

	return FileTypeUnknown, nil
}

// IsAppImage checks if a file is an AppImage (an ELF with an embedded
// squashfs payload).
func IsAppImage(filePath string) (bool, error) {
	isElf, err := IsELF(filePath)
	if err != nil || !isElf {
		return false, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	return hasSquashFS(f)
}

// IsELF checks if a file is a valid ELF executable
func IsELF(filePath string) (bool, error) {
	f, err := elf.Open(filePath)
	if err != nil {
		return false, nil
	}
	f.Close()
	return true, nil
}

func hasSquashFS(f *os.File) (bool, error) {
	// squashfs magic: "hsqs" (little-endian) or "sqsh" (big-endian).
	// AppImages embed squashfs at various offsets, scan incrementally.
	const maxScan = 2 * 1024 * 1024
	const chunkSize = 8192

	buf := make([]byte, chunkSize)
	magicLE := []byte{'h', 's', 'q', 's'}
	magicBE := []byte{'s', 'q', 's', 'h'}

	for offset := int64(0); offset < maxScan; offset += int64(chunkSize) {
		if _, err := f.Seek(offset, 0); err != nil {
			break
		}

		n, err := f.Read(buf)
		if err != nil {
			if err == io.EOF {
				break
			}
			continue
		}
		if n < 4 {
			break
		}

		for i := 0; i <= n-4; i++ {
			if bytes.Equal(buf[i:i+4], magicLE) || bytes.Equal(buf[i:i+4], magicBE) {
				return true, nil
			}
		}
	}

	return false, nil
}
