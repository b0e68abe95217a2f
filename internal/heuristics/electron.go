package heuristics

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"layeh.com/asar"
)

// IsElectronApp reports whether an installed application directory
// contains an Electron runtime. Detection checks the conventional
// resources/app.asar location first, then falls back to scanning for
// any .asar archive under the directory.
func IsElectronApp(appFs afero.Fs, appDir string) bool {
	asarPath := filepath.Join(appDir, "resources", "app.asar")
	if ok, _ := afero.Exists(appFs, asarPath); ok {
		return true
	}

	errFound := errors.New("asar found")
	err := afero.Walk(appFs, appDir, func(path string, info fs.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		name := strings.ToLower(path)
		if strings.HasSuffix(name, ".asar") && !strings.Contains(name, ".asar.unpacked") {
			return errFound
		}
		return nil
	})
	return errors.Is(err, errFound)
}

// electronManifest is the slice of package.json we care about
type electronManifest struct {
	Name        string `json:"name"`
	ProductName string `json:"productName"`
	Version     string `json:"version"`
}

// ElectronProductName reads the product name from the app.asar bundled
// package.json. Returns "" when the archive or manifest is missing or
// malformed; callers fall back to the filename-derived name.
func ElectronProductName(appFs afero.Fs, appDir string) string {
	asarPath := filepath.Join(appDir, "resources", "app.asar")
	f, err := appFs.Open(asarPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	archive, err := asar.Decode(f)
	if err != nil {
		return ""
	}

	entry := archive.Find("package.json")
	if entry == nil {
		return ""
	}
	reader := entry.Open()
	if reader == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(reader, 1<<20))
	if err != nil {
		return ""
	}

	var manifest electronManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	if manifest.ProductName != "" {
		return manifest.ProductName
	}
	return manifest.Name
}
