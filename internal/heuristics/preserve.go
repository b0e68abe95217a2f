package heuristics

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Names that commonly hold per-user state inside an application
// directory. Matched case-insensitively against base names.
var userDataNames = map[string]bool{
	"config":    true,
	"configs":   true,
	"settings":  true,
	"profile":   true,
	"profiles":  true,
	"userdata":  true,
	"user-data": true,
	"data":      true,
	"cache":     false, // caches are rebuildable, never preserved
	"logs":      false,
}

// LooksLikeUserData reports whether a top-level entry name inside an
// install directory appears to hold user state worth carrying across
// an upgrade. Dotfiles and dot-directories always qualify.
func LooksLikeUserData(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	keep, known := userDataNames[strings.ToLower(name)]
	return known && keep
}

// PreserveSet lists the top-level entries of oldDir that look like user
// data and do not exist in the freshly extracted payload. Entries the
// new payload ships itself are the application's own files, not state.
func PreserveSet(appFs afero.Fs, oldDir, freshDir string) ([]string, error) {
	entries, err := afero.ReadDir(appFs, oldDir)
	if err != nil {
		return nil, err
	}

	var preserve []string
	for _, entry := range entries {
		name := entry.Name()
		if !LooksLikeUserData(name) {
			continue
		}
		inFresh, err := afero.Exists(appFs, filepath.Join(freshDir, name))
		if err != nil {
			return nil, err
		}
		if !inFresh {
			preserve = append(preserve, name)
		}
	}
	return preserve, nil
}
