package helpers

import (
	"path/filepath"
	"strings"
)

var (
	archSuffixTokens = map[string]struct{}{
		"x86": {}, "x64": {}, "x86_64": {}, "x86-64": {}, "amd64": {},
		"arm": {}, "arm64": {}, "aarch64": {}, "armhf": {}, "armv7": {},
		"i386": {}, "i686": {}, "ia32": {},
	}
	platformSuffixTokens = map[string]struct{}{
		"linux": {}, "unix": {}, "gnu": {}, "glibc": {}, "musl": {},
		"appimage": {}, "portable": {}, "release": {}, "setup": {},
	}
	releaseSuffixPrefixes = []string{"rc", "beta", "alpha", "nightly", "snapshot", "preview"}
)

// DeriveLogicalName derives the logical application name from a bundle
// file path: the filename with extension, version numbers, architecture
// and platform suffixes stripped, then formatted for display. The result
// uniquely identifies the application's managed directory, so
// "Cursor-1.2.AppImage" and "Cursor-1.3.AppImage" map to the same name.
func DeriveLogicalName(bundlePath string) string {
	base := filepath.Base(bundlePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := CleanAppName(base)
	if cleaned == "" {
		cleaned = base
	}
	return FormatDisplayName(cleaned)
}

// CleanAppName removes version numbers, architecture, and platform
// suffixes from a bundle base name.
func CleanAppName(baseName string) string {
	// Treat underscores as separators for suffix stripping
	tokens := strings.FieldsFunc(baseName, func(r rune) bool {
		return r == '-' || r == '_'
	})

	// Walk backwards removing suffix tokens
	for len(tokens) > 1 {
		last := strings.Trim(strings.ToLower(tokens[len(tokens)-1]), " ._")
		if isSuffixToken(last) {
			tokens = tokens[:len(tokens)-1]
		} else {
			break
		}
	}

	return strings.Join(tokens, "-")
}

// NormalizeFilename lowercases a name and strips characters unsafe for
// file and package names.
func NormalizeFilename(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "_", "-")

	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// FormatDisplayName converts a cleaned bundle name to a human-readable
// display name, e.g. "joplin-desktop" -> "Joplin Desktop".
func FormatDisplayName(name string) string {
	display := strings.ReplaceAll(name, "-", " ")
	display = strings.ReplaceAll(display, "_", " ")

	words := strings.Fields(display)
	for i, word := range words {
		upper := strings.ToUpper(word)
		if isCommonAcronym(upper) {
			words[i] = upper
			continue
		}
		// Preserve mixed-case words the publisher chose (e.g. "GIMP",
		// "VSCodium"); only title-case all-lowercase words.
		if word == strings.ToLower(word) {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}

	return strings.Join(words, " ")
}

func isSuffixToken(token string) bool {
	if token == "" {
		return true
	}
	if _, ok := archSuffixTokens[token]; ok {
		return true
	}
	if _, ok := platformSuffixTokens[token]; ok {
		return true
	}
	if isVersionToken(token) {
		return true
	}
	for _, prefix := range releaseSuffixPrefixes {
		if strings.HasPrefix(token, prefix) && isVersionToken(strings.TrimPrefix(token, prefix)) {
			return true
		}
	}
	return false
}

// isVersionToken reports whether a token looks like a version number:
// optional leading 'v' then digits, dots, and build separators only.
func isVersionToken(token string) bool {
	token = strings.TrimPrefix(token, "v")
	if token == "" {
		return true
	}
	hasDigit := false
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == '+' || r == '~':
		default:
			return false
		}
	}
	return hasDigit
}

func isCommonAcronym(word string) bool {
	switch word {
	case "IDE", "SDK", "CLI", "GUI", "ESR", "OSS", "API", "JDK", "VPN":
		return true
	}
	return false
}
