package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// validPackageNameRegex allows alphanumeric, dash, underscore, dot and space
	validPackageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._ -]+$`)

	// validVersionRegex allows standard version formats
	validVersionRegex = regexp.MustCompile(`^[a-zA-Z0-9._+:~-]+$`)
)

// ValidateAppName validates a logical application or package name before
// it is used as a directory or file name component.
func ValidateAppName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("name too long (max 255 characters)")
	}

	if !validPackageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid name %q: must contain only alphanumeric, space, dash, underscore, or dot characters", name)
	}

	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid name %q: must not start with a dot or contain path traversal", name)
	}

	return nil
}

// ValidateVersion validates a package version string
func ValidateVersion(version string) error {
	if version == "" {
		return nil
	}
	if !validVersionRegex.MatchString(version) {
		return fmt.Errorf("invalid version %q", version)
	}
	return nil
}

// ValidatePathWithin ensures target resolves to a path inside root,
// preventing traversal out of the managed tree.
func ValidatePathWithin(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve target: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %s escapes %s", target, root)
	}
	return nil
}
