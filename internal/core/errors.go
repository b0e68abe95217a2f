package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation-stage failures that abort before any
// mutation occurs.
var (
	// ErrConfirmationMismatch is returned when the uninstall confirmation
	// token does not exactly match the item's display name.
	ErrConfirmationMismatch = errors.New("confirmation token does not match item name")

	// ErrOperationInFlight is returned when a second install or uninstall
	// is requested for a logical application that already has one running.
	ErrOperationInFlight = errors.New("an operation is already in flight for this application")
)

// ExtractionError reports a failed bundle self-extraction. The managed
// tree is untouched when this is returned.
type ExtractionError struct {
	Bundle string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction of %s failed: %s: %v", e.Bundle, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction of %s failed: %s", e.Bundle, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PlanningError reports that the managed root cannot be created or is not
// writable.
type PlanningError struct {
	Root string
	Err  error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("cannot plan install under %s: %v", e.Root, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// PermissionError reports a failed chmod on a generated desktop entry or
// wrapper. It is non-fatal: the application remains launchable directly.
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot set permissions on %s: %v", e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// FormatError reports that a file does not have the expected package
// container format.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s is not a valid package: %s", e.Path, e.Reason)
}

// MetadataError reports a failure to read package metadata. It always
// aborts before any system mutation.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("cannot read package metadata from %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// InstallError reports that the package tool failed to install.
type InstallError struct {
	Package string
	Output  string
	Err     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("installation of %s failed: %v", e.Package, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// VerificationError reports that the package tool claimed success but the
// package database does not agree. Surfaced distinctly from InstallError
// because the operator response differs: inspect system state rather than
// retry.
type VerificationError struct {
	Package  string
	Expected string
	Found    string
}

func (e *VerificationError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("package %s reported installed but absent from package database", e.Package)
	}
	return fmt.Sprintf("package %s verification mismatch: expected %s, found %s", e.Package, e.Expected, e.Found)
}

// UninstallError reports a failed removal. The item's prior state is left
// intact as far as can be determined; callers re-query rather than assume.
type UninstallError struct {
	Item string
	Err  error
}

func (e *UninstallError) Error() string {
	return fmt.Sprintf("uninstall of %s failed: %v", e.Item, e.Err)
}

func (e *UninstallError) Unwrap() error { return e.Err }
