package extract

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/helpers"
)

const extractTimeout = 5 * time.Minute

// Extraction is the result of unpacking a bundle into a staging area
type Extraction struct {
	// StagingDir is the temp directory owning the payload, removed by Cleanup
	StagingDir string
	// PayloadDir is the squashfs-root tree inside StagingDir
	PayloadDir string
	Elapsed    time.Duration
}

// BundleExtractor unpacks AppImage bundles by invoking their embedded
// self-extraction mode, which needs no FUSE and no external tools.
// When self-extraction fails it falls back to unsquashfs if available.
type BundleExtractor struct {
	fs     afero.Fs
	runner helpers.CommandRunner
	logger *zerolog.Logger
}

// New creates an extractor against the real filesystem
func New(logger *zerolog.Logger) *BundleExtractor {
	return NewWithDeps(afero.NewOsFs(), helpers.NewOSCommandRunner(), logger)
}

// NewWithDeps creates an extractor with injected fs and runner
func NewWithDeps(fs afero.Fs, runner helpers.CommandRunner, logger *zerolog.Logger) *BundleExtractor {
	return &BundleExtractor{fs: fs, runner: runner, logger: logger}
}

// Extract unpacks bundlePath into a fresh staging directory and
// returns the payload location. The caller owns the staging directory
// and must call Cleanup when done with it.
func (e *BundleExtractor) Extract(ctx context.Context, bundlePath string) (*Extraction, error) {
	start := time.Now()

	// Every outcome, failure included, gets one main-log line with the
	// bundle and the elapsed time
	fail := func(err error) (*Extraction, error) {
		e.logger.Error().
			Str("bundle", filepath.Base(bundlePath)).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("bundle extraction failed")
		return nil, err
	}

	absPath, err := filepath.Abs(bundlePath)
	if err != nil {
		return fail(&core.ExtractionError{Bundle: bundlePath, Reason: "resolve path", Err: err})
	}

	if ok, statErr := afero.Exists(e.fs, absPath); statErr != nil || !ok {
		return fail(&core.ExtractionError{Bundle: bundlePath, Reason: "bundle not found", Err: statErr})
	}

	// Self-extraction runs the bundle as a program
	if err := e.fs.Chmod(absPath, 0o755); err != nil {
		return fail(&core.ExtractionError{Bundle: bundlePath, Reason: "make executable", Err: err})
	}

	stagingDir, err := afero.TempDir(e.fs, "", "squashmate-extract-")
	if err != nil {
		return fail(&core.ExtractionError{Bundle: bundlePath, Reason: "create staging dir", Err: err})
	}

	if err := e.unpack(ctx, absPath, stagingDir); err != nil {
		_ = e.fs.RemoveAll(stagingDir)
		return fail(err)
	}

	payloadDir := filepath.Join(stagingDir, "squashfs-root")
	if ok, _ := afero.DirExists(e.fs, payloadDir); !ok {
		_ = e.fs.RemoveAll(stagingDir)
		return fail(&core.ExtractionError{Bundle: bundlePath, Reason: "no squashfs-root in extraction output"})
	}

	elapsed := time.Since(start)
	e.logger.Info().
		Str("bundle", filepath.Base(bundlePath)).
		Dur("elapsed", elapsed).
		Msg("bundle extracted")

	return &Extraction{StagingDir: stagingDir, PayloadDir: payloadDir, Elapsed: elapsed}, nil
}

func (e *BundleExtractor) unpack(ctx context.Context, absPath, stagingDir string) error {
	extractCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	_, err := e.runner.RunCommandInDir(extractCtx, stagingDir, absPath, "--appimage-extract")
	if err == nil {
		return nil
	}

	e.logger.Warn().Err(err).Msg("--appimage-extract failed, trying unsquashfs")

	if !e.runner.CommandExists("unsquashfs") {
		return &core.ExtractionError{Bundle: absPath, Reason: "self-extraction failed and unsquashfs not found", Err: err}
	}

	if _, err := e.runner.RunCommandInDir(extractCtx, stagingDir, "unsquashfs", "-d", "squashfs-root", absPath); err != nil {
		return &core.ExtractionError{Bundle: absPath, Reason: "unsquashfs failed", Err: err}
	}
	return nil
}

// Cleanup removes the staging directory of a finished extraction
func (e *BundleExtractor) Cleanup(x *Extraction) {
	if x == nil || x.StagingDir == "" {
		return
	}
	if err := e.fs.RemoveAll(x.StagingDir); err != nil {
		e.logger.Warn().Err(err).Str("dir", x.StagingDir).Msg("failed to remove staging dir")
	}
}
