package deb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/db"
	"github.com/squashmate/squashmate/internal/logging"
	"github.com/squashmate/squashmate/internal/syspkg"
	"github.com/squashmate/squashmate/internal/syspkg/dpkg"
)

// Stage names a step of the native package install sequence
type Stage string

const (
	StageValidated            Stage = "validated"
	StageMetadataExtracted    Stage = "metadata-extracted"
	StageDependenciesResolved Stage = "dependencies-resolved"
	StageInstalled            Stage = "installed"
	StageVerified             Stage = "verified"
)

// Installer drives a .deb file through validation, metadata
// extraction, system installation, dependency repair and verification.
// Each stage outcome is appended to the shared deb log so a failed
// install can be traced after the fact.
type Installer struct {
	fs       afero.Fs
	provider syspkg.Provider
	tracker  *db.TrackingDB
	appLogs  *logging.AppLogs
	logger   *zerolog.Logger

	// ResolveDependencies pre-installs declared dependencies before
	// dpkg runs. Failures here are advisory only; the apt-get -f pass
	// after dpkg -i is what actually guarantees a configured install.
	ResolveDependencies bool

	// OnStage, when set, is called after every stage transition.
	// Used by the CLI for progress display.
	OnStage func(stage Stage, success bool, detail string)
}

// NewInstaller creates an installer
func NewInstaller(fs afero.Fs, provider syspkg.Provider, tracker *db.TrackingDB, appLogs *logging.AppLogs, logger *zerolog.Logger) *Installer {
	return &Installer{fs: fs, provider: provider, tracker: tracker, appLogs: appLogs, logger: logger}
}

// Install runs the full sequence and returns the verified package
// record. The returned error is always one of the typed install
// errors so the CLI can report which stage failed.
func (i *Installer) Install(ctx context.Context, pkgPath string) (*core.NativePackageRecord, error) {
	start := time.Now()

	// Validation: the file must be a real Debian archive before any
	// escalated command touches it
	if err := i.validate(pkgPath); err != nil {
		i.logStage(pkgPath, StageValidated, time.Since(start), false, err.Error())
		return nil, err
	}
	i.logStage(pkgPath, StageValidated, time.Since(start), true, "")

	// Metadata: prefer dpkg-deb, fall back to parsing the archive
	stageStart := time.Now()
	info, err := i.inspect(ctx, pkgPath)
	if err != nil {
		i.logStage(pkgPath, StageMetadataExtracted, time.Since(stageStart), false, err.Error())
		return nil, err
	}
	i.logStage(info.Name, StageMetadataExtracted, time.Since(stageStart), true,
		fmt.Sprintf("%s %s, %d dependencies", info.Name, info.Version, len(info.Depends)))

	// Optional pre-resolution: install declared dependencies that the
	// dpkg database does not know yet. Failures here are advisory, the
	// apt-get -f pass after dpkg -i still runs either way.
	if i.ResolveDependencies && len(info.Depends) > 0 {
		stageStart = time.Now()
		missing, resolveErr := i.preResolve(ctx, info)
		if resolveErr != nil {
			i.logStage(info.Name, StageDependenciesResolved, time.Since(stageStart), false, resolveErr.Error())
		} else {
			i.logStage(info.Name, StageDependenciesResolved, time.Since(stageStart), true,
				fmt.Sprintf("%d missing dependencies pre-installed", len(missing)))
		}
	}

	// Install: dpkg -i, then apt-get install -f when dependencies are
	// missing. dpkg failing on dependencies is the expected path for
	// desktop packages, not an error yet.
	stageStart = time.Now()
	output, installErr := i.provider.Install(ctx, pkgPath)
	if installErr != nil {
		i.logger.Warn().Err(installErr).Str("package", info.Name).Msg("dpkg reported errors, resolving dependencies")
		fixOutput, fixErr := i.provider.FixDependencies(ctx)
		if fixErr != nil {
			err := &core.InstallError{Package: info.Name, Output: output + "\n" + fixOutput, Err: fixErr}
			i.logStage(info.Name, StageInstalled, time.Since(stageStart), false, fixErr.Error())
			return nil, err
		}
	}
	i.logStage(info.Name, StageInstalled, time.Since(stageStart), true, "")

	// Verification: the dpkg database must agree the package is
	// installed and configured at the expected version
	stageStart = time.Now()
	if err := i.verify(ctx, info); err != nil {
		i.logStage(info.Name, StageVerified, time.Since(stageStart), false, err.Error())
		return nil, err
	}
	i.logStage(info.Name, StageVerified, time.Since(stageStart), true, "")

	if i.tracker != nil {
		if err := i.tracker.Track(ctx, &db.TrackedPackage{
			Name:       info.Name,
			Version:    info.Version,
			Depends:    info.Depends,
			SourceFile: pkgPath,
		}); err != nil {
			i.logger.Warn().Err(err).Str("package", info.Name).Msg("failed to record package in tracking database")
		}
	}

	i.logger.Info().
		Str("package", info.Name).
		Str("version", info.Version).
		Dur("elapsed", time.Since(start)).
		Msg("native package installed")

	return &core.NativePackageRecord{
		Name:    info.Name,
		Version: info.Version,
		Depends: info.Depends,
	}, nil
}

func (i *Installer) preResolve(ctx context.Context, info *syspkg.PackageInfo) ([]string, error) {
	var missing []string
	for _, dep := range info.Depends {
		installed, err := i.provider.IsInstalled(ctx, dep)
		if err == nil && !installed {
			missing = append(missing, dep)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	i.logger.Info().Strs("missing", missing).Str("package", info.Name).Msg("pre-installing dependencies")
	if output, err := i.provider.InstallByName(ctx, missing); err != nil {
		i.logger.Warn().Err(err).Str("output", output).Msg("dependency pre-install failed, relying on apt-get -f")
		return missing, fmt.Errorf("pre-install %d dependencies: %w", len(missing), err)
	}
	return missing, nil
}

func (i *Installer) validate(pkgPath string) error {
	f, err := i.fs.Open(pkgPath)
	if err != nil {
		return &core.FormatError{Path: pkgPath, Reason: "cannot open file"}
	}
	defer f.Close()

	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil || string(magic[:]) != arMagic {
		return &core.FormatError{Path: pkgPath, Reason: "not a Debian package"}
	}
	return nil
}

func (i *Installer) inspect(ctx context.Context, pkgPath string) (*syspkg.PackageInfo, error) {
	info, err := i.provider.Inspect(ctx, pkgPath)
	if err == nil {
		return info, nil
	}
	if errors.Is(err, dpkg.ErrInspectUnavailable) {
		i.logger.Debug().Msg("dpkg-deb unavailable, parsing control archive directly")
		return InspectFile(i.fs, pkgPath)
	}
	var metaErr *core.MetadataError
	if errors.As(err, &metaErr) {
		return nil, err
	}
	return nil, &core.MetadataError{Path: pkgPath, Err: err}
}

func (i *Installer) verify(ctx context.Context, info *syspkg.PackageInfo) error {
	installed, err := i.provider.IsInstalled(ctx, info.Name)
	if err != nil {
		return &core.VerificationError{Package: info.Name, Expected: info.Version, Found: ""}
	}
	if !installed {
		return &core.VerificationError{Package: info.Name, Expected: info.Version, Found: "not installed"}
	}

	version, err := i.provider.InstalledVersion(ctx, info.Name)
	if err != nil {
		return &core.VerificationError{Package: info.Name, Expected: info.Version, Found: ""}
	}
	if info.Version != "" && version != info.Version {
		return &core.VerificationError{Package: info.Name, Expected: info.Version, Found: version}
	}
	return nil
}

func (i *Installer) logStage(pkg string, stage Stage, elapsed time.Duration, success bool, detail string) {
	if i.OnStage != nil {
		i.OnStage(stage, success, detail)
	}
	if i.appLogs == nil {
		return
	}
	if err := i.appLogs.DebStage(pkg, string(stage), elapsed, success, detail); err != nil {
		i.logger.Warn().Err(err).Msg("failed to append deb log")
	}
}
