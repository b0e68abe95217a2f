package dpkg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/squashmate/squashmate/internal/helpers"
	"github.com/squashmate/squashmate/internal/syspkg"
)

// ErrInspectUnavailable means dpkg-deb is not on PATH, so metadata
// must come from parsing the archive directly
var ErrInspectUnavailable = errors.New("dpkg-deb not available")

// Provider drives dpkg and apt-get through a privilege escalator.
// Mutating commands (install, fix, remove) run escalated; queries run
// as the invoking user against the dpkg database.
type Provider struct {
	runner    helpers.CommandRunner
	escalator string
	logger    *zerolog.Logger
}

// New creates a dpkg provider. escalator is "pkexec", "sudo" or
// "auto", which prefers pkexec when present.
func New(runner helpers.CommandRunner, escalator string, logger *zerolog.Logger) *Provider {
	return &Provider{runner: runner, escalator: escalator, logger: logger}
}

func (p *Provider) Name() string {
	return "dpkg"
}

// Escalator resolves the effective privilege escalation command
func (p *Provider) Escalator() (string, error) {
	switch p.escalator {
	case "pkexec", "sudo":
		if !p.runner.CommandExists(p.escalator) {
			return "", fmt.Errorf("configured escalator %q not found", p.escalator)
		}
		return p.escalator, nil
	case "", "auto":
		if p.runner.CommandExists("pkexec") {
			return "pkexec", nil
		}
		if p.runner.CommandExists("sudo") {
			return "sudo", nil
		}
		return "", errors.New("neither pkexec nor sudo found")
	default:
		return "", fmt.Errorf("unknown escalator %q", p.escalator)
	}
}

func (p *Provider) runEscalated(ctx context.Context, args ...string) (string, error) {
	esc, err := p.Escalator()
	if err != nil {
		return "", err
	}
	p.logger.Debug().Str("escalator", esc).Strs("args", args).Msg("running escalated command")

	stdout, stderr, err := p.runner.RunCommandWithOutput(ctx, esc, args...)
	output := strings.TrimSpace(stdout + "\n" + stderr)
	return output, err
}

// Inspect reads Package, Version and Depends from a local .deb using
// dpkg-deb. Returns ErrInspectUnavailable when the tool is missing.
func (p *Provider) Inspect(ctx context.Context, pkgPath string) (*syspkg.PackageInfo, error) {
	if !p.runner.CommandExists("dpkg-deb") {
		return nil, ErrInspectUnavailable
	}

	output, err := p.runner.RunCommand(ctx, "dpkg-deb", "-f", pkgPath, "Package", "Version", "Depends")
	if err != nil {
		return nil, fmt.Errorf("dpkg-deb inspection failed: %w", err)
	}

	info := &syspkg.PackageInfo{}
	for _, line := range strings.Split(output, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Package":
			info.Name = value
		case "Version":
			info.Version = value
		case "Depends":
			info.Depends = ParseDependsField(value)
		}
	}

	if info.Name == "" {
		return nil, fmt.Errorf("no Package field in %s", pkgPath)
	}
	return info, nil
}

// Install runs dpkg -i on the package file. A non-zero exit often
// just means unconfigured dependencies, which FixDependencies repairs.
func (p *Provider) Install(ctx context.Context, pkgPath string) (string, error) {
	return p.runEscalated(ctx, "dpkg", "-i", pkgPath)
}

// InstallByName installs repository packages by name through apt-get
func (p *Provider) InstallByName(ctx context.Context, names []string) (string, error) {
	if len(names) == 0 {
		return "", nil
	}
	args := append([]string{"apt-get", "install", "-y"}, names...)
	return p.runEscalated(ctx, args...)
}

// FixDependencies runs apt-get install -f to pull in whatever the
// dpkg -i pass left unconfigured
func (p *Provider) FixDependencies(ctx context.Context) (string, error) {
	return p.runEscalated(ctx, "apt-get", "install", "-f", "-y")
}

// Remove uninstalls a package by name through apt-get so reverse
// dependencies are checked
func (p *Provider) Remove(ctx context.Context, pkgName string) (string, error) {
	return p.runEscalated(ctx, "apt-get", "remove", "-y", pkgName)
}

// IsInstalled reports whether the dpkg database shows the package
// fully installed and configured
func (p *Provider) IsInstalled(ctx context.Context, pkgName string) (bool, error) {
	output, err := p.runner.RunCommand(ctx, "dpkg-query", "-W", "-f=${Status}", pkgName)
	if err != nil {
		// dpkg-query exits non-zero for unknown packages
		return false, nil
	}
	return strings.Contains(output, "install ok installed"), nil
}

// InstalledVersion returns the configured version of a package
func (p *Provider) InstalledVersion(ctx context.Context, pkgName string) (string, error) {
	output, err := p.runner.RunCommand(ctx, "dpkg-query", "-W", "-f=${Version}", pkgName)
	if err != nil {
		return "", fmt.Errorf("package %q not in dpkg database: %w", pkgName, err)
	}
	return strings.TrimSpace(output), nil
}

// ParseDependsField splits a Depends control field into bare package
// names, dropping version constraints and alternatives beyond the
// first choice.
func ParseDependsField(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}

	var deps []string
	for _, clause := range strings.Split(field, ",") {
		// "a | b" lists alternatives, keep the preferred one
		first, _, _ := strings.Cut(clause, "|")
		// strip "(>= 1.2.3)" style constraints
		name, _, _ := strings.Cut(first, "(")
		name = strings.TrimSpace(name)
		if name != "" {
			deps = append(deps, name)
		}
	}
	return deps
}
