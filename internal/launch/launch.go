package launch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/heuristics"
	"github.com/squashmate/squashmate/internal/logging"
	"golang.org/x/sys/unix"
)

// defaultWatchdog is how long a freshly started application is watched
// for an early crash before the launch is considered successful
const defaultWatchdog = 3 * time.Second

// Runner starts managed applications detached from squashmate, so
// closing the terminal never kills the app. Every attempt is appended
// to the application's log with the tag of the path it came through.
type Runner struct {
	fs       afero.Fs
	cfg      *config.Config
	appLogs  *logging.AppLogs
	logger   *zerolog.Logger
	watchdog time.Duration

	// access checks execute permission; swapped in tests
	access func(path string) error
}

// NewRunner creates a Runner against the real filesystem
func NewRunner(cfg *config.Config, appLogs *logging.AppLogs, logger *zerolog.Logger) *Runner {
	return &Runner{
		fs:       afero.NewOsFs(),
		cfg:      cfg,
		appLogs:  appLogs,
		logger:   logger,
		watchdog: defaultWatchdog,
		access: func(path string) error {
			return unix.Access(path, unix.X_OK)
		},
	}
}

// NewRunnerWithDeps creates a Runner with injected filesystem, access
// check and watchdog window
func NewRunnerWithDeps(fs afero.Fs, cfg *config.Config, appLogs *logging.AppLogs, logger *zerolog.Logger, access func(string) error, watchdog time.Duration) *Runner {
	return &Runner{fs: fs, cfg: cfg, appLogs: appLogs, logger: logger, access: access, watchdog: watchdog}
}

// Launch starts the application's AppRun entry point in its own
// session. It blocks for a short watchdog window: an application that
// dies inside the window counts as a failed launch, one still running
// when the window closes is on its own.
func (r *Runner) Launch(ctx context.Context, app *core.ManagedApplication, tag core.LaunchTag, extraArgs []string) error {
	entry := app.EntryPoint()

	if ok, _ := afero.Exists(r.fs, entry); !ok {
		err := fmt.Errorf("entry point %s does not exist", entry)
		r.logEvent(app.Name, tag, []string{entry}, false, err.Error())
		return err
	}
	if err := r.access(entry); err != nil {
		permErr := &core.PermissionError{Path: entry, Err: err}
		r.logEvent(app.Name, tag, []string{entry}, false, permErr.Error())
		return permErr
	}

	args := r.buildArgs(app, extraArgs)
	cmd := exec.Command(entry, args...)
	cmd.Dir = app.InstallPath
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	command := append([]string{entry}, args...)
	if err := cmd.Start(); err != nil {
		r.logEvent(app.Name, tag, command, false, err.Error())
		return fmt.Errorf("start %s: %w", app.Name, err)
	}

	r.logger.Info().
		Str("app", app.Name).
		Str("tag", string(tag)).
		Int("pid", cmd.Process.Pid).
		Msg("application started")

	// Watch for an immediate crash, then let go
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = err.Error()
			}
			r.logEvent(app.Name, tag, command, false, detail)
			return fmt.Errorf("%s exited during startup: %w", app.Name, err)
		}
		// Short-lived processes that exit cleanly are fine
		r.logEvent(app.Name, tag, command, true, "")
		return nil
	case <-time.After(r.watchdog):
		r.logEvent(app.Name, tag, command, true, "")
		return nil
	case <-ctx.Done():
		r.logEvent(app.Name, tag, command, false, ctx.Err().Error())
		return ctx.Err()
	}
}

// buildArgs applies the Electron sandbox policy. AppImage Electron
// apps commonly fail under user namespaces restrictions without
// --no-sandbox, so it is added when detection hits and config allows.
func (r *Runner) buildArgs(app *core.ManagedApplication, extraArgs []string) []string {
	args := append([]string{}, extraArgs...)
	if r.cfg.Desktop.ElectronNoSandbox && heuristics.IsElectronApp(r.fs, app.InstallPath) {
		if !contains(args, "--no-sandbox") {
			args = append(args, "--no-sandbox")
		}
	}
	return args
}

func (r *Runner) logEvent(appName string, tag core.LaunchTag, command []string, success bool, detail string) {
	if r.appLogs == nil {
		return
	}
	if err := r.appLogs.LaunchEvent(appName, string(tag), command, success, detail); err != nil {
		r.logger.Warn().Err(err).Str("app", appName).Msg("failed to append launch log")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
