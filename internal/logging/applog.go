package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const banner = "============================================================"

// AppLogs manages the human-readable append-only logs kept next to the
// main log: one per managed application (launches and install/uninstall
// events for that application) and one shared log for native-package
// operations. Files are opened lazily on first write and only ever
// appended to; they are removed exclusively by an explicit
// remove-everything uninstall.
type AppLogs struct {
	dataDir string
	now     func() time.Time
}

// NewAppLogs creates an AppLogs rooted at the per-user data directory.
func NewAppLogs(dataDir string) *AppLogs {
	return &AppLogs{dataDir: dataDir, now: time.Now}
}

// AppLogPath returns the log file path for one application.
func (l *AppLogs) AppLogPath(appName string) string {
	return filepath.Join(l.dataDir, "apps", appName+".log")
}

// DebLogPath returns the shared native-package operations log path.
func (l *AppLogs) DebLogPath() string {
	return filepath.Join(l.dataDir, "deb_packages.log")
}

// LaunchEvent appends a tagged launch block to an application's log.
func (l *AppLogs) LaunchEvent(appName, tag string, command []string, success bool, errorOutput string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", banner)
	fmt.Fprintf(&b, "%s: %s\n", tag, l.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Command: %s\n", strings.Join(command, " "))
	fmt.Fprintf(&b, "Status: %s\n", statusWord(success))
	if !success && errorOutput != "" {
		fmt.Fprintf(&b, "\nError Output:\n%s\n", errorOutput)
	}
	fmt.Fprintf(&b, "%s\n", banner)

	return l.append(l.AppLogPath(appName), b.String())
}

// InstallEvent appends an install or uninstall block to an application's log.
func (l *AppLogs) InstallEvent(appName, event string, success bool, detail string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", banner)
	fmt.Fprintf(&b, "%s: %s\n", event, l.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Status: %s\n", statusWord(success))
	if detail != "" {
		fmt.Fprintf(&b, "%s\n", detail)
	}
	fmt.Fprintf(&b, "%s\n", banner)

	return l.append(l.AppLogPath(appName), b.String())
}

// DebStage appends one package-install stage transition to the shared
// native-package log.
func (l *AppLogs) DebStage(pkgName, stage string, elapsed time.Duration, success bool, detail string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-22s %-8s %s", l.now().Format("2006-01-02 15:04:05"), stage, statusWord(success), pkgName)
	if elapsed > 0 {
		fmt.Fprintf(&b, "  (%s)", elapsed.Round(time.Millisecond))
	}
	b.WriteString("\n")
	if detail != "" {
		fmt.Fprintf(&b, "    %s\n", strings.ReplaceAll(strings.TrimSpace(detail), "\n", "\n    "))
	}

	return l.append(l.DebLogPath(), b.String())
}

// RemoveAppLog deletes one application's log. Used only by the
// remove-everything uninstall path.
func (l *AppLogs) RemoveAppLog(appName string) error {
	err := os.Remove(l.AppLogPath(appName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove app log: %w", err)
	}
	return nil
}

// ReadAppLog returns the full contents of one application's log.
func (l *AppLogs) ReadAppLog(appName string) (string, error) {
	data, err := os.ReadFile(l.AppLogPath(appName))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read app log: %w", err)
	}
	return string(data), nil
}

func (l *AppLogs) append(path, block string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(block); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

func statusWord(success bool) string {
	if success {
		return "SUCCESS"
	}
	return "FAILED"
}
