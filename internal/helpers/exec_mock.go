package helpers

import (
	"context"
	"os/exec"
)

// MockCommandRunner is a mock implementation of CommandRunner for testing
type MockCommandRunner struct {
	CommandExistsFunc        func(name string) bool
	RequireCommandFunc       func(name string) error
	RunCommandFunc           func(ctx context.Context, name string, args ...string) (string, error)
	RunCommandInDirFunc      func(ctx context.Context, dir, name string, args ...string) (string, error)
	RunCommandWithOutputFunc func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
	GetExitCodeFunc          func(err error) int
	PrepareCommandFunc       func(ctx context.Context, name string, args ...string) *exec.Cmd

	// Calls records every RunCommand/RunCommandInDir invocation as
	// name followed by its arguments.
	Calls [][]string
}

// NewMockCommandRunner creates a mock where every command exists and
// every run succeeds with empty output
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{}
}

// CommandExists implements CommandRunner.CommandExists
func (m *MockCommandRunner) CommandExists(name string) bool {
	if m.CommandExistsFunc != nil {
		return m.CommandExistsFunc(name)
	}
	return true
}

// RequireCommand implements CommandRunner.RequireCommand
func (m *MockCommandRunner) RequireCommand(name string) error {
	if m.RequireCommandFunc != nil {
		return m.RequireCommandFunc(name)
	}
	return nil
}

// RunCommand implements CommandRunner.RunCommand
func (m *MockCommandRunner) RunCommand(ctx context.Context, name string, args ...string) (string, error) {
	m.Calls = append(m.Calls, append([]string{name}, args...))
	if m.RunCommandFunc != nil {
		return m.RunCommandFunc(ctx, name, args...)
	}
	return "", nil
}

// RunCommandInDir implements CommandRunner.RunCommandInDir
func (m *MockCommandRunner) RunCommandInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	m.Calls = append(m.Calls, append([]string{name}, args...))
	if m.RunCommandInDirFunc != nil {
		return m.RunCommandInDirFunc(ctx, dir, name, args...)
	}
	return "", nil
}

// RunCommandWithOutput implements CommandRunner.RunCommandWithOutput
func (m *MockCommandRunner) RunCommandWithOutput(ctx context.Context, name string, args ...string) (stdout, stderr string, err error) {
	m.Calls = append(m.Calls, append([]string{name}, args...))
	if m.RunCommandWithOutputFunc != nil {
		return m.RunCommandWithOutputFunc(ctx, name, args...)
	}
	return "", "", nil
}

// GetExitCode implements CommandRunner.GetExitCode
func (m *MockCommandRunner) GetExitCode(err error) int {
	if m.GetExitCodeFunc != nil {
		return m.GetExitCodeFunc(err)
	}
	if err == nil {
		return 0
	}
	return 1
}

// PrepareCommand implements CommandRunner.PrepareCommand
func (m *MockCommandRunner) PrepareCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	if m.PrepareCommandFunc != nil {
		return m.PrepareCommandFunc(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...)
}
