package cmd

import (
	"bytes"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDoctorCmd(t *testing.T) {
	t.Parallel()

	cfg := testListConfig(t)
	log := zerolog.New(io.Discard)

	cmd := NewDoctorCmd(cfg, &log)

	assert.NotNil(t, cmd)
	assert.Equal(t, "doctor", cmd.Use)
}

func TestCheckTools(t *testing.T) {
	t.Parallel()

	runner := helpers.NewMockCommandRunner()
	runner.CommandExistsFunc = func(name string) bool { return name == "dpkg" }

	var issues, warnings []string
	checkTools(runner, []toolCheck{
		{"dpkg", "install packages", true},
		{"apt-get", "resolve dependencies", true},
		{"update-desktop-database", "refresh menu", false},
	}, &issues, &warnings)

	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "apt-get")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "update-desktop-database")
}

func TestCheckDirs(t *testing.T) {
	t.Parallel()

	cfg := testListConfig(t)
	log := zerolog.New(io.Discard)
	svc := newServices(cfg, &log)
	svc.fs = afero.NewMemMapFs()

	var issues []string
	checkDirs(svc, cfg, &issues)
	assert.Empty(t, issues)

	svc.fs = afero.NewReadOnlyFs(afero.NewMemMapFs())
	issues = nil
	checkDirs(svc, cfg, &issues)
	assert.NotEmpty(t, issues)
}

func TestDoctorCmd_Runs(t *testing.T) {
	t.Parallel()

	cfg := testListConfig(t)
	log := zerolog.New(io.Discard)
	cmd := NewDoctorCmd(cfg, &log)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	cmd.SetArgs([]string{})
	// Tool availability varies by host, so only exercise the command;
	// it may legitimately report issues on minimal systems.
	_ = cmd.Execute()
}
