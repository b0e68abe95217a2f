package main

import (
	"context"
	"testing"

	"github.com/squashmate/squashmate/internal/cmd"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoad(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.Paths.AppsRoot)
}

func TestLoggerInitialization(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: cfg.Logging.Color == "never",
	})
	assert.NotNil(t, log)
}

func TestRootCommandExecutes(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: true,
	})

	rootCmd := cmd.NewRootCmd(cfg, log, version)
	rootCmd.SetArgs([]string{"version"})
	assert.NoError(t, rootCmd.ExecuteContext(context.Background()))
}
