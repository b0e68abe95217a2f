package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testListConfig(t *testing.T) *config.Config {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.AppsRoot = filepath.Join(tmpDir, "Applications")
	cfg.Paths.DataDir = filepath.Join(tmpDir, "data")
	cfg.Paths.DBFile = filepath.Join(tmpDir, "data", "tracked.db")
	cfg.Paths.LogFile = filepath.Join(tmpDir, "data", "squashmate.log")
	require.NoError(t, os.MkdirAll(cfg.Paths.DataDir, 0o755))
	return cfg
}

func TestNewListCmd(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	log := zerolog.New(io.Discard)

	cmd := NewListCmd(cfg, &log)

	assert.NotNil(t, cmd)
	assert.Contains(t, cmd.Use, "list")
	assert.NotNil(t, cmd.Flags().Lookup("json"))
	assert.NotNil(t, cmd.Flags().Lookup("kind"))
	assert.NotNil(t, cmd.Flags().Lookup("filter"))
	assert.NotNil(t, cmd.Flags().Lookup("sort"))
}

func TestListCmd_Empty(t *testing.T) {
	t.Parallel()

	cfg := testListConfig(t)
	log := zerolog.New(io.Discard)
	cmd := NewListCmd(cfg, &log)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	cmd.SetArgs([]string{})
	assert.NoError(t, cmd.Execute())
}

func TestListCmd_WithApplications(t *testing.T) {
	t.Parallel()

	cfg := testListConfig(t)
	for _, name := range []string{"cursor", "joplin"} {
		dir := filepath.Join(cfg.Paths.AppsRoot, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "AppRun"), []byte("#!/bin/sh\n"), 0o755))
	}

	log := zerolog.New(io.Discard)
	cmd := NewListCmd(cfg, &log)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "cursor")
	assert.Contains(t, buf.String(), "joplin")
}

func TestListCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	cfg := testListConfig(t)
	dir := filepath.Join(cfg.Paths.AppsRoot, "cursor")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AppRun"), []byte("#!/bin/sh\n"), 0o755))

	log := zerolog.New(io.Discard)
	cmd := NewListCmd(cfg, &log)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	cmd.SetArgs([]string{"--json"})
	require.NoError(t, cmd.Execute())

	var items []core.InstalledItem
	require.NoError(t, json.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, core.KindManagedApp, items[0].Kind)
	assert.Equal(t, "cursor", items[0].App.Name)
}

func TestListCmd_FilterExcludesEverything(t *testing.T) {
	t.Parallel()

	cfg := testListConfig(t)
	dir := filepath.Join(cfg.Paths.AppsRoot, "cursor")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AppRun"), []byte("#!/bin/sh\n"), 0o755))

	log := zerolog.New(io.Discard)
	cmd := NewListCmd(cfg, &log)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	cmd.SetArgs([]string{"--filter", "nomatchhere"})
	assert.NoError(t, cmd.Execute())
	assert.NotContains(t, buf.String(), "cursor")
}

func TestFilterItems(t *testing.T) {
	t.Parallel()

	items := []core.InstalledItem{
		{Kind: core.KindManagedApp, App: &core.ManagedApplication{Name: "Cursor"}},
		{Kind: core.KindManagedApp, App: &core.ManagedApplication{Name: "joplin-desktop"}},
		{Kind: core.KindNativePackage, Pkg: &core.NativePackageRecord{Name: "zoom"}},
	}

	byKind := filterItems(items, "deb", "")
	require.Len(t, byKind, 1)
	assert.Equal(t, "zoom", byKind[0].Pkg.Name)

	// Fuzzy match tolerates missing characters and case
	byName := filterItems(items, "", "jpln")
	require.Len(t, byName, 1)
	assert.Equal(t, "joplin-desktop", byName[0].App.Name)

	both := filterItems(items, "app", "cur")
	require.Len(t, both, 1)
	assert.Equal(t, "Cursor", both[0].App.Name)
}

func TestSortItems(t *testing.T) {
	t.Parallel()

	now := time.Now()
	base := []core.InstalledItem{
		{Kind: core.KindNativePackage, Pkg: &core.NativePackageRecord{Name: "zoom"}},
		{Kind: core.KindManagedApp, App: &core.ManagedApplication{Name: "Beta", SizeBytes: 10, InstalledAt: now.Add(-time.Hour)}},
		{Kind: core.KindManagedApp, App: &core.ManagedApplication{Name: "alpha", SizeBytes: 500, InstalledAt: now}},
	}

	items := append([]core.InstalledItem(nil), base...)
	sortItems(items, "name")
	assert.Equal(t, "alpha", items[0].DisplayName())
	assert.Equal(t, "Beta", items[1].DisplayName())
	assert.Equal(t, "zoom", items[2].DisplayName())

	items = append([]core.InstalledItem(nil), base...)
	sortItems(items, "kind")
	assert.Equal(t, core.KindManagedApp, items[0].Kind)
	assert.Equal(t, core.KindNativePackage, items[2].Kind)

	items = append([]core.InstalledItem(nil), base...)
	sortItems(items, "size")
	assert.Equal(t, "alpha", items[0].DisplayName())
	assert.Equal(t, "zoom", items[2].DisplayName())

	items = append([]core.InstalledItem(nil), base...)
	sortItems(items, "date")
	assert.Equal(t, "alpha", items[0].DisplayName())
	assert.Equal(t, "zoom", items[2].DisplayName())

	// Unknown field falls back to name
	items = append([]core.InstalledItem(nil), base...)
	sortItems(items, "bogus")
	assert.Equal(t, "alpha", items[0].DisplayName())
}

func TestPrintTable(t *testing.T) {
	t.Parallel()

	items := []core.InstalledItem{
		{Kind: core.KindManagedApp, App: &core.ManagedApplication{
			Name:        "cursor",
			SizeBytes:   2048,
			InstalledAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		}},
		{Kind: core.KindNativePackage, Pkg: &core.NativePackageRecord{Name: "zoom", Version: ""}},
	}

	var buf bytes.Buffer
	fakeCmd := &cobra.Command{}
	fakeCmd.SetOut(&buf)

	printTable(fakeCmd, items)

	out := buf.String()
	assert.Contains(t, out, "cursor")
	assert.Contains(t, out, "zoom")
	assert.Contains(t, out, "2025-06-01")
	// Empty package version renders as a dash
	assert.Contains(t, out, "-")
}
