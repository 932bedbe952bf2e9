package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "store:\n  path: /tmp/tasks.db\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/tasks.db", cfg.Store.Path)
	require.Equal(t, 7, cfg.Projection.DefaultDays)
	require.Equal(t, 60, cfg.Rollover.LookbackDays)
	interval, err := cfg.Rollover.ParsedInterval()
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, interval)
	require.Equal(t, "dayplan", cfg.Events.SubjectPrefix)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DAYPLAN_TEST_DB", "/var/data/p.db")
	path := writeConfig(t, "store:\n  path: ${DAYPLAN_TEST_DB}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/data/p.db", cfg.Store.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "store: [broken\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	// The generated file must parse.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 60, cfg.Rollover.LookbackDays)
}
