package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "luxd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "storage:\n  data_dir: /tmp/luxd-test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, "/tmp/luxd-test", cfg.Storage.DataDir)
	require.Equal(t, 5*time.Second, cfg.Control.LockoutWindow)
	require.Equal(t, time.Second, cfg.Control.DebounceCooldown)
	require.False(t, cfg.NATS.Enabled)
	require.False(t, cfg.Watcher.Disabled)
	require.False(t, cfg.Scheduler.Disabled)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
storage:
  data_dir: ./fixture-data
control:
  lockout_window: 10s
  debounce_cooldown: 250ms
nats:
  enabled: true
  url: nats://example:4222
  subject: fixtures.lighting
archive:
  enabled: true
watcher:
  disabled: true
scheduler:
  disabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.HTTP.Port)
	require.Equal(t, 10*time.Second, cfg.Control.LockoutWindow)
	require.Equal(t, 250*time.Millisecond, cfg.Control.DebounceCooldown)
	require.True(t, cfg.NATS.Enabled)
	require.Equal(t, "nats://example:4222", cfg.NATS.URL)
	require.True(t, cfg.Archive.Enabled)
	require.True(t, cfg.Watcher.Disabled)
	require.True(t, cfg.Scheduler.Disabled)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("LUXD_TEST_DATA_DIR", "/srv/luxd")
	path := writeConfig(t, "storage:\n  data_dir: ${LUXD_TEST_DATA_DIR}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/luxd", cfg.Storage.DataDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryConfig))
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	path := writeConfig(t, "http:\n  port: 70000\n")
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryConfig))
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "http: [not a mapping\n")
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryConfig))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	require.Equal(t, 8080, cfg.HTTP.Port)
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luxd.yaml")

	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, 5*time.Second, cfg.Control.LockoutWindow)
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luxd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 9999\n"), 0o644))

	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.HTTP.Port)
}
