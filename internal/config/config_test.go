package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Sync.TransactionalFlush)
	assert.Equal(t, "geotask-geofence", cfg.Platform.TaskName)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, filepath.Join(cfg.Data.Path, "inbox"), cfg.Platform.Inbox)
	assert.Equal(t, filepath.Join(cfg.Data.Path, "permissions.yaml"), cfg.Permissions.File)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	data := t.TempDir()
	t.Setenv("GEOTASK_DATA_PATH", data)
	t.Setenv("GEOTASK_SYNC_TRANSACTIONAL_FLUSH", "false")
	t.Setenv("GEOTASK_LOG_LEVEL", "DEBUG")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, data, cfg.Data.Path)
	assert.False(t, cfg.Sync.TransactionalFlush)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(data, "regions.yaml"), cfg.RegionsFile())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  path: /var/lib/geotask
platform:
  task_name: my-fence
server:
  addr: 0.0.0.0:9000
`), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/geotask", cfg.Data.Path)
	assert.Equal(t, "my-fence", cfg.Platform.TaskName)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(viper.New(), "/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEOTASK_DATA_PATH", t.TempDir())
	t.Setenv("GEOTASK_LOG_LEVEL", "loud")

	_, err := Load(viper.New(), "")
	assert.Error(t, err)
}

func TestGetDataPath_Order(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_DATA_HOME", "/xdg")

	v := viper.New()
	assert.Equal(t, "/xdg/geotask", GetDataPath(v))

	require.NoError(t, os.Mkdir(filepath.Join(dir, LocalDataDir), 0755))
	assert.Equal(t, LocalDataDir, GetDataPath(v))

	v.Set("data.path", "/explicit")
	assert.Equal(t, "/explicit", GetDataPath(v))
}

func TestGetDataPath_HomeFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")
	orig := GetGlobalDataDir
	t.Cleanup(func() { GetGlobalDataDir = orig })
	GetGlobalDataDir = func() (string, error) { return "/home/u/.geotask", nil }

	assert.Equal(t, "/home/u/.geotask", GetDataPath(viper.New()))
}
