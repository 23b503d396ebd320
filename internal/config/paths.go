package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LocalDataDir is the per-directory data location checked before XDG and home.
const LocalDataDir = ".geotask"

// GetGlobalDataDir returns ~/.geotask. It is a variable so tests can
// override it.
var GetGlobalDataDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LocalDataDir), nil
}

// GetDataPath returns the directory holding the database, the region
// registration file, the event inbox and crash logs.
// Resolution order (first match wins):
// 1. "data.path" from flag, env or config file
// 2. ./.geotask if it exists
// 3. $XDG_DATA_HOME/geotask
// 4. ~/.geotask
func GetDataPath(v *viper.Viper) string {
	if path := v.GetString("data.path"); path != "" {
		return path
	}

	if info, err := os.Stat(LocalDataDir); err == nil && info.IsDir() {
		return LocalDataDir
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "geotask")
	}

	dir, err := GetGlobalDataDir()
	if err != nil {
		return "./" + LocalDataDir
	}
	return dir
}
