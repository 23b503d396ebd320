// Package config loads geotask settings from flags, environment, an optional
// .env file and an optional .geotask.yaml config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = ".geotask"
	envPrefix  = "GEOTASK"

	// DefaultServerAddr is where `geotask serve` listens.
	DefaultServerAddr = "127.0.0.1:8787"
)

// AppConfig is the resolved configuration.
type AppConfig struct {
	Verbose     bool              `mapstructure:"verbose"`
	Log         LogConfig         `mapstructure:"log"`
	Data        DataConfig        `mapstructure:"data"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Platform    PlatformConfig    `mapstructure:"platform"`
	Permissions PermissionsConfig `mapstructure:"permissions"`
	Server      ServerConfig      `mapstructure:"server"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type DataConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type SyncConfig struct {
	// TransactionalFlush wraps each session flush in one transaction.
	// When false, writes are attempted one by one and failures are logged.
	TransactionalFlush bool `mapstructure:"transactional_flush"`
}

type PlatformConfig struct {
	TaskName string `mapstructure:"task_name" validate:"required"`
	Inbox    string `mapstructure:"inbox" validate:"required"`
}

type PermissionsConfig struct {
	File string `mapstructure:"file" validate:"required"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

var validate = validator.New()

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	return validate.Struct(c)
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("data.path", "")
	v.SetDefault("sync.transactional_flush", true)
	v.SetDefault("platform.task_name", "geotask-geofence")
	v.SetDefault("platform.inbox", "")
	v.SetDefault("permissions.file", "")
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.api_key", "")
	v.SetDefault("telemetry.endpoint", "")
}

// Load reads .env, the environment and the config file into v and returns
// the validated configuration. cfgFile, when non-empty, must exist.
func Load(v *viper.Viper, cfgFile string) (*AppConfig, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if info, err := os.Stat(LocalDataDir); err == nil && info.IsDir() {
			v.AddConfigPath(LocalDataDir)
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Paths derived from the data directory.
	if cfg.Data.Path == "" {
		cfg.Data.Path = GetDataPath(v)
	}
	if cfg.Platform.Inbox == "" {
		cfg.Platform.Inbox = filepath.Join(cfg.Data.Path, "inbox")
	}
	if cfg.Permissions.File == "" {
		cfg.Permissions.File = filepath.Join(cfg.Data.Path, "permissions.yaml")
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// RegionsFile returns the region registration file path.
func (c *AppConfig) RegionsFile() string {
	return filepath.Join(c.Data.Path, "regions.yaml")
}
