package cmd

import (
	"github.com/josephgoksu/geotask/internal/config"
	"github.com/josephgoksu/geotask/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps persistent flags to their config keys.
var flagKeys = map[string]string{
	"verbose":   "verbose",
	"data":      "data.path",
	"log-level": "log.level",
	"log-json":  "log.json",
}

// InitConfig binds flags, loads the configuration and sets up logging and
// crash reporting for cmd.
func InitConfig(cmd *cobra.Command) error {
	v := viper.GetViper()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			_ = v.BindPFlag(key, f)
		}
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	log = logger.Init(cfg.Log.Level, cfg.Log.JSON, cmd.ErrOrStderr())
	logger.SetBasePath(cfg.Data.Path)
	logger.SetVersion(version)
	logger.SetCommand(cmd.CommandPath())

	log.Debug("config loaded", "file", v.ConfigFileUsed(), "data", cfg.Data.Path)
	return nil
}
