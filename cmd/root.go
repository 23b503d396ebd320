/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"log/slog"
	"os"

	"github.com/josephgoksu/geotask/internal/config"
	"github.com/josephgoksu/geotask/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.1.0"

	// appConfig is resolved in PersistentPreRunE before any command runs.
	appConfig *config.AppConfig
	log       = slog.Default()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "geotask",
	Short: "geotask - location-based checklists",
	Long: `geotask keeps checklists tied to places and reminds you when you
arrive at or leave them.

Tasks live in a local SQLite database. Give a task a center and a radius and
it is registered for region monitoring; run 'geotask watch' to receive the
enter and exit reminders.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return InitConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer logger.HandlePanic()

	if err := rootCmd.Execute(); err != nil {
		PrintError(userMessage(err), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.geotask/.geotask.yaml or $HOME/.geotask.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("data", "", "data directory (default ./.geotask, $XDG_DATA_HOME/geotask or ~/.geotask)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")
}

// GetVersion returns the CLI version.
func GetVersion() string {
	return version
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.AppConfig {
	return appConfig
}
