/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/geotask/internal/telemetry"
	"github.com/spf13/cobra"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Manage telemetry settings",
	Long: `View and manage geotask's anonymous telemetry settings.

When enabled, geotask sends counts only: rows written per save, whether
regions were registered and whether reminders were delivered. Task names,
checklist text and coordinates are never sent.`,
}

var telemetryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current telemetry status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		store := telemetry.NewStore(fs, cfg.Data.Path)
		consent, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to read telemetry status: %w", err)
		}

		out := cmd.OutOrStdout()
		switch {
		case consent.NeedsConsent():
			fmt.Fprintln(out, "📊 Telemetry: not configured yet")
			fmt.Fprintln(out, "   To enable: geotask telemetry enable")
		case consent.IsEnabled():
			fmt.Fprintln(out, "📊 Telemetry: enabled")
			fmt.Fprintf(out, "   Anonymous ID: %s\n", consent.AnonymousID)
			if !cfg.Telemetry.Enabled || cfg.Telemetry.APIKey == "" {
				fmt.Fprintln(out, "   No events are sent: telemetry.enabled and telemetry.api_key are not both set.")
			}
			fmt.Fprintln(out, "   To disable: geotask telemetry disable")
		default:
			fmt.Fprintln(out, "📊 Telemetry: disabled")
			fmt.Fprintln(out, "   To enable: geotask telemetry enable")
		}
		return nil
	},
}

var telemetryEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable anonymous telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveConsent(cmd, true)
	},
}

var telemetryDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable anonymous telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveConsent(cmd, false)
	},
}

func saveConsent(cmd *cobra.Command, enabled bool) error {
	store := telemetry.NewStore(fs, GetConfig().Data.Path)
	consent, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to read telemetry status: %w", err)
	}
	if enabled {
		consent.Enable()
	} else {
		consent.Disable()
	}
	if err := store.Save(consent); err != nil {
		return fmt.Errorf("failed to save telemetry status: %w", err)
	}
	if enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Telemetry enabled. Thank you for helping improve geotask!")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Telemetry disabled.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	telemetryCmd.AddCommand(telemetryStatusCmd, telemetryEnableCmd, telemetryDisableCmd)
}
