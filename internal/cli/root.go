// Package cli provides the command-line interface for the quote bot.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockbot/internal/config"
	"stockbot/internal/logging"
	"stockbot/internal/security"
)

// Version information
const (
	Version   = "1.0.0"
	BuildDate = "2026-10-01"
)

// NewRootCmd creates the root command. Configuration and the logger are
// loaded before any subcommand runs.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "stockbot",
		Short: "Telegram stock quote and price alert bot",
		Long: `stockbot answers quote requests for Hong Kong, US and forex symbols over
Telegram and notifies users when their stop-loss, take-profit or
percent-move rules are reached.

Use 'stockbot serve' to run the bot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			configDir, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")
			return app.init(configDir, debug)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stockbot)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newCheckCmd(app))
	rootCmd.AddCommand(newHealthCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
				return
			}
			output.Printf("stockbot v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the bot configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			masked := *app.Config
			masked.Telegram.Token = maskOrUnset(masked.Telegram.Token)
			masked.Quotes.ForexAPIKey = maskOrUnset(masked.Quotes.ForexAPIKey)
			if output.IsJSON() {
				return output.JSON(masked)
			}
			showConfig(output, &masked)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.ConfigDir})
				return
			}
			output.Println(app.ConfigDir)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			// Load already validated; a token is only needed to serve.
			if app.Config.Telegram.Token == "" {
				output.Warning("telegram.token is not set, 'serve' will refuse to start")
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Telegram")
	output.Printf("  token:          %s\n", cfg.Telegram.Token)
	output.Printf("  base_url:       %s\n", cfg.Telegram.BaseURL)
	output.Printf("  poll_timeout:   %s\n", cfg.Telegram.PollTimeout)

	output.Bold("Quotes")
	output.Printf("  hk_url:         %s\n", cfg.Quotes.HKURL)
	output.Printf("  us_url:         %s<symbol>%s\n", cfg.Quotes.USURLPrefix, cfg.Quotes.USURLSuffix)
	output.Printf("  forex_url:      %s\n", cfg.Quotes.ForexURL)
	output.Printf("  forex_api_key:  %s\n", cfg.Quotes.ForexAPIKey)
	output.Printf("  max_attempts:   %d\n", cfg.Quotes.MaxAttempts)
	output.Printf("  backoff:        %s .. %s\n", cfg.Quotes.InitialBackoff, cfg.Quotes.MaxBackoff)
	output.Printf("  fetch_timeout:  %s\n", cfg.Quotes.FetchTimeout)
	output.Printf("  concurrency:    %d\n", cfg.Quotes.MaxConcurrency)
	output.Printf("  cache:          %d entries, %s\n", cfg.Quotes.CacheSize, cfg.Quotes.CacheTTL)

	output.Bold("Notifications")
	output.Printf("  enabled:        %t\n", cfg.Notifications.Enabled)
	output.Printf("  interval:       %s\n", cfg.Notifications.Interval)

	output.Bold("Store")
	output.Printf("  driver:         %s\n", cfg.Store.Driver)
	output.Printf("  dsn:            %s\n", cfg.Store.DSN)

	output.Bold("Log")
	output.Printf("  level:          %s\n", cfg.Log.Level)
	output.Printf("  file:           %s\n", logFileLabel(cfg.Log))
}

func maskOrUnset(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return security.MaskCredential(secret)
}

func logFileLabel(cfg config.LogConfig) string {
	if !cfg.File {
		return "disabled"
	}
	return fmt.Sprintf("%s (rotated)", cfg.Path)
}

func newLogger(cfg config.LogConfig, debug bool) zerolog.Logger {
	lc := logging.DefaultLogConfig()
	lc.Level = cfg.Level
	lc.File = cfg.File
	if cfg.Path != "" {
		lc.FilePath = cfg.Path
	}
	if debug {
		lc.Level = "debug"
	}
	return logging.NewLoggerWithConfig(lc)
}
