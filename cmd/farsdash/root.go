package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farsdash/farsdash/pkg/applog"
	"github.com/farsdash/farsdash/pkg/config"
)

// Global flag values.
var (
	configPath string
	logLevel   string
	logFormat  string
	backendURL string
	noColor    bool
)

// Loaded by the root PersistentPreRunE before any subcommand runs.
var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "farsdash",
	Short: "Dashboard for alcohol-impaired traffic fatalities",
	Long: `farsdash renders a national choropleth, trend charts and risk profiles of
alcohol-impaired traffic fatalities from a pre-aggregated FARS backend.

Settings come from built-in defaults, then --config (YAML or TOML), then
FARSDASH_* environment variables, then flags.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "", "log format: json or text")
	pf.StringVar(&backendURL, "backend", "", "backend base URL")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if noColor {
		color.NoColor = true
	}
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	if backendURL != "" {
		c.BackendURL = backendURL
	}
	if err := c.Validate(); err != nil {
		return err
	}
	l, err := applog.Setup(cmd.OutOrStdout(), c.Log.Level, c.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	cfg, logger = c, l
	return nil
}
