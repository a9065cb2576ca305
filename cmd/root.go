package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/smartdoc/internal/config"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	outFormat string

	// Loaded configuration
	cfg *cfgpkg.Global

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

var rootCmd = &cobra.Command{
	Use:   "smartdoc",
	Short: "SmartDoc: profile, explore and clean tabular data and documents",
	Long: `SmartDoc scrutinizes uploaded files (CSV, TSV, XLSX, JSON, text and office documents),
profiles them, classifies their business domain and turns the results into persona-aware
insights. The same operations are available over HTTP with "smartdoc serve".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outFormat {
		case "table", "json":
			return nil
		}
		return fmt.Errorf("unsupported --format: %s (use table|json)", outFormat)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.smartdoc/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&outFormat, "format", "table", "output format: table|json")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	level := parseLevel(cfg.LogLevel)
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// settings returns the loaded configuration, or the defaults when no command
// initializer ran (tests drive subcommands directly).
func settings() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
