// Package main is the entry point for the shotwatchd screenshot daemon.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/shotwatch/internal/config"
)

const (
	appID   = "io.github.jmylchreest.shotwatchd"
	appName = "shotwatchd"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var globalOpts struct {
	verbose    bool
	configPath string
	headless   bool
}

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Screenshot watcher with a tray popover",
	Long: `shotwatchd watches your Desktop for new screenshots and shows them in a
popover toggled from the system tray.

With --headless it only watches and broadcasts the ScreenshotCreated
D-Bus signal, without any GTK windows.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDaemonConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := setupLogger(cfg)
		logger.Info("starting shotwatchd", "version", version, "headless", globalOpts.headless)

		if globalOpts.headless {
			return runHeadless(cfg, logger)
		}

		code := runDaemon(cfg, logger)
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/shotwatch/shotwatchd.toml)")
	rootCmd.Flags().BoolVar(&globalOpts.headless, "headless", false,
		"Watch and emit D-Bus signals only, without tray or popover")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogger configures the global slog logger. --verbose overrides the
// configured level.
func setupLogger(cfg *config.DaemonConfig) *slog.Logger {
	level := cfg.LogLevel()
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}
