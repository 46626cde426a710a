package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/threaddump-analysis/pkg/config"
	"github.com/threaddump-analysis/pkg/telemetry"
	"github.com/threaddump-analysis/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg             *config.Config
	logger          utils.Logger
	logFile         *os.File
	shutdownTracing telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "threaddump-analysis",
	Short: "A Java thread dump analysis tool",
	Long: `threaddump-analysis parses Java thread dumps (jstack or kill -3 output)
and reports thread states, lock contention, deadlock cycles and stuck
threads, with suggestions for each finding.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		if verbose {
			cfg.Log.Level = "debug"
		}
		out, err := logOutput(cfg.Log.OutputPath, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		logger = utils.NewLogger(cfg.Log.Level, cfg.Log.Format, out)
		utils.SetGlobalLogger(logger)

		shutdown, err := telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Tracing disabled: %v", err)
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTracing != nil {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Warn("Failed to flush traces: %v", err)
			}
		}
		if logFile != nil {
			return logFile.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./config.yaml or ./configs/config.yaml)")

	binName := BinName()
	rootCmd.Example = `  # Analyze a jstack dump
  ` + binName + ` analyze -i ./jstack.txt

  # Analyze several dumps in parallel and print JSON
  ` + binName + ` analyze -i ./a.txt -i ./b.txt --json

  # Start the HTTP API
  ` + binName + ` serve --port 8080`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	if logger == nil {
		return utils.GetGlobalLogger()
	}
	return logger
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// logOutput opens path for appending, or returns fallback when path is empty.
// JSON mode sends logs to stderr to keep stdout parseable.
func logOutput(path string, fallback io.Writer) (io.Writer, error) {
	if path == "" {
		if jsonOutput {
			return os.Stderr, nil
		}
		return fallback, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	return f, nil
}
