package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/config"
	"github.com/v0xg/hatter/internal/engine"
	"github.com/v0xg/hatter/internal/observability"
)

var (
	configPath string
	verbose    bool
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hatter",
		Short: "Run, compile and generate browser test plans",
		Long: `hatter drives a real browser through a JSON command plan, reports the
outcome with screenshots, and compiles the same plan into a standalone script.

Example:
  hatter run login.json --gif login.gif
  hatter compile login.json --target puppeteer -o login.js
  hatter generate "https://myapp.com" "sign up with a random email" --run`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	rootCmd.AddCommand(
		newRunCmd(),
		newCompileCmd(),
		newScrapeCmd(),
		newServeCmd(),
		newGenerateCmd(),
	)
	return rootCmd
}

// setup loads the configuration and the global logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Logger.Level = "debug"
	}
	return cfg, observability.InitializeLogger(cfg.Logger), nil
}

// newEngine builds an engine recording to the default Prometheus registry.
func newEngine() (*engine.Engine, *config.Config, *zap.Logger, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}
	return engine.New(cfg, logger, observability.DefaultMetrics()), cfg, logger, nil
}

func readPlan(path string) (*command.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read command file: %w", err)
	}
	return command.ParsePlan(data)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
