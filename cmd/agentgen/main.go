package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gophecy/agentgen/internal/config"
	"github.com/gophecy/agentgen/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agentgen",
		Short: "Agent population generator for opinion-dynamics simulations",
		Long: `agentgen synthesizes populations of believer, sceptic and neutral agents.

Each agent gets an opinion, a charisma and a relation toward every other
agent, a personal parameter and a subtype. Populations are written as JSON
or YAML and can be recorded in a local history or exported to MongoDB.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.agentgen/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newInspectCmd(),
		newRunsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// loadConfig loads the configuration named by --config (or the default
// file), applies --log-level and validates the result.
func loadConfig(cmd *cobra.Command) (*config.AgentgenConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger and, at debug level and below, the
// JSONL trace in ~/.agentgen. The trace is nil when disabled.
func newLogger(cmd *cobra.Command, cfg *config.AgentgenConfig) (*slog.Logger, *logging.TraceLogger) {
	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	dir, err := config.Dir()
	if err != nil {
		return logger, nil
	}
	return logger, logging.NewTraceLogger(dir, cfg.Logging.Level)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
