package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gophecy/agentgen/internal/config"
	"github.com/gophecy/agentgen/internal/mcp"
	"github.com/gophecy/agentgen/internal/store"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools:
  agentgen_generate  generate a population and write it under --root
  agentgen_inspect   check and summarize a population file

Output paths are confined to --root and ~/.agentgen/exports. Tool calls
are audited to ~/.agentgen/audit.jsonl. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving root: %w", err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, trace := newLogger(cmd, cfg)
			defer trace.Close()

			appDir, err := config.Dir()
			if err != nil {
				return err
			}

			serverCfg := &mcp.Config{
				Name:     "agentgen",
				Version:  version,
				Root:     absRoot,
				Logger:   logger,
				Trace:    trace,
				AuditDir: appDir,
			}
			if cfg.History.Enabled {
				dbPath, err := cfg.HistoryPath()
				if err != nil {
					return err
				}
				runs, err := store.NewSQLiteRunStore(dbPath)
				if err != nil {
					return fmt.Errorf("failed to open run history: %w", err)
				}
				serverCfg.Runs = runs
			}

			server, err := mcp.NewServer(serverCfg)
			if err != nil {
				if serverCfg.Runs != nil {
					serverCfg.Runs.Close()
				}
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			logger.Info("mcp server starting", "root", absRoot, "history", cfg.History.Enabled)
			if err := server.Run(cmd.Context()); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}

	wd, _ := os.Getwd()
	cmd.Flags().String("root", wd, "Working root; generated files must stay inside it")
	return cmd
}
