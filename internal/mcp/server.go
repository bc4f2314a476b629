// Package mcp provides an MCP (Model Context Protocol) server for agentgen.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gophecy/agentgen/internal/logging"
	"github.com/gophecy/agentgen/internal/pathutil"
	"github.com/gophecy/agentgen/internal/ratelimit"
	"github.com/gophecy/agentgen/internal/store"
)

// Server wraps the MCP SDK server with the agentgen tools.
type Server struct {
	server      *sdk.Server
	root        string
	allowedDirs []string
	runs        store.RunStore
	logger      *slog.Logger
	trace       *logging.TraceLogger
	auditLogger *AuditLogger
	limiters    ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "agentgen")
	Version string
	Root    string // Working root; output paths must stay inside it

	// Runs records generated populations when non-nil. The server closes it.
	Runs store.RunStore

	Logger *slog.Logger
	Trace  *logging.TraceLogger

	// AuditDir receives audit.jsonl. Empty disables the audit log.
	AuditDir string

	// Limits throttles tool calls. Nil applies ratelimit.DefaultToolLimits;
	// an empty map disables throttling.
	Limits map[string]ratelimit.Limit
}

// NewServer creates a new MCP server with the agentgen tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("server root is required")
	}

	allowed, err := pathutil.AllowedOutputDirs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directories: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("info", os.Stderr)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	limits := cfg.Limits
	if limits == nil {
		limits = ratelimit.DefaultToolLimits
	}

	s := &Server{
		server:      mcpServer,
		root:        cfg.Root,
		allowedDirs: allowed,
		runs:        cfg.Runs,
		logger:      logger,
		trace:       cfg.Trace,
		limiters:    ratelimit.NewToolLimiters(limits),
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
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

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases the run store and the audit log.
func (s *Server) Close() error {
	var firstErr error
	if s.runs != nil {
		if err := s.runs.Close(); err != nil {
			firstErr = err
		}
		s.runs = nil
	}
	if err := s.auditLogger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.auditLogger = nil
	return firstErr
}
