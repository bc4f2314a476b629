package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gophecy/agentgen/internal/sanitize"
)

// AuditFile is the name of the tool-call audit log.
const AuditFile = "audit.jsonl"

// AuditEntry records one MCP tool invocation without file contents.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends entries to a JSONL file. It is safe for concurrent
// use, and a nil AuditLogger is a no-op.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for appending. On failure it prints
// a warning to stderr and returns nil.
func NewAuditLogger(dir string) *AuditLogger {
	if err := os.MkdirAll(dir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create audit log directory %s: %v\n", dir, err)
		return nil
	}

	path := filepath.Join(dir, AuditFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open audit log %s: %v\n", path, err)
		return nil
	}
	return &AuditLogger{file: f}
}

// Log appends entry as one JSON line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = a.file.Write(data)
}

// Close closes the log file.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// safeAuditParams are logged with their values; any other known parameter
// is logged as "(set)" so paths never reach the audit file.
var safeAuditParams = map[string]bool{
	"believers":        true,
	"sceptics":         true,
	"neutrals":         true,
	"random_relations": true,
	"charisma":         true,
	"personal":         true,
	"format":           true,
	"seed":             true,
}

// sanitizeToolParams keeps safe values, masks the rest, and always records
// how many parameters were supplied.
func sanitizeToolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}

	result := make(map[string]string, len(params)+1)
	for key, val := range params {
		if safeAuditParams[key] {
			result[key] = sanitize.Value(fmt.Sprintf("%v", val))
		} else {
			result[key] = "(set)"
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", len(params))
	return result
}

func (s *Server) auditTool(tool string, start time.Time, err error, params map[string]string) {
	entry := AuditEntry{
		Timestamp:  start,
		Tool:       tool,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     "success",
		Params:     params,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}
	s.auditLogger.Log(entry)
}
