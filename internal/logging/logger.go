// Package logging provides leveled logging and generation tracing for agentgen.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A TraceLogger for structured JSONL generation events (~/.agentgen/trace.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-agent sampling detail.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// TraceLogger appends generation events to a JSONL file, one object per line.
// It is safe for concurrent use. A nil TraceLogger is valid and drops every
// event, so callers never need to check whether tracing is on.
type TraceLogger struct {
	mu   sync.Mutex
	file *os.File
}

// TraceFile is the name of the trace file inside the agentgen directory.
const TraceFile = "trace.jsonl"

// NewTraceLogger opens dir/trace.jsonl for append when level is "debug" or
// "trace". At "info" it returns nil. It also returns nil when the file cannot
// be opened: tracing never blocks generation.
func NewTraceLogger(dir string, level string) *TraceLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, TraceFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &TraceLogger{file: f}
}

// Event writes one event line with the given name and fields. "event" and
// "time" keys are added; fields is not mutated.
func (tl *TraceLogger) Event(name string, fields map[string]any) {
	if tl == nil || tl.file == nil {
		return
	}

	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["event"] = name
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.file == nil {
		return
	}
	_, _ = tl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (tl *TraceLogger) Close() {
	if tl == nil {
		return
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file != nil {
		tl.file.Close()
		tl.file = nil
	}
}
