//go:build windows

package mcp

import (
	"os"
	"os/signal"
)

// notifySignals registers OS signal handlers for graceful shutdown.
// Windows has no SIGTERM, so only Ctrl+C stops the server.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
