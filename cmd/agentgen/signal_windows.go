//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals cancels in-flight history and Mongo writes on Ctrl+C.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
