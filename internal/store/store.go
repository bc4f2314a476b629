// Package store defines the RunStore interface for recording generated
// populations and querying them later.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gophecy/agentgen/internal/population"
)

// ErrRunNotFound is returned when no run matches an ID or ID prefix.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRunID is returned when an ID prefix matches more than one run.
var ErrAmbiguousRunID = errors.New("run id prefix is ambiguous")

// Run describes one generation pass.
type Run struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Seed       uint64             `json:"seed"`
	Options    population.Options `json:"options"`
	OutputPath string             `json:"output_path,omitempty"`
	AgentCount int                `json:"agent_count"`
}

// RunStore defines the interface for storing and querying generation runs.
type RunStore interface {
	// SaveRun records a run and its population. An empty run ID gets a new
	// UUID and a zero CreatedAt is set to now; the stored run is returned.
	SaveRun(ctx context.Context, run Run, agents []population.Agent) (Run, error)

	// ListRuns returns every run, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// GetRun returns the run whose ID equals or uniquely starts with id.
	GetRun(ctx context.Context, id string) (*Run, error)

	// LoadAgents rebuilds the population of a run in generation order.
	LoadAgents(ctx context.Context, id string) ([]population.Agent, error)

	// DeleteRun removes a run and its population.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}
