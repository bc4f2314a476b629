// Package ratelimit throttles MCP tool calls with token buckets.
package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is wrapped by Check when a tool has no tokens left.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limit describes one bucket: Rate tokens per second refill a bucket
// holding at most Burst tokens. A new bucket starts full.
type Limit struct {
	Rate  float64
	Burst int
}

// PerMinute returns a limit refilling n tokens per minute.
func PerMinute(n float64, burst int) Limit {
	return Limit{Rate: n / 60, Burst: burst}
}

// Bucket is a single token bucket. It is safe for concurrent use.
type Bucket struct {
	lim *rate.Limiter
	now func() time.Time
}

// NewBucket returns a full bucket for limit.
func NewBucket(limit Limit) *Bucket {
	return newBucketAt(limit, time.Now)
}

func newBucketAt(limit Limit, now func() time.Time) *Bucket {
	return &Bucket{
		lim: rate.NewLimiter(rate.Limit(limit.Rate), limit.Burst),
		now: now,
	}
}

// Take removes one token and reports whether one was available.
func (b *Bucket) Take() bool {
	return b.lim.AllowN(b.now(), 1)
}

// ToolLimiters holds one bucket per tool name. Tools without a bucket
// are never limited.
type ToolLimiters map[string]*Bucket

// DefaultToolLimits are the limits the agentgen MCP server applies.
// Generation writes files, so it is throttled harder than inspection.
var DefaultToolLimits = map[string]Limit{
	"agentgen_generate": PerMinute(20, 5),
	"agentgen_inspect":  PerMinute(60, 10),
}

// NewToolLimiters builds fresh buckets for limits.
func NewToolLimiters(limits map[string]Limit) ToolLimiters {
	limiters := make(ToolLimiters, len(limits))
	for tool, limit := range limits {
		limiters[tool] = NewBucket(limit)
	}
	return limiters
}

// Check takes a token for tool and returns an error wrapping
// ErrRateLimited when none is left. A nil ToolLimiters allows everything.
func (l ToolLimiters) Check(tool string) error {
	b, ok := l[tool]
	if !ok {
		return nil
	}
	if !b.Take() {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, tool)
	}
	return nil
}
