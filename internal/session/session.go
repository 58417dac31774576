// Package session owns the per-request lifecycle: a UUID identity, one
// Event stream, one cancellation handle, and the usage telemetry
// accumulated while it runs (spec.md §3, "Session").
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"insightpipeline/internal/events"
)

// Status is the coarse lifecycle stage of a Session.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusComplete Status = "complete"
	StatusFailed  Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Session exclusively owns its Event bus and cancellation handle; no
// state is shared across sessions (spec.md §3). Documents retrieved
// during a run live only on this Session's stack and are discarded at
// session end — nothing here persists them.
type Session struct {
	ID        string
	Topic     string
	CreatedAt time.Time
	Bus       *events.Bus

	cancel context.CancelFunc

	mu     sync.Mutex
	status Status
	usage  []UsageRecord
}

// New mints a Session with a fresh UUID, derives a cancellable context
// from parent, and wires a bus sized by backlog.
func New(parent context.Context, topic string, backlog int) (*Session, context.Context) {
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:        id,
		Topic:     topic,
		CreatedAt: time.Now(),
		Bus:       events.NewBus(id, backlog),
		cancel:    cancel,
		status:    StatusPending,
	}
	return s, ctx
}

// Cancel releases the session's context. Safe to call multiple times.
func (s *Session) Cancel() {
	s.cancel()
}

// Status returns the current lifecycle stage.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus transitions the session's lifecycle stage.
func (s *Session) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// RecordUsage appends a UsageRecord. Counters are monotone: a Session's
// usage log only ever grows (spec.md §3, "UsageRecord" invariant).
func (s *Session) RecordUsage(rec UsageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = append(s.usage, rec)
	if s.Bus != nil {
		s.Bus.Publish(events.ModelUsage, "llm", 0, events.ModelUsageData{
			Provider:     rec.Provider,
			Model:        rec.Model,
			InputTokens:  rec.InputTokens,
			OutputTokens: rec.OutputTokens,
			WallTimeMS:   rec.WallTimeMS,
		})
	}
}

// UsageSnapshot returns a copy of the usage log accumulated so far.
func (s *Session) UsageSnapshot() []UsageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UsageRecord, len(s.usage))
	copy(out, s.usage)
	return out
}

// UsageTotals sums input/output tokens and wall time across every
// recorded UsageRecord, keyed for the report's metadata block.
func (s *Session) UsageTotals() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inputTokens, outputTokens int
	var wallTimeMS int64
	for _, r := range s.usage {
		inputTokens += r.InputTokens
		outputTokens += r.OutputTokens
		wallTimeMS += r.WallTimeMS
	}
	return map[string]interface{}{
		"total_input_tokens":  inputTokens,
		"total_output_tokens": outputTokens,
		"total_wall_time_ms":  wallTimeMS,
		"model_calls":         len(s.usage),
	}
}
