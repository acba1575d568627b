// Package session gives each engine run a stable identity and records
// its decisions through storage.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"overworld/internal/logger"
	"overworld/internal/storage"
	"overworld/pkg/input"
	"overworld/pkg/outcome"
)

// Recorder appends one decision record per cycle under a session
// UUID. Persistence is fire-and-forget: failures are logged and never
// fail the cycle.
type Recorder struct {
	id     uuid.UUID
	seq    int
	store  storage.Storage
	logger *slog.Logger
}

// NewRecorder starts a fresh session.
func NewRecorder(store storage.Storage, log *slog.Logger) *Recorder {
	id := uuid.New()
	return &Recorder{
		id:     id,
		store:  store,
		logger: logger.WithSession(log, id.String()),
	}
}

// ID returns the session identifier.
func (r *Recorder) ID() uuid.UUID {
	return r.id
}

// Record logs one decision cycle. Errors are swallowed after logging.
func (r *Recorder) Record(ctx context.Context, action input.Action, o outcome.Outcome, snap outcome.Snapshot) {
	r.seq++
	d := &storage.Decision{
		Session:   r.id.String(),
		Number:    r.seq,
		Action:    action,
		Outcome:   string(o.Kind),
		Area:      snap.Area,
		Position:  snap.Pos,
		Facing:    snap.Facing,
		Timestamp: time.Now().UTC(),
	}
	if err := r.store.AppendDecision(ctx, d); err != nil {
		r.logger.Warn("Failed to persist decision record", "number", r.seq, "error", err)
	}
}

// Recent returns the last n records for this session, newest first.
func (r *Recorder) Recent(ctx context.Context, n int) ([]storage.Decision, error) {
	return r.store.RecentDecisions(ctx, r.id.String(), n)
}
