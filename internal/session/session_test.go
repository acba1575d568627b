package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"overworld/internal/storage"
	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/outcome"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRecorder_RecordAndRecent(t *testing.T) {
	store := storage.NewMockStorage()
	r := NewRecorder(store, testLogger())
	ctx := context.Background()

	snap := outcome.Snapshot{
		Area:   "map_3_0",
		Pos:    grid.Coord{X: 5, Y: 5},
		Facing: input.North,
	}
	r.Record(ctx, input.Up, outcome.Outcome{Kind: outcome.KindMoved}, snap)
	r.Record(ctx, input.A, outcome.Outcome{Kind: outcome.KindInteracted}, snap)

	recs, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Number != 2 || recs[0].Action != input.A {
		t.Errorf("newest record = %+v, want number 2 action A", recs[0])
	}
	if recs[0].Session != r.ID().String() {
		t.Errorf("session = %q, want %q", recs[0].Session, r.ID())
	}
}

func TestRecorder_SwallowsPersistenceFailure(t *testing.T) {
	store := storage.NewMockStorage()
	store.SetSaveError(errors.New("redis down"))
	r := NewRecorder(store, testLogger())

	// Must not panic or surface the error.
	r.Record(context.Background(), input.Up, outcome.Outcome{Kind: outcome.KindMoved}, outcome.Snapshot{})
}
