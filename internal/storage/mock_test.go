package storage

import (
	"context"
	"errors"
	"testing"

	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/tilemap"
)

func TestMockStorage_SaveAndLoadAreaMap(t *testing.T) {
	mockStorage := NewMockStorage()
	ctx := context.Background()

	m := testAreaMap()
	if err := mockStorage.SaveAreaMap(ctx, m); err != nil {
		t.Fatalf("Failed to save area map: %v", err)
	}

	loaded, err := mockStorage.LoadAreaMap(ctx, m.ID)
	if err != nil {
		t.Fatalf("Failed to load area map: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil area map")
	}
	if got := loaded.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Player {
		t.Errorf("traversal (5,5) = %q, want Player", got)
	}

	// The stored record is a copy: mutating the live map afterwards
	// must not change it.
	m.Traversal.Set(grid.Coord{X: 5, Y: 5}, tilemap.Blocked)
	reloaded, err := mockStorage.LoadAreaMap(ctx, m.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Player {
		t.Errorf("stored record mutated through live map: %q", got)
	}
}

func TestMockStorage_LoadNonExistentAreaMap(t *testing.T) {
	mockStorage := NewMockStorage()

	loaded, err := mockStorage.LoadAreaMap(context.Background(), "map_9_9")
	if err != nil {
		t.Fatalf("Expected no error for non-existent map, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for non-existent map")
	}
}

func TestMockStorage_SaveErrors(t *testing.T) {
	mockStorage := NewMockStorage()
	ctx := context.Background()

	wantErr := errors.New("disk full")
	mockStorage.SetSaveError(wantErr)

	if err := mockStorage.SaveAreaMap(ctx, testAreaMap()); !errors.Is(err, wantErr) {
		t.Errorf("SaveAreaMap err = %v, want %v", err, wantErr)
	}
	if err := mockStorage.AppendDecision(ctx, &Decision{Session: "s"}); !errors.Is(err, wantErr) {
		t.Errorf("AppendDecision err = %v, want %v", err, wantErr)
	}
}

func TestMockStorage_DecisionsNewestFirst(t *testing.T) {
	mockStorage := NewMockStorage()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d := &Decision{Session: "s", Number: i, Action: input.Right}
		if err := mockStorage.AppendDecision(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recs, err := mockStorage.RecentDecisions(ctx, "s", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Number != 4 || recs[2].Number != 2 {
		t.Errorf("order = [%d %d %d], want newest first", recs[0].Number, recs[1].Number, recs[2].Number)
	}
}

func TestMockStorage_PingError(t *testing.T) {
	mockStorage := NewMockStorage()
	if err := mockStorage.Ping(context.Background()); err != nil {
		t.Errorf("default ping should succeed: %v", err)
	}

	mockStorage.SetPingError(errors.New("down"))
	if err := mockStorage.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}
