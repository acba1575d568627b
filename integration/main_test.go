//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"overworld/integration/emulator"
	"overworld/internal/bridge"
	"overworld/internal/config"
	"overworld/internal/decide"
	"overworld/internal/engine"
	"overworld/internal/storage"
	"overworld/pkg/grid"
	"overworld/pkg/tilemap"
)

func TestMain(m *testing.M) {
	fmt.Println("Running Overworld Agent Integration Tests")
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testTuning() config.Tuning {
	return config.Tuning{
		Vision: config.Vision{Rows: 3, Cols: 3, AgentRow: 1, AgentCol: 1, SolidLabels: []string{"tree"}},
		Settle: config.Settle{MinMs: 1, TimeoutMs: 100, PollMs: 1, DialogueWindowMs: 2},
		// Save often so a short run still persists.
		SaveEvery: 5,
	}
}

// TestExploreSession runs the full stack against a simulated room:
// websocket bridge, explore decider, engine, Redis persistence.
func TestExploreSession(t *testing.T) {
	em := emulator.New(5, 5)
	defer em.Close()

	mr := miniredis.RunT(t)
	store := storage.NewRedisStorage(mr.Addr(), testLogger())
	defer func() {
		require.NoError(t, store.Close())
	}()

	ctx := context.Background()
	client, err := bridge.Dial(ctx, em.URL(), "integration-test", testLogger())
	require.NoError(t, err)
	defer client.Close()

	decider, err := decide.New("explore", rand.New(rand.NewSource(99)))
	require.NoError(t, err)

	eng, err := engine.New(testTuning(), testLogger(), store, client, client, client, client, decider)
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		require.NoError(t, eng.Cycle(ctx), "cycle %d", i)
	}

	// The active map tracks the emulator's ground truth.
	m := eng.ActiveArea()
	require.NotNil(t, m)
	require.Equal(t, tilemap.AreaID("map_9_9"), m.ID)

	playerAt, ok := m.PlayerCoord()
	require.True(t, ok, "player marker missing")
	require.Equal(t, em.Position(), playerAt)

	// Walking around a 5x5 room for 60 cycles explores a good chunk.
	require.GreaterOrEqual(t, m.Traversal.Count(), 8, "too few explored tiles")

	// The persisted copy is fresh enough to contain the map.
	saved, err := store.LoadAreaMap(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, saved, "area map never persisted")
	require.Equal(t, m.ID, saved.ID)

	// Trees at the border come in as solid labels and classify Blocked.
	blocked := 0
	saved.Traversal.ForEach(func(c grid.Coord, s tilemap.TraversalStatus) {
		if s == tilemap.Blocked {
			require.False(t, insideRoom(c), "blocked marker inside open room at %v", c)
			blocked++
		}
	})
	require.Greater(t, blocked, 0, "no wall tiles discovered")
}

func insideRoom(c grid.Coord) bool {
	return c.X >= 0 && c.X < 5 && c.Y >= 0 && c.Y < 5
}
