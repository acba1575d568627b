package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"time"

	"overworld/internal/storage"
	"overworld/pkg/grid"
	"overworld/pkg/navgraph"
	"overworld/pkg/tilemap"
)

func main() {
	backend := getEnv("STORAGE_BACKEND", "redis")

	store, err := openStorage(backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	validator := &MapValidator{}
	if err := validator.validateStore(ctx, store); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Stored maps are consistent!")
}

func openStorage(backend string) (storage.Storage, error) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	switch backend {
	case "redis":
		return storage.NewRedisStorage(getEnv("REDIS_ADDR", "localhost:6379"), log), nil
	case "sqlite":
		return storage.NewSQLiteStorage(getEnv("SQLITE_PATH", "overworld.db"), log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

type MapValidator struct {
	errors []string
}

func (v *MapValidator) validateStore(ctx context.Context, store storage.Storage) error {
	ids, err := store.ListAreaMaps(ctx)
	if err != nil {
		return fmt.Errorf("failed to list area maps: %w", err)
	}
	graph, err := store.LoadGraph(ctx)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	fmt.Printf("Validating %d stored area maps...\n", len(ids))

	known := make(map[tilemap.AreaID]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	v.errors = nil
	for _, id := range ids {
		m, err := store.LoadAreaMap(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", id, err)
		}
		v.validateMap(m)
	}
	v.validateGraph(graph, known)

	if len(v.errors) > 0 {
		for _, e := range v.errors {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("%d problems found", len(v.errors))
	}
	return nil
}

func (v *MapValidator) validateMap(m *tilemap.AreaMap) {
	if !isValidAreaID(string(m.ID)) {
		v.addError(fmt.Sprintf("area %s: malformed id", m.ID))
	}
	if m.ID != tilemap.MakeAreaID(m.Group, m.Number) {
		v.addError(fmt.Sprintf("area %s: id does not match group/number (%d,%d)", m.ID, m.Group, m.Number))
	}
	if m.Terrain == nil || m.Traversal == nil {
		v.addError(fmt.Sprintf("area %s: missing grids", m.ID))
		return
	}

	players := 0
	m.Traversal.ForEach(func(c grid.Coord, s tilemap.TraversalStatus) {
		if s == tilemap.Player {
			players++
		}
	})
	if players > 1 {
		v.addError(fmt.Sprintf("area %s: %d player markers, at most 1 expected", m.ID, players))
	}
	if m.VisitCount < 1 {
		v.addError(fmt.Sprintf("area %s: stored but never visited", m.ID))
	}
}

func (v *MapValidator) validateGraph(g *navgraph.Graph, known map[tilemap.AreaID]bool) {
	for _, area := range g.Areas() {
		for _, conn := range g.Connections(area) {
			if !known[conn.ToArea] {
				v.addError(fmt.Sprintf("connection %s -> %s: destination map not stored", conn.FromArea, conn.ToArea))
			}
			if !v.hasReverse(g, conn) {
				v.addError(fmt.Sprintf("connection %s -> %s: no reciprocal entry", conn.FromArea, conn.ToArea))
			}
		}
	}
}

func (v *MapValidator) hasReverse(g *navgraph.Graph, conn navgraph.Connection) bool {
	for _, back := range g.Connections(conn.ToArea) {
		if back.ToArea == conn.FromArea && back.FromCoord == conn.ToCoord {
			return true
		}
	}
	return false
}

func (v *MapValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validAreaIDRegex = regexp.MustCompile(`^map_\d+_\d+$`)

func isValidAreaID(id string) bool {
	return validAreaIDRegex.MatchString(id)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
