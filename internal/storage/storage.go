// Package storage persists the engine's world model: area maps, the
// connectivity graph, and per-session decision records. Two backends
// exist (Redis for live runs, SQLite for durable single-file setups)
// plus a mock for tests.
package storage

import (
	"context"
	"time"

	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/navgraph"
	"overworld/pkg/tilemap"
)

// Decision is one persisted decision-cycle record.
type Decision struct {
	Session   string          `json:"session"`
	Number    int             `json:"number"`
	Action    input.Action    `json:"action"`
	Outcome   string          `json:"outcome"`
	Area      tilemap.AreaID  `json:"area"`
	Position  grid.Coord      `json:"position"`
	Facing    input.Direction `json:"facing"`
	Timestamp time.Time       `json:"timestamp"`
}

// DecisionHistoryCap bounds how many decision records a session keeps.
const DecisionHistoryCap = 100

// Storage is the persistence boundary. Load methods return (nil, nil)
// for records that were never written; absence means "never visited".
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveAreaMap(ctx context.Context, m *tilemap.AreaMap) error
	LoadAreaMap(ctx context.Context, id tilemap.AreaID) (*tilemap.AreaMap, error)
	ListAreaMaps(ctx context.Context) ([]tilemap.AreaID, error)

	SaveGraph(ctx context.Context, g *navgraph.Graph) error
	LoadGraph(ctx context.Context) (*navgraph.Graph, error)

	AppendDecision(ctx context.Context, d *Decision) error
	RecentDecisions(ctx context.Context, sessionID string, n int) ([]Decision, error)
}
