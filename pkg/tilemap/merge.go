package tilemap

import (
	"errors"
	"fmt"
	"time"

	"overworld/pkg/grid"
)

// ErrBadObservation marks an observation whose shape does not match
// the merger's configured window. The merge is rejected whole.
var ErrBadObservation = errors.New("observation does not match configured window")

// Observation is one windowed rectangle of classifier labels with the
// agent at a fixed cell inside it.
type Observation struct {
	Labels [][]TileLabel `json:"labels"`
}

// Merger folds observations into an AreaMap. The window shape and the
// agent's offset inside it are fixed per deployment; the solid label
// set drives the only traversal inference the classifier is trusted
// with.
type Merger struct {
	Rows     int
	Cols     int
	AgentRow int
	AgentCol int
	solid    map[TileLabel]bool
}

// NewMerger configures a merger for a Rows×Cols window with the agent
// at (agentRow, agentCol). Labels in solid mark Unknown tiles Blocked.
func NewMerger(rows, cols, agentRow, agentCol int, solid []TileLabel) *Merger {
	set := make(map[TileLabel]bool, len(solid))
	for _, l := range solid {
		set[l] = true
	}
	return &Merger{Rows: rows, Cols: cols, AgentRow: agentRow, AgentCol: agentCol, solid: set}
}

// Merge applies one observation to m with the agent at agentCoord.
//
// Terrain is overwritten unconditionally: the classifier is noisy and
// the newest read wins. Traversal is only inferred for Unknown tiles
// whose label is definitely solid; walkability is never asserted from
// vision alone. The stale Player marker is cleared first, and the
// agent's tile is marked Player afterwards unless it is a Transition.
func (mg *Merger) Merge(m *AreaMap, agentCoord grid.Coord, obs *Observation) error {
	if obs == nil || len(obs.Labels) != mg.Rows {
		return fmt.Errorf("%w: got %d rows, want %d", ErrBadObservation, rowCount(obs), mg.Rows)
	}
	for _, row := range obs.Labels {
		if len(row) != mg.Cols {
			return fmt.Errorf("%w: got %d cols, want %d", ErrBadObservation, len(row), mg.Cols)
		}
	}

	if prev, ok := m.Traversal.Find(Player); ok {
		m.Traversal.Set(prev, Walkable)
	}

	for r := 0; r < mg.Rows; r++ {
		for c := 0; c < mg.Cols; c++ {
			world := grid.Coord{
				X: agentCoord.X + (c - mg.AgentCol),
				Y: agentCoord.Y + (r - mg.AgentRow),
			}
			label := obs.Labels[r][c]
			m.Terrain.Set(world, label)
			if m.Traversal.Get(world) == Unknown && mg.solid[label] {
				m.Traversal.Set(world, Blocked)
			}
		}
	}

	if m.Traversal.Get(agentCoord) != Transition {
		m.Traversal.Set(agentCoord, Player)
	}
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func rowCount(obs *Observation) int {
	if obs == nil {
		return 0
	}
	return len(obs.Labels)
}
