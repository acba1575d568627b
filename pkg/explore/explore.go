// Package explore tracks where the agent has recently been, detects
// when it is stuck in a loop, and suggests which direction to explore
// next.
package explore

import (
	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/tilemap"
)

const (
	historyCap  = 20
	stuckWindow = 10
	// The window check activates before the history fills so a cold
	// start parked on one tile still trips detection.
	stuckMinSamples = 8
	stuckDistinct   = 3
	stuckThreshold  = 3
	scanRadius      = 4
)

// Position is one (area, coordinate) history sample.
type Position struct {
	Area  tilemap.AreaID
	Coord grid.Coord
}

// Tracker owns the agent's recent position history and per-area
// visited sets. All state is in-memory and discardable across
// restarts.
type Tracker struct {
	positions []Position
	visited   map[tilemap.AreaID]map[grid.Coord]bool
	stuck     int
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{visited: make(map[tilemap.AreaID]map[grid.Coord]bool)}
}

// Record appends one position sample and updates stuck detection.
// Call once per decision cycle.
func (t *Tracker) Record(area tilemap.AreaID, c grid.Coord) {
	t.positions = append(t.positions, Position{Area: area, Coord: c})
	if len(t.positions) > historyCap {
		t.positions = t.positions[len(t.positions)-historyCap:]
	}

	if t.visited[area] == nil {
		t.visited[area] = make(map[grid.Coord]bool)
	}
	t.visited[area][c] = true

	if len(t.positions) < stuckMinSamples {
		return
	}
	window := stuckWindow
	if len(t.positions) < window {
		window = len(t.positions)
	}
	distinct := make(map[Position]bool, window)
	for _, p := range t.positions[len(t.positions)-window:] {
		distinct[p] = true
	}
	if len(distinct) <= stuckDistinct {
		t.stuck++
	} else if t.stuck > 0 {
		t.stuck--
	}
}

// IsStuck reports whether recent movement has been confined to a
// small set of positions.
func (t *Tracker) IsStuck() bool {
	return t.stuck >= stuckThreshold
}

// VisitedCount returns how many distinct coordinates have been
// visited in area.
func (t *Tracker) VisitedCount(area tilemap.AreaID) int {
	return len(t.visited[area])
}

// HasVisited reports whether c in area was ever recorded.
func (t *Tracker) HasVisited(area tilemap.AreaID, c grid.Coord) bool {
	return t.visited[area][c]
}

// TransitionHint is a known transition seen along one direction.
type TransitionHint struct {
	Dir      input.Direction
	Distance int
}

// Suggestion is the advisor's read of the map around the agent.
type Suggestion struct {
	Unexplored  []input.Direction
	Transitions []TransitionHint
	Walkable    []input.Direction
	Suggested   input.Direction // empty when there is nothing to try
	Stuck       bool
}

// Suggest scans outward from the Player marker, classifying each
// direction by what lies along it within a few tiles.
//
// Priority: nearest unexplored direction, unless stuck, when known
// transitions are preferred to force progress; then any walkable
// direction.
func (t *Tracker) Suggest(m *tilemap.AreaMap) Suggestion {
	s := Suggestion{Stuck: t.IsStuck()}

	player, ok := m.PlayerCoord()
	if !ok {
		return s
	}

	seenUnexplored := map[input.Direction]bool{}
	seenTransition := map[input.Direction]bool{}
	for dist := 1; dist <= scanRadius; dist++ {
		for _, dir := range input.Directions {
			dx, dy := dir.Delta()
			c := player.Step(dx*dist, dy*dist)
			if !m.Traversal.Contains(c) {
				continue
			}
			switch m.Traversal.Get(c) {
			case tilemap.Unknown:
				if !seenUnexplored[dir] {
					seenUnexplored[dir] = true
					s.Unexplored = append(s.Unexplored, dir)
				}
			case tilemap.Transition:
				if !seenTransition[dir] {
					seenTransition[dir] = true
					s.Transitions = append(s.Transitions, TransitionHint{Dir: dir, Distance: dist})
				}
			case tilemap.Walkable:
				if dist == 1 {
					s.Walkable = append(s.Walkable, dir)
				}
			}
		}
	}

	switch {
	case len(s.Unexplored) > 0 && !s.Stuck:
		s.Suggested = s.Unexplored[0]
	case len(s.Transitions) > 0:
		s.Suggested = s.Transitions[0].Dir
	case len(s.Walkable) > 0:
		s.Suggested = s.Walkable[0]
	}
	return s
}
