// Package navgraph tracks which areas connect to which, and answers
// area-level shortest-path queries.
package navgraph

import (
	"encoding/json"

	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/tilemap"
)

// Connection is one directed transition edge between two areas.
type Connection struct {
	FromArea  tilemap.AreaID  `json:"from_area"`
	FromCoord grid.Coord      `json:"from_coord"`
	ToArea    tilemap.AreaID  `json:"to_area"`
	ToCoord   grid.Coord      `json:"to_coord"`
	Direction input.Direction `json:"direction"`
}

// Graph is the adjacency of discovered areas. Not safe for concurrent
// use; the decision loop is its only writer.
type Graph struct {
	adj map[tilemap.AreaID][]Connection
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: make(map[tilemap.AreaID][]Connection)}
}

// Connect records a crossing and its reverse edge. Both directions are
// deduplicated by (fromArea, fromCoord, toArea): re-crossing a known
// transition adds nothing.
func (g *Graph) Connect(c Connection) {
	g.upsert(c)
	g.upsert(Connection{
		FromArea:  c.ToArea,
		FromCoord: c.ToCoord,
		ToArea:    c.FromArea,
		ToCoord:   c.FromCoord,
		Direction: c.Direction.Opposite(),
	})
}

func (g *Graph) upsert(c Connection) {
	for _, existing := range g.adj[c.FromArea] {
		if existing.FromCoord == c.FromCoord && existing.ToArea == c.ToArea {
			return
		}
	}
	g.adj[c.FromArea] = append(g.adj[c.FromArea], c)
}

// Connections returns every known edge out of area.
func (g *Graph) Connections(area tilemap.AreaID) []Connection {
	return g.adj[area]
}

// Areas returns every area with at least one edge.
func (g *Graph) Areas() []tilemap.AreaID {
	out := make([]tilemap.AreaID, 0, len(g.adj))
	for a := range g.adj {
		out = append(out, a)
	}
	return out
}

// ShortestAreaPath returns the area sequence from a to b inclusive,
// found by unweighted BFS, or nil if b is unreachable. Unreachable is
// an answer, not an error.
func (g *Graph) ShortestAreaPath(a, b tilemap.AreaID) []tilemap.AreaID {
	if a == b {
		return []tilemap.AreaID{a}
	}

	type node struct {
		area tilemap.AreaID
		path []tilemap.AreaID
	}
	visited := map[tilemap.AreaID]bool{}
	queue := []node{{area: a, path: []tilemap.AreaID{a}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.area] {
			continue
		}
		visited[cur.area] = true

		for _, conn := range g.adj[cur.area] {
			if conn.ToArea == b {
				return append(cur.path, b)
			}
			if !visited[conn.ToArea] {
				next := make([]tilemap.AreaID, len(cur.path), len(cur.path)+1)
				copy(next, cur.path)
				queue = append(queue, node{area: conn.ToArea, path: append(next, conn.ToArea)})
			}
		}
	}
	return nil
}

// MarshalJSON serializes the adjacency map directly.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.adj)
}

// UnmarshalJSON restores a graph serialized by MarshalJSON.
func (g *Graph) UnmarshalJSON(data []byte) error {
	adj := make(map[tilemap.AreaID][]Connection)
	if err := json.Unmarshal(data, &adj); err != nil {
		return err
	}
	g.adj = adj
	return nil
}
