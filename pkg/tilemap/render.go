package tilemap

import (
	"strings"

	"overworld/pkg/grid"
)

// RenderTraversal renders the full traversal grid as one marker per
// cell, rows top to bottom. Returns "" for an empty map.
func (m *AreaMap) RenderTraversal() string {
	min, max, ok := m.Traversal.Bounds()
	if !ok {
		return ""
	}
	var b strings.Builder
	for y := min.Y; y <= max.Y; y++ {
		if y > min.Y {
			b.WriteByte('\n')
		}
		for x := min.X; x <= max.X; x++ {
			if x > min.X {
				b.WriteByte(' ')
			}
			b.WriteString(string(m.Traversal.Get(grid.Coord{X: x, Y: y})))
		}
	}
	return b.String()
}

// TraversalWindow returns the (2r+1)×(2r+1) traversal neighborhood
// centered on c. Cells outside the stored bounds read as Unknown.
func (m *AreaMap) TraversalWindow(c grid.Coord, radius int) [][]TraversalStatus {
	out := make([][]TraversalStatus, 0, 2*radius+1)
	for dy := -radius; dy <= radius; dy++ {
		row := make([]TraversalStatus, 0, 2*radius+1)
		for dx := -radius; dx <= radius; dx++ {
			row = append(row, m.Traversal.Get(c.Step(dx, dy)))
		}
		out = append(out, row)
	}
	return out
}

// TerrainWindow returns the matching terrain neighborhood.
func (m *AreaMap) TerrainWindow(c grid.Coord, radius int) [][]TileLabel {
	out := make([][]TileLabel, 0, 2*radius+1)
	for dy := -radius; dy <= radius; dy++ {
		row := make([]TileLabel, 0, 2*radius+1)
		for dx := -radius; dx <= radius; dx++ {
			row = append(row, m.Terrain.Get(c.Step(dx, dy)))
		}
		out = append(out, row)
	}
	return out
}
