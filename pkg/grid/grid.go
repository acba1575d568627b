// Package grid provides an unbounded 2D store that grows on demand in
// any direction. Coordinates are signed; the backing storage keeps an
// origin offset so logical coordinates never move when the grid expands.
package grid

import "encoding/json"

// Coord is a signed position in area-local space.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the coordinate offset by (dx, dy).
func (c Coord) Step(dx, dy int) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy}
}

// Manhattan returns the L1 distance to another coordinate.
func (c Coord) Manhattan(o Coord) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Grid is a dense 2D array with an origin offset. Get never fails:
// coordinates outside the stored rectangle read as the default value.
// Set expands the rectangle to cover the coordinate, inserting whole
// rows or columns at the touched edge.
type Grid[T comparable] struct {
	cells   [][]T // rows indexed [y][x], relative to origin
	originX int
	originY int
	def     T
}

// New returns an empty grid whose unset cells read as def.
func New[T comparable](def T) *Grid[T] {
	return &Grid[T]{def: def}
}

// Default returns the value unset cells read as.
func (g *Grid[T]) Default() T { return g.def }

// Get returns the value at c, or the default if c has never been set.
func (g *Grid[T]) Get(c Coord) T {
	if !g.Contains(c) {
		return g.def
	}
	return g.cells[c.Y-g.originY][c.X-g.originX]
}

// Contains reports whether c falls inside the stored rectangle.
func (g *Grid[T]) Contains(c Coord) bool {
	if len(g.cells) == 0 {
		return false
	}
	ly := c.Y - g.originY
	lx := c.X - g.originX
	return ly >= 0 && ly < len(g.cells) && lx >= 0 && lx < len(g.cells[0])
}

// Set writes v at c, growing the stored rectangle as needed. Existing
// values keep their logical coordinates; there is no shrink operation.
func (g *Grid[T]) Set(c Coord, v T) {
	if len(g.cells) == 0 {
		g.cells = [][]T{{v}}
		g.originX = c.X
		g.originY = c.Y
		return
	}

	// Expand upward.
	for c.Y < g.originY {
		g.cells = append([][]T{g.newRow()}, g.cells...)
		g.originY--
	}
	// Expand downward.
	for c.Y-g.originY >= len(g.cells) {
		g.cells = append(g.cells, g.newRow())
	}
	// Expand left.
	for c.X < g.originX {
		for i := range g.cells {
			g.cells[i] = append([]T{g.def}, g.cells[i]...)
		}
		g.originX--
	}
	// Expand right.
	for c.X-g.originX >= len(g.cells[0]) {
		for i := range g.cells {
			g.cells[i] = append(g.cells[i], g.def)
		}
	}

	g.cells[c.Y-g.originY][c.X-g.originX] = v
}

func (g *Grid[T]) newRow() []T {
	row := make([]T, len(g.cells[0]))
	for i := range row {
		row[i] = g.def
	}
	return row
}

// Bounds returns the stored rectangle as inclusive min/max coordinates.
// ok is false for an empty grid.
func (g *Grid[T]) Bounds() (min, max Coord, ok bool) {
	if len(g.cells) == 0 {
		return Coord{}, Coord{}, false
	}
	min = Coord{X: g.originX, Y: g.originY}
	max = Coord{X: g.originX + len(g.cells[0]) - 1, Y: g.originY + len(g.cells) - 1}
	return min, max, true
}

// ForEach visits every stored cell in row order.
func (g *Grid[T]) ForEach(fn func(Coord, T)) {
	for y, row := range g.cells {
		for x, v := range row {
			fn(Coord{X: g.originX + x, Y: g.originY + y}, v)
		}
	}
}

// Find returns the first stored coordinate holding v.
func (g *Grid[T]) Find(v T) (Coord, bool) {
	for y, row := range g.cells {
		for x, cell := range row {
			if cell == v {
				return Coord{X: g.originX + x, Y: g.originY + y}, true
			}
		}
	}
	return Coord{}, false
}

// Replace rewrites every cell holding old to new and returns the count.
func (g *Grid[T]) Replace(old, new T) int {
	n := 0
	for y := range g.cells {
		for x := range g.cells[y] {
			if g.cells[y][x] == old {
				g.cells[y][x] = new
				n++
			}
		}
	}
	return n
}

// Count returns how many stored cells do not hold the default value.
func (g *Grid[T]) Count() int {
	n := 0
	for _, row := range g.cells {
		for _, v := range row {
			if v != g.def {
				n++
			}
		}
	}
	return n
}

type gridJSON[T comparable] struct {
	OriginX int   `json:"origin_x"`
	OriginY int   `json:"origin_y"`
	Default T     `json:"default"`
	Cells   [][]T `json:"cells"`
}

// MarshalJSON serializes the grid as origin plus dense rows.
func (g *Grid[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(gridJSON[T]{
		OriginX: g.originX,
		OriginY: g.originY,
		Default: g.def,
		Cells:   g.cells,
	})
}

// UnmarshalJSON restores a grid serialized by MarshalJSON.
func (g *Grid[T]) UnmarshalJSON(data []byte) error {
	var raw gridJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.originX = raw.OriginX
	g.originY = raw.OriginY
	g.def = raw.Default
	g.cells = raw.Cells
	return nil
}
