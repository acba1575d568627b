// Package tilemap holds the per-area maps the engine builds while
// exploring: a terrain grid of classifier labels and a traversal grid
// of walkability markers, merged from windowed observations.
package tilemap

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"overworld/pkg/grid"
)

// TileLabel is a semantic terrain label from the vision classifier.
type TileLabel string

// UnknownTile is the terrain value for never-observed coordinates.
const UnknownTile TileLabel = "unknown"

// TraversalStatus classifies one coordinate's role for navigation.
type TraversalStatus string

const (
	Unknown      TraversalStatus = "?"
	Walkable     TraversalStatus = "W"
	Blocked      TraversalStatus = "N"
	Player       TraversalStatus = "P"
	Transition   TraversalStatus = "T"
	Interactable TraversalStatus = "I"
	Ledge        TraversalStatus = "L"
)

// AreaID is the stable identifier for one region, derived from the
// game's (group, number) pair.
type AreaID string

// MakeAreaID builds the canonical id for a (group, number) pair.
func MakeAreaID(group, number int) AreaID {
	return AreaID(fmt.Sprintf("map_%d_%d", group, number))
}

// AreaMap is everything known about one region. One exists per AreaID,
// created lazily on first arrival and never deleted in-session.
type AreaMap struct {
	ID         AreaID                      `json:"id"`
	Name       string                      `json:"name"`
	Group      int                         `json:"group"`
	Number     int                         `json:"number"`
	Terrain    *grid.Grid[TileLabel]       `json:"terrain"`
	Traversal  *grid.Grid[TraversalStatus] `json:"traversal"`
	VisitCount int                         `json:"visit_count"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// NewAreaMap returns an empty map for the given region. Every
// coordinate starts as UnknownTile terrain and Unknown traversal.
func NewAreaMap(name string, group, number int) *AreaMap {
	now := time.Now().UTC()
	return &AreaMap{
		ID:        MakeAreaID(group, number),
		Name:      name,
		Group:     group,
		Number:    number,
		Terrain:   grid.New(UnknownTile),
		Traversal: grid.New(Unknown),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var titleCaser = cases.Title(language.English)

// DisplayName returns a human-readable name for the area, falling back
// to the id when no name was ever reported.
func (m *AreaMap) DisplayName() string {
	if m.Name == "" {
		return string(m.ID)
	}
	return titleCaser.String(strings.ToLower(m.Name))
}

// PlayerCoord returns the coordinate currently marked Player.
func (m *AreaMap) PlayerCoord() (grid.Coord, bool) {
	return m.Traversal.Find(Player)
}

// SetTraversal writes a marker, refusing to overwrite a Transition.
// Transition markers are structural and survive every later update.
func (m *AreaMap) SetTraversal(c grid.Coord, s TraversalStatus) {
	if m.Traversal.Get(c) == Transition && s != Transition {
		return
	}
	m.Traversal.Set(c, s)
	m.UpdatedAt = time.Now().UTC()
}

// Summary describes the map's exploration progress.
type Summary struct {
	Name     string `json:"name"`
	Bounds   string `json:"bounds"`
	Explored int    `json:"explored"`
	Visits   int    `json:"visits"`
}

// Summarize reports the display name, stored bounds, explored-tile
// count and visit count.
func (m *AreaMap) Summarize() Summary {
	boundsStr := "empty"
	if min, max, ok := m.Traversal.Bounds(); ok {
		boundsStr = fmt.Sprintf("(%d,%d) to (%d,%d)", min.X, min.Y, max.X, max.Y)
	}
	return Summary{
		Name:     m.DisplayName(),
		Bounds:   boundsStr,
		Explored: m.Traversal.Count(),
		Visits:   m.VisitCount,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%s | Bounds: %s | Explored: %d tiles | Visits: %d",
		s.Name, s.Bounds, s.Explored, s.Visits)
}
