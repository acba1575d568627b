// Package outcome classifies what actually happened after an action
// was issued, by comparing agent snapshots taken before and after.
package outcome

import (
	"fmt"

	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/tilemap"
)

// Snapshot is one side-effect-free read of the agent's position state.
type Snapshot struct {
	Area     tilemap.AreaID  `json:"area"`
	AreaName string          `json:"area_name"`
	Group    int             `json:"group"`
	Number   int             `json:"number"`
	Pos      grid.Coord      `json:"pos"`
	Facing   input.Direction `json:"facing"`
}

// Valid reports whether the snapshot carries enough to classify.
func (s Snapshot) Valid() bool {
	return s.Area != "" && s.Facing != ""
}

// Kind tags an Outcome variant.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindMoved        Kind = "moved"
	KindTurned       Kind = "turned"
	KindBlocked      Kind = "blocked"
	KindAreaChanged  Kind = "area_changed"
	KindInteracted   Kind = "interacted"
	KindAutoDialogue Kind = "auto_dialogue"
	KindWaited       Kind = "waited"
)

// Outcome is the classified result of one action. Only the fields for
// the tagged Kind are meaningful.
type Outcome struct {
	Kind Kind `json:"kind"`

	From grid.Coord `json:"from,omitempty"` // Moved, AutoDialogue
	To   grid.Coord `json:"to,omitempty"`   // Moved, AutoDialogue

	FromFacing input.Direction `json:"from_facing,omitempty"` // Turned
	ToFacing   input.Direction `json:"to_facing,omitempty"`   // Turned

	Target grid.Coord `json:"target,omitempty"` // Blocked

	FromArea tilemap.AreaID  `json:"from_area,omitempty"` // AreaChanged
	ToArea   tilemap.AreaID  `json:"to_area,omitempty"`   // AreaChanged
	Exit     grid.Coord      `json:"exit,omitempty"`      // AreaChanged: old-area tile stepped into
	Entry    grid.Coord      `json:"entry,omitempty"`     // AreaChanged: new-area tile arrived through
	Dir      input.Direction `json:"dir,omitempty"`       // AreaChanged: direction of the crossing

	Trigger      grid.Coord `json:"trigger,omitempty"`       // AutoDialogue
	DialogueSeen bool       `json:"dialogue_seen,omitempty"` // Interacted
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindMoved:
		return fmt.Sprintf("moved %v -> %v", o.From, o.To)
	case KindTurned:
		return fmt.Sprintf("turned %s -> %s", o.FromFacing, o.ToFacing)
	case KindBlocked:
		return fmt.Sprintf("blocked at %v", o.Target)
	case KindAreaChanged:
		return fmt.Sprintf("area %s -> %s via %v", o.FromArea, o.ToArea, o.Exit)
	case KindAutoDialogue:
		return fmt.Sprintf("dialogue triggered at %v", o.Trigger)
	default:
		return string(o.Kind)
	}
}

// Classify determines the outcome of action from the before/after
// snapshots. dialogueActive reports whether a dialogue opened inside
// the post-execution polling window.
//
// Priority: an area change dominates every other delta. Within one
// area a directional action resolved to exactly one of Moved, Turned
// or Blocked. Malformed snapshots collapse to KindUnknown so the
// caller treats the cycle as having learned nothing.
func Classify(action input.Action, before, after Snapshot, dialogueActive bool) Outcome {
	if !before.Valid() || !after.Valid() {
		return Outcome{Kind: KindUnknown}
	}

	if before.Area != after.Area {
		dir := before.Facing
		if d, ok := action.Direction(); ok {
			dir = d
		}
		dx, dy := dir.Delta()
		return Outcome{
			Kind:     KindAreaChanged,
			FromArea: before.Area,
			ToArea:   after.Area,
			Exit:     before.Pos.Step(dx, dy),
			Entry:    after.Pos.Step(-dx, -dy),
			Dir:      dir,
		}
	}

	if dir, ok := action.Direction(); ok {
		switch {
		case before.Pos != after.Pos:
			if dialogueActive {
				return Outcome{Kind: KindAutoDialogue, From: before.Pos, To: after.Pos, Trigger: after.Pos}
			}
			return Outcome{Kind: KindMoved, From: before.Pos, To: after.Pos}
		case before.Facing != after.Facing:
			return Outcome{Kind: KindTurned, FromFacing: before.Facing, ToFacing: after.Facing}
		default:
			dx, dy := dir.Delta()
			return Outcome{Kind: KindBlocked, Target: before.Pos.Step(dx, dy)}
		}
	}

	if action == input.A {
		return Outcome{Kind: KindInteracted, DialogueSeen: dialogueActive}
	}

	return Outcome{Kind: KindWaited}
}
