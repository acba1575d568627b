package engine

import (
	"context"
	"fmt"

	"overworld/pkg/navgraph"
	"overworld/pkg/outcome"
	"overworld/pkg/tilemap"
)

// applyOutcome is the traversal updater: one state transition per
// cycle, keyed on the classified outcome. Transition markers are
// monotonic throughout; AreaMap.SetTraversal enforces that.
func (e *Engine) applyOutcome(ctx context.Context, o outcome.Outcome, after outcome.Snapshot) error {
	switch o.Kind {
	case outcome.KindMoved:
		if o.From.Manhattan(o.To) > 1 {
			// Multi-tile hop means a one-way ledge was taken.
			e.active.SetTraversal(o.From, tilemap.Ledge)
		} else {
			e.active.SetTraversal(o.From, tilemap.Walkable)
		}
		e.active.SetTraversal(o.To, tilemap.Player)
		e.lastBlocked = nil

	case outcome.KindTurned:
		e.active.SetTraversal(after.Pos, tilemap.Player)
		e.lastBlocked = nil

	case outcome.KindBlocked:
		e.active.SetTraversal(o.Target, tilemap.Blocked)
		if e.lastBlocked == nil || *e.lastBlocked != o.Target {
			e.log.Info("Collision", "area", after.Area, "target", o.Target)
		}
		t := o.Target
		e.lastBlocked = &t

	case outcome.KindAreaChanged:
		if err := e.switchArea(ctx, o, after); err != nil {
			return err
		}
		e.lastBlocked = nil

	case outcome.KindInteracted:
		if o.DialogueSeen {
			dx, dy := after.Facing.Delta()
			e.active.SetTraversal(after.Pos.Step(dx, dy), tilemap.Interactable)
		}

	case outcome.KindAutoDialogue:
		// The trigger is the tile stepped onto, so the Player marker
		// goes down last and is never absent between cycles.
		e.active.SetTraversal(o.From, tilemap.Walkable)
		e.active.SetTraversal(o.Trigger, tilemap.Interactable)
		e.active.SetTraversal(o.To, tilemap.Player)

	case outcome.KindWaited, outcome.KindUnknown:
		// No information gained this cycle.
	}
	return nil
}

// switchArea handles an AreaChanged outcome: close out the old map,
// swap in the new one, and record the connection both ways.
func (e *Engine) switchArea(ctx context.Context, o outcome.Outcome, after outcome.Snapshot) error {
	old := e.active

	// The tile stepped into leads out of the old area; the vacated
	// tile is ordinary floor.
	dx, dy := o.Dir.Delta()
	old.SetTraversal(o.Exit, tilemap.Transition)
	old.SetTraversal(o.Exit.Step(-dx, -dy), tilemap.Walkable)

	if err := e.store.SaveAreaMap(ctx, old); err != nil {
		e.log.Warn("Failed to persist area map on exit", "area", old.ID, "error", err)
	}

	e.active = nil
	if err := e.ensureArea(ctx, after); err != nil {
		return fmt.Errorf("failed to enter %s: %w", o.ToArea, err)
	}
	e.active.SetTraversal(o.Entry, tilemap.Transition)
	e.active.SetTraversal(after.Pos, tilemap.Player)

	e.graph.Connect(navgraph.Connection{
		FromArea:  o.FromArea,
		FromCoord: o.Exit,
		ToArea:    o.ToArea,
		ToCoord:   o.Entry,
		Direction: o.Dir,
	})
	if err := e.store.SaveGraph(ctx, e.graph); err != nil {
		e.log.Warn("Failed to persist graph", "error", err)
	}

	e.log.Info("Area changed",
		"from", o.FromArea,
		"to", o.ToArea,
		"exit", o.Exit,
		"entry", o.Entry,
	)
	return nil
}
