// Package engine runs the decision cycle: observe, merge, decide,
// act, wait for the world to settle, classify what happened, and fold
// the result back into the area maps and connectivity graph.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"overworld/internal/config"
	"overworld/internal/session"
	"overworld/internal/storage"
	"overworld/pkg/explore"
	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/navgraph"
	"overworld/pkg/outcome"
	"overworld/pkg/pathfind"
	"overworld/pkg/tilemap"
)

// Mode is the game's coarse state as reported by the probe.
type Mode string

const (
	ModeOverworld Mode = "overworld"
	ModeDialogue  Mode = "dialogue"
	ModeBattle    Mode = "battle"
	ModeMenu      Mode = "menu"
	ModeUnknown   Mode = "unknown"
)

// VisionSource produces windowed label observations.
type VisionSource interface {
	Observe(ctx context.Context) (*tilemap.Observation, error)
}

// PositionReader reads the agent's position state without side
// effects. It is polled during the settle wait.
type PositionReader interface {
	Snapshot(ctx context.Context) (outcome.Snapshot, error)
}

// GameStateProbe reports the game's coarse mode.
type GameStateProbe interface {
	Mode(ctx context.Context) (Mode, error)
}

// InputDriver injects one action. Fire-and-forget: the resulting
// state must be polled separately.
type InputDriver interface {
	Execute(ctx context.Context, a input.Action) (bool, error)
}

// View is the read-only snapshot handed to the decision source.
type View struct {
	Area        tilemap.AreaID
	AreaName    string
	Position    grid.Coord
	Facing      input.Direction
	Traversal   [][]tilemap.TraversalStatus
	Terrain     [][]tilemap.TileLabel
	Suggestion  explore.Suggestion
	Connections []navgraph.Connection
	Stuck       bool

	// EscapeRoute is a planned action sequence to the nearest known
	// transition, populated only when the tracker reports stuck.
	EscapeRoute []input.Action
}

// DecisionSource chooses the next action. The engine validates the
// returned action against the enum and nothing else.
type DecisionSource interface {
	Decide(ctx context.Context, v *View) (input.Action, error)
}

// How far around the agent the decision view extends.
const viewRadius = 4

// Engine owns all navigation state. Single logical thread: one cycle
// runs to completion before the next starts, so nothing here locks.
type Engine struct {
	cfg    config.Tuning
	log    *slog.Logger
	store  storage.Storage
	merger *tilemap.Merger

	vision  VisionSource
	reader  PositionReader
	probe   GameStateProbe
	driver  InputDriver
	decider DecisionSource

	recorder *session.Recorder
	tracker  *explore.Tracker
	graph    *navgraph.Graph

	active      *tilemap.AreaMap
	lastBlocked *grid.Coord
	cycles      int
}

// New wires an engine. The connectivity graph is loaded from storage
// so discovered transitions survive restarts.
func New(
	cfg config.Tuning,
	log *slog.Logger,
	store storage.Storage,
	vision VisionSource,
	reader PositionReader,
	probe GameStateProbe,
	driver InputDriver,
	decider DecisionSource,
) (*Engine, error) {
	solid := make([]tilemap.TileLabel, 0, len(cfg.Vision.SolidLabels))
	for _, l := range cfg.Vision.SolidLabels {
		solid = append(solid, tilemap.TileLabel(l))
	}

	graph, err := store.LoadGraph(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load connectivity graph: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		log:      log,
		store:    store,
		merger:   tilemap.NewMerger(cfg.Vision.Rows, cfg.Vision.Cols, cfg.Vision.AgentRow, cfg.Vision.AgentCol, solid),
		vision:   vision,
		reader:   reader,
		probe:    probe,
		driver:   driver,
		decider:  decider,
		recorder: session.NewRecorder(store, log),
		tracker:  explore.NewTracker(),
		graph:    graph,
	}, nil
}

// Graph exposes the connectivity graph for read-only callers.
func (e *Engine) Graph() *navgraph.Graph {
	return e.graph
}

// ActiveArea returns the map currently being explored.
func (e *Engine) ActiveArea() *tilemap.AreaMap {
	return e.active
}

// Run drives cycles until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("Engine starting", "session_id", e.recorder.ID().String())

	for {
		select {
		case <-ctx.Done():
			e.log.Info("Engine shutting down")
			e.persistAll(context.Background())
			return nil
		default:
			if err := e.Cycle(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				e.log.Error("Cycle failed", "error", err)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Cycle runs one complete decision cycle.
func (e *Engine) Cycle(ctx context.Context) error {
	mode, err := e.probe.Mode(ctx)
	if err != nil {
		return fmt.Errorf("failed to read game mode: %w", err)
	}
	if mode != ModeOverworld {
		e.log.Debug("Not in overworld, skipping cycle", "mode", mode)
		time.Sleep(e.cfg.Settle.Poll())
		return nil
	}

	before, err := e.reader.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read position: %w", err)
	}
	if err := e.ensureArea(ctx, before); err != nil {
		return err
	}

	// Merge the latest observation. A malformed one costs this cycle
	// its vision update, nothing more.
	obs, err := e.vision.Observe(ctx)
	if err != nil {
		e.log.Warn("Observation unavailable", "error", err)
	} else if err := e.merger.Merge(e.active, before.Pos, obs); err != nil {
		e.log.Warn("Observation rejected", "error", err)
	}

	view := e.buildView(before)
	action, err := e.decider.Decide(ctx, view)
	if err != nil {
		return fmt.Errorf("decision source failed: %w", err)
	}
	if !action.Valid() {
		return fmt.Errorf("decision source returned invalid action %q", action)
	}

	if _, err := e.driver.Execute(ctx, action); err != nil {
		return fmt.Errorf("failed to execute %q: %w", action, err)
	}

	res, after, err := e.waitForSettle(ctx, before)
	if err != nil {
		return err
	}
	if res == settleAborted {
		// Menu or battle opened mid-wait. No traversal mutation has
		// happened yet, so walking away is rollback-free.
		e.log.Info("Cycle aborted mid-wait", "action", action)
		return nil
	}

	var o outcome.Outcome
	if res == settleTimedOut {
		// The reading never stabilized; a mid-motion snapshot cannot
		// be classified, so the cycle yields no information.
		e.log.Warn("Position did not settle, no outcome recorded", "action", action)
		o = outcome.Outcome{Kind: outcome.KindUnknown}
	} else {
		dialogue := false
		if action == input.A || action.IsDirectional() {
			dialogue, err = e.watchDialogue(ctx)
			if err != nil {
				return err
			}
		}
		o = outcome.Classify(action, before, after, dialogue)
		e.log.Debug("Outcome classified", "action", action, "outcome", o.String())
	}

	if err := e.applyOutcome(ctx, o, after); err != nil {
		return err
	}

	e.tracker.Record(after.Area, after.Pos)
	e.recorder.Record(ctx, action, o, after)

	e.cycles++
	if e.cfg.SaveEvery > 0 && e.cycles%e.cfg.SaveEvery == 0 {
		e.persistAll(ctx)
	}
	return nil
}

// ensureArea lazily loads or creates the map for the agent's current
// area. Absence in storage means "never visited".
func (e *Engine) ensureArea(ctx context.Context, snap outcome.Snapshot) error {
	if e.active != nil && e.active.ID == snap.Area {
		return nil
	}

	m, err := e.store.LoadAreaMap(ctx, snap.Area)
	if err != nil {
		return fmt.Errorf("failed to load area map: %w", err)
	}
	if m == nil {
		m = tilemap.NewAreaMap(snap.AreaName, snap.Group, snap.Number)
		e.log.Info("Created new area map", "area", m.ID, "name", m.DisplayName())
	}
	m.VisitCount++
	e.active = m
	return nil
}

// buildView assembles the decision source's read-only snapshot.
func (e *Engine) buildView(snap outcome.Snapshot) *View {
	sug := e.tracker.Suggest(e.active)
	v := &View{
		Area:        snap.Area,
		AreaName:    e.active.DisplayName(),
		Position:    snap.Pos,
		Facing:      snap.Facing,
		Traversal:   e.active.TraversalWindow(snap.Pos, viewRadius),
		Terrain:     e.active.TerrainWindow(snap.Pos, viewRadius),
		Suggestion:  sug,
		Connections: e.graph.Connections(snap.Area),
		Stuck:       sug.Stuck,
	}
	if sug.Stuck {
		v.EscapeRoute = e.planEscape(snap)
	}
	return v
}

// planEscape plots a route to the nearest known transition. An empty
// route means there is no transition, or none is reachable; the decider
// falls back to the advisor then.
func (e *Engine) planEscape(snap outcome.Snapshot) []input.Action {
	goal, found := grid.Coord{}, false
	best := 0
	e.active.Traversal.ForEach(func(c grid.Coord, s tilemap.TraversalStatus) {
		if s != tilemap.Transition {
			return
		}
		if d := snap.Pos.Manhattan(c); !found || d < best {
			goal, best, found = c, d, true
		}
	})
	if !found {
		return nil
	}

	plan, err := pathfind.Plan(e.active, snap.Pos, snap.Facing, goal)
	if err != nil {
		e.log.Debug("No escape route", "goal", goal, "error", err)
		return nil
	}
	return pathfind.Actions(plan)
}

// persistAll saves the active map and graph. Failures are logged and
// swallowed; in-memory state stays correct and the next periodic save
// retries.
func (e *Engine) persistAll(ctx context.Context) {
	if e.active != nil {
		if err := e.store.SaveAreaMap(ctx, e.active); err != nil {
			e.log.Warn("Failed to persist area map", "area", e.active.ID, "error", err)
		}
	}
	if err := e.store.SaveGraph(ctx, e.graph); err != nil {
		e.log.Warn("Failed to persist graph", "error", err)
	}
}
