package engine

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"overworld/internal/config"
	"overworld/internal/storage"
	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/outcome"
	"overworld/pkg/tilemap"
)

type fakeVision struct {
	obs *tilemap.Observation
	err error
}

func (f *fakeVision) Observe(ctx context.Context) (*tilemap.Observation, error) {
	return f.obs, f.err
}

// fakeReader replays a snapshot sequence, repeating the last entry once
// exhausted.
type fakeReader struct {
	snaps []outcome.Snapshot
	i     int
}

func (f *fakeReader) Snapshot(ctx context.Context) (outcome.Snapshot, error) {
	s := f.snaps[f.i]
	if f.i < len(f.snaps)-1 {
		f.i++
	}
	return s, nil
}

type fakeProbe struct {
	modes []Mode
	i     int
}

func (f *fakeProbe) Mode(ctx context.Context) (Mode, error) {
	m := f.modes[f.i]
	if f.i < len(f.modes)-1 {
		f.i++
	}
	return m, nil
}

type fakeDriver struct {
	executed []input.Action
}

func (f *fakeDriver) Execute(ctx context.Context, a input.Action) (bool, error) {
	f.executed = append(f.executed, a)
	return true, nil
}

// fakeDecider replays scripted actions, repeating the last entry once
// exhausted.
type fakeDecider struct {
	actions []input.Action
	i       int
}

func (f *fakeDecider) Decide(ctx context.Context, v *View) (input.Action, error) {
	a := f.actions[f.i]
	if f.i < len(f.actions)-1 {
		f.i++
	}
	return a, nil
}

func testTuning() config.Tuning {
	return config.Tuning{
		Vision: config.Vision{Rows: 3, Cols: 3, AgentRow: 1, AgentCol: 1, SolidLabels: []string{"tree"}},
		Settle: config.Settle{MinMs: 1, TimeoutMs: 200, PollMs: 1, DialogueWindowMs: 10},
	}
}

func pathObservation() *tilemap.Observation {
	rows := make([][]tilemap.TileLabel, 3)
	for r := range rows {
		rows[r] = []tilemap.TileLabel{"path", "path", "path"}
	}
	return &tilemap.Observation{Labels: rows}
}

func snap(area tilemap.AreaID, name string, group, number int, pos grid.Coord, facing input.Direction) outcome.Snapshot {
	return outcome.Snapshot{
		Area:     area,
		AreaName: name,
		Group:    group,
		Number:   number,
		Pos:      pos,
		Facing:   facing,
	}
}

func newTestEngine(t *testing.T, snaps []outcome.Snapshot, modes []Mode, actions ...input.Action) (*Engine, *storage.MockStorage, *fakeDriver) {
	t.Helper()
	store := storage.NewMockStorage()
	driver := &fakeDriver{}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	e, err := New(
		testTuning(),
		log,
		store,
		&fakeVision{obs: pathObservation()},
		&fakeReader{snaps: snaps},
		&fakeProbe{modes: modes},
		driver,
		&fakeDecider{actions: actions},
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, store, driver
}

func TestCycle_Moved(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.North)
	after := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 4}, input.North)
	e, _, driver := newTestEngine(t, []outcome.Snapshot{before, after}, []Mode{ModeOverworld}, input.Up)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(driver.executed) != 1 || driver.executed[0] != input.Up {
		t.Fatalf("executed = %v, want [Up]", driver.executed)
	}
	m := e.ActiveArea()
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Walkable {
		t.Errorf("vacated tile = %q, want W", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 4}); got != tilemap.Player {
		t.Errorf("arrival tile = %q, want P", got)
	}
}

func TestCycle_LedgeHop(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.South)
	after := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 7}, input.South)
	e, _, _ := newTestEngine(t, []outcome.Snapshot{before, after}, []Mode{ModeOverworld}, input.Down)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	m := e.ActiveArea()
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Ledge {
		t.Errorf("launch tile = %q, want L", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 7}); got != tilemap.Player {
		t.Errorf("landing tile = %q, want P", got)
	}
}

func TestCycle_Blocked(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.North)
	e, _, _ := newTestEngine(t, []outcome.Snapshot{before, before}, []Mode{ModeOverworld}, input.Up)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	m := e.ActiveArea()
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 4}); got != tilemap.Blocked {
		t.Errorf("collision target = %q, want N", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Player {
		t.Errorf("player tile = %q, want P", got)
	}
}

func TestCycle_Turned(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.North)
	after := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.East)
	e, _, _ := newTestEngine(t, []outcome.Snapshot{before, after}, []Mode{ModeOverworld}, input.Right)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	m := e.ActiveArea()
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Player {
		t.Errorf("player tile = %q, want P", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 6, Y: 5}); got == tilemap.Blocked {
		t.Errorf("faced tile marked N on a turn")
	}
}

func TestCycle_AreaChange(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 17}, input.South)
	after := snap("map_1_0", "route 1", 1, 0, grid.Coord{X: 5, Y: 0}, input.South)
	e, store, _ := newTestEngine(t, []outcome.Snapshot{before, after}, []Mode{ModeOverworld}, input.Down)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	// A brand new map for the destination, visited exactly once.
	m := e.ActiveArea()
	if m.ID != "map_1_0" {
		t.Fatalf("active area = %s, want map_1_0", m.ID)
	}
	if m.VisitCount != 1 {
		t.Errorf("visit count = %d, want 1", m.VisitCount)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: -1}); got != tilemap.Transition {
		t.Errorf("entry tile = %q, want T", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 0}); got != tilemap.Player {
		t.Errorf("player tile = %q, want P", got)
	}

	// The departed map was persisted with the exit marked.
	old, err := store.LoadAreaMap(context.Background(), "map_3_0")
	if err != nil || old == nil {
		t.Fatalf("load old map: %v, %v", old, err)
	}
	if got := old.Traversal.Get(grid.Coord{X: 5, Y: 18}); got != tilemap.Transition {
		t.Errorf("exit tile = %q, want T", got)
	}
	if got := old.Traversal.Get(grid.Coord{X: 5, Y: 17}); got != tilemap.Walkable {
		t.Errorf("vacated tile = %q, want W", got)
	}

	// Reciprocal connections, reverse direction flipped.
	fwd := e.Graph().Connections("map_3_0")
	if len(fwd) != 1 {
		t.Fatalf("got %d forward connections, want 1", len(fwd))
	}
	if fwd[0].ToArea != "map_1_0" || fwd[0].Direction != input.South {
		t.Errorf("forward connection = %+v", fwd[0])
	}
	rev := e.Graph().Connections("map_1_0")
	if len(rev) != 1 {
		t.Fatalf("got %d reverse connections, want 1", len(rev))
	}
	if rev[0].ToArea != "map_3_0" || rev[0].Direction != input.North {
		t.Errorf("reverse connection = %+v", rev[0])
	}
	if rev[0].FromCoord != (grid.Coord{X: 5, Y: -1}) {
		t.Errorf("reverse origin = %v, want entry tile", rev[0].FromCoord)
	}
}

func TestCycle_ReturnVisitReusesMap(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 17}, input.South)
	after := snap("map_1_0", "route 1", 1, 0, grid.Coord{X: 5, Y: 0}, input.South)
	back := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 17}, input.North)

	e, _, _ := newTestEngine(t,
		[]outcome.Snapshot{before, after, after, back, back},
		[]Mode{ModeOverworld},
		input.Down, input.Up,
	)
	ctx := context.Background()
	if err := e.Cycle(ctx); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if err := e.Cycle(ctx); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	m := e.ActiveArea()
	if m.ID != "map_3_0" {
		t.Fatalf("active area = %s, want map_3_0", m.ID)
	}
	if m.VisitCount != 2 {
		t.Errorf("visit count = %d, want 2", m.VisitCount)
	}
	// Re-crossing the same transition must not duplicate connections.
	if got := len(e.Graph().Connections("map_3_0")); got != 1 {
		t.Errorf("got %d connections after re-crossing, want 1", got)
	}
}

func TestCycle_TransitionSurvivesLaterMarks(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 17}, input.South)
	after := snap("map_1_0", "route 1", 1, 0, grid.Coord{X: 5, Y: 0}, input.South)
	e, _, _ := newTestEngine(t, []outcome.Snapshot{before, after}, []Mode{ModeOverworld}, input.Down)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	m := e.ActiveArea()
	entry := grid.Coord{X: 5, Y: -1}
	m.SetTraversal(entry, tilemap.Walkable)
	if got := m.Traversal.Get(entry); got != tilemap.Transition {
		t.Errorf("entry tile = %q after overwrite attempt, want T", got)
	}
}

func TestCycle_AbortsOnBattle(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.North)
	after := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 4}, input.North)
	e, _, driver := newTestEngine(t,
		[]outcome.Snapshot{before, after},
		[]Mode{ModeOverworld, ModeBattle},
		input.Up,
	)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(driver.executed) != 1 {
		t.Fatalf("executed = %v, want exactly the attempted action", driver.executed)
	}

	// No classification ran, so the destination tile stays untouched.
	m := e.ActiveArea()
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 4}); got != tilemap.Unknown {
		t.Errorf("destination tile = %q after abort, want ?", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Player {
		t.Errorf("player tile = %q, want P", got)
	}
}

func TestCycle_SkipsWhenNotOverworld(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.North)
	e, _, driver := newTestEngine(t, []outcome.Snapshot{before}, []Mode{ModeMenu}, input.Up)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(driver.executed) != 0 {
		t.Errorf("executed = %v, want none outside the overworld", driver.executed)
	}
	if e.ActiveArea() != nil {
		t.Errorf("area map created while outside the overworld")
	}
}

func TestCycle_InteractionMarksFacedTile(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.North)
	e, _, _ := newTestEngine(t,
		[]outcome.Snapshot{before, before},
		[]Mode{ModeOverworld, ModeOverworld, ModeDialogue},
		input.A,
	)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	m := e.ActiveArea()
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 4}); got != tilemap.Interactable {
		t.Errorf("faced tile = %q, want I", got)
	}
}

func TestCycle_WalkOnTrigger(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.North)
	after := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 4}, input.North)
	e, _, _ := newTestEngine(t,
		[]outcome.Snapshot{before, after},
		[]Mode{ModeOverworld, ModeOverworld, ModeDialogue},
		input.Up,
	)

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	// The agent stands on the trigger, so the Player marker wins
	// there and is present the moment the cycle ends.
	m := e.ActiveArea()
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 4}); got != tilemap.Player {
		t.Errorf("trigger tile = %q, want P", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Walkable {
		t.Errorf("vacated tile = %q, want W", got)
	}
	players := 0
	m.Traversal.ForEach(func(c grid.Coord, s tilemap.TraversalStatus) {
		if s == tilemap.Player {
			players++
		}
	})
	if players != 1 {
		t.Errorf("got %d player markers, want exactly 1", players)
	}
}

func TestCycle_UnsettledPositionGainsNothing(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.South)
	// The position wobbles on every poll, so the settle wait can only
	// time out.
	snaps := []outcome.Snapshot{before}
	for i := 0; i < 100; i++ {
		pos := grid.Coord{X: 5, Y: 6 + i%2}
		snaps = append(snaps, snap("map_3_0", "pallet town", 3, 0, pos, input.South))
	}

	store := storage.NewMockStorage()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := testTuning()
	cfg.Settle.TimeoutMs = 5
	e, err := New(cfg, log, store,
		&fakeVision{obs: pathObservation()},
		&fakeReader{snaps: snaps},
		&fakeProbe{modes: []Mode{ModeOverworld}},
		&fakeDriver{},
		&fakeDecider{actions: []input.Action{input.Down}},
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	// No outcome was recorded, so nothing past the merge touched the
	// traversal grid.
	m := e.ActiveArea()
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 6}); got != tilemap.Unknown {
		t.Errorf("unsettled tile = %q, want ?", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 7}); got != tilemap.Unknown {
		t.Errorf("unsettled tile = %q, want ?", got)
	}
	if got := m.Traversal.Get(grid.Coord{X: 5, Y: 5}); got != tilemap.Player {
		t.Errorf("player tile = %q, want P", got)
	}
}

func TestCycle_PersistsOnSchedule(t *testing.T) {
	before := snap("map_3_0", "pallet town", 3, 0, grid.Coord{X: 5, Y: 5}, input.North)
	store := storage.NewMockStorage()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := testTuning()
	cfg.SaveEvery = 1
	e, err := New(cfg, log, store,
		&fakeVision{obs: pathObservation()},
		&fakeReader{snaps: []outcome.Snapshot{before, before}},
		&fakeProbe{modes: []Mode{ModeOverworld}},
		&fakeDriver{},
		&fakeDecider{actions: []input.Action{input.Wait}},
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if err := e.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	saved, err := store.LoadAreaMap(context.Background(), "map_3_0")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if saved == nil {
		t.Fatal("area map not persisted after scheduled save")
	}
}
