package input

import "testing"

func TestActionValid(t *testing.T) {
	for _, a := range Actions {
		if !a.Valid() {
			t.Errorf("action %q should be valid", a)
		}
	}
	if Action("Jump").Valid() {
		t.Error("unknown action should be invalid")
	}
}

func TestActionDirection(t *testing.T) {
	tests := []struct {
		action Action
		dir    Direction
		ok     bool
	}{
		{Up, North, true},
		{Down, South, true},
		{Left, West, true},
		{Right, East, true},
		{A, "", false},
		{Wait, "", false},
	}
	for _, tc := range tests {
		d, ok := tc.action.Direction()
		if ok != tc.ok || d != tc.dir {
			t.Errorf("%q.Direction() = %q, %v; want %q, %v", tc.action, d, ok, tc.dir, tc.ok)
		}
		if got := tc.action.IsDirectional(); got != tc.ok {
			t.Errorf("%q.IsDirectional() = %v, want %v", tc.action, got, tc.ok)
		}
	}
}

func TestDirectionDelta(t *testing.T) {
	tests := []struct {
		dir    Direction
		dx, dy int
	}{
		{North, 0, -1},
		{South, 0, 1},
		{West, -1, 0},
		{East, 1, 0},
	}
	for _, tc := range tests {
		dx, dy := tc.dir.Delta()
		if dx != tc.dx || dy != tc.dy {
			t.Errorf("%q.Delta() = (%d, %d), want (%d, %d)", tc.dir, dx, dy, tc.dx, tc.dy)
		}
	}
}

func TestDirectionOpposite(t *testing.T) {
	for _, d := range Directions {
		if d.Opposite().Opposite() != d {
			t.Errorf("opposite of opposite of %q should round-trip", d)
		}
		dx, dy := d.Delta()
		ox, oy := d.Opposite().Delta()
		if dx+ox != 0 || dy+oy != 0 {
			t.Errorf("%q and its opposite should cancel", d)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"UP", "Up", "up"} {
		d, err := ParseDirection(s)
		if err != nil || d != North {
			t.Errorf("ParseDirection(%q) = %q, %v", s, d, err)
		}
	}
	if _, err := ParseDirection("northwest"); err == nil {
		t.Error("expected error for unknown direction")
	}
}
