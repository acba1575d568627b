// Package input defines the button-level actions the engine can issue
// and the cardinal directions used for movement and facing.
package input

import "fmt"

// Action is a single emulator button press, plus an explicit Wait.
type Action string

const (
	Up     Action = "Up"
	Down   Action = "Down"
	Left   Action = "Left"
	Right  Action = "Right"
	A      Action = "A"
	B      Action = "B"
	Start  Action = "Start"
	Select Action = "Select"
	Wait   Action = "Wait"
)

// Actions lists every valid action in a stable order.
var Actions = []Action{Up, Down, Left, Right, A, B, Start, Select, Wait}

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool {
	switch a {
	case Up, Down, Left, Right, A, B, Start, Select, Wait:
		return true
	}
	return false
}

// IsDirectional reports whether a is one of the four movement buttons.
func (a Action) IsDirectional() bool {
	switch a {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Direction returns the movement direction for a directional action.
func (a Action) Direction() (Direction, bool) {
	switch a {
	case Up:
		return North, true
	case Down:
		return South, true
	case Left:
		return West, true
	case Right:
		return East, true
	}
	return "", false
}

// Direction is a cardinal facing. Screen coordinates: y grows downward.
type Direction string

const (
	North Direction = "Up"
	South Direction = "Down"
	West  Direction = "Left"
	East  Direction = "Right"
)

// Directions lists the four cardinals in scan order.
var Directions = []Direction{North, South, West, East}

// ParseDirection normalizes a facing string from the position reader.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "Up", "UP", "up":
		return North, nil
	case "Down", "DOWN", "down":
		return South, nil
	case "Left", "LEFT", "left":
		return West, nil
	case "Right", "RIGHT", "right":
		return East, nil
	}
	return "", fmt.Errorf("unrecognized direction %q", s)
}

// Delta returns the (dx, dy) step for one move in this direction.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case West:
		return -1, 0
	case East:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	}
	return d
}

// Action returns the button press that moves (or turns) this way.
func (d Direction) Action() Action {
	switch d {
	case North:
		return Up
	case South:
		return Down
	case West:
		return Left
	case East:
		return Right
	}
	return Wait
}
