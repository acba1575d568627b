// Package pathfind plans movement inside one area over its traversal
// grid. Plans are action sequences, not coordinate lists: a character
// must face a direction before stepping into it, so a Turn step is
// inserted wherever the planned heading changes.
package pathfind

import (
	"container/heap"
	"errors"

	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/tilemap"
)

var (
	// ErrGoalUnreachable is returned by the fail-fast precheck, before
	// any search runs.
	ErrGoalUnreachable = errors.New("goal unreachable")

	// ErrNoPath is returned when search exhausts the traversable
	// component without reaching the goal.
	ErrNoPath = errors.New("no path to goal")
)

// Cost of stepping into a tile never confirmed walkable. Slightly
// above 1 so confirmed routes win, but exploration through uncertainty
// stays possible.
const unknownCost = 1.1

// StepKind distinguishes the two primitive plan actions.
type StepKind string

const (
	Turn StepKind = "turn"
	Move StepKind = "move"
)

// Step is one primitive action in a plan.
type Step struct {
	Kind StepKind        `json:"kind"`
	Dir  input.Direction `json:"dir"`
}

// Actions flattens a plan into the button presses that execute it.
func Actions(plan []Step) []input.Action {
	out := make([]input.Action, 0, len(plan))
	for _, s := range plan {
		out = append(out, s.Dir.Action())
	}
	return out
}

// Plan runs A* from start to goal over m's traversal grid and returns
// the action sequence, inserting turns as the heading changes. facing
// is the agent's heading before the first step.
//
// Walkable, Transition and Player tiles cost 1 to enter, Unknown costs
// slightly more, everything else is impassable. Search only considers
// coordinates inside the grid's stored bounds.
func Plan(m *tilemap.AreaMap, start grid.Coord, facing input.Direction, goal grid.Coord) ([]Step, error) {
	min, max, ok := m.Traversal.Bounds()
	if !ok {
		return nil, ErrGoalUnreachable
	}

	if err := checkGoal(m, goal); err != nil {
		return nil, err
	}
	if start == goal {
		return nil, nil
	}

	cameFrom := map[grid.Coord]grid.Coord{}
	costSoFar := map[grid.Coord]float64{start: 0}

	frontier := &queue{}
	heap.Init(frontier)
	heap.Push(frontier, item{coord: start})

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(item).coord
		if cur == goal {
			break
		}

		for _, dir := range input.Directions {
			dx, dy := dir.Delta()
			next := cur.Step(dx, dy)
			if next.X < min.X || next.X > max.X || next.Y < min.Y || next.Y > max.Y {
				continue
			}

			stepCost, passable := enterCost(m.Traversal.Get(next))
			if !passable {
				continue
			}

			newCost := costSoFar[cur] + stepCost
			if old, seen := costSoFar[next]; !seen || newCost < old {
				costSoFar[next] = newCost
				cameFrom[next] = cur
				heap.Push(frontier, item{
					coord:    next,
					priority: newCost + float64(next.Manhattan(goal)),
				})
			}
		}
	}

	if _, found := cameFrom[goal]; !found {
		return nil, ErrNoPath
	}

	var path []grid.Coord
	for cur := goal; cur != start; cur = cameFrom[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return toSteps(start, facing, path), nil
}

// checkGoal fails fast when the goal can be ruled out without search:
// the tile itself is Blocked, or no neighbor could ever admit a path.
func checkGoal(m *tilemap.AreaMap, goal grid.Coord) error {
	if m.Traversal.Get(goal) == tilemap.Blocked {
		return ErrGoalUnreachable
	}
	for _, dir := range input.Directions {
		dx, dy := dir.Delta()
		switch m.Traversal.Get(goal.Step(dx, dy)) {
		case tilemap.Walkable, tilemap.Unknown, tilemap.Transition:
			return nil
		}
	}
	return ErrGoalUnreachable
}

func enterCost(s tilemap.TraversalStatus) (float64, bool) {
	switch s {
	case tilemap.Walkable, tilemap.Transition, tilemap.Player:
		return 1, true
	case tilemap.Unknown:
		return unknownCost, true
	}
	return 0, false
}

// toSteps converts a coordinate path to actions, tracking the agent's
// simulated facing so each Move is preceded by a matching Turn when
// the heading changes.
func toSteps(start grid.Coord, facing input.Direction, path []grid.Coord) []Step {
	steps := make([]Step, 0, len(path))
	prev := start
	for _, next := range path {
		dir := headingBetween(prev, next)
		if dir != facing {
			steps = append(steps, Step{Kind: Turn, Dir: dir})
			facing = dir
		}
		steps = append(steps, Step{Kind: Move, Dir: dir})
		prev = next
	}
	return steps
}

func headingBetween(from, to grid.Coord) input.Direction {
	switch {
	case to.X > from.X:
		return input.East
	case to.X < from.X:
		return input.West
	case to.Y > from.Y:
		return input.South
	default:
		return input.North
	}
}

type item struct {
	coord    grid.Coord
	priority float64
}

type queue []item

func (q queue) Len() int            { return len(q) }
func (q queue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q queue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x interface{}) { *q = append(*q, x.(item)) }
func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
