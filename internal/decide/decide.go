// Package decide ships the built-in decision sources. Both are
// deliberately simple: they exist to exercise the mapping loop, not to
// play well.
package decide

import (
	"context"
	"fmt"
	"math/rand"

	"overworld/internal/engine"
	"overworld/pkg/input"
)

// New returns the decision source named by strategy.
func New(strategy string, rng *rand.Rand) (engine.DecisionSource, error) {
	switch strategy {
	case "random":
		return &Random{rng: rng}, nil
	case "explore":
		return &Explorer{rng: rng}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}

// Random walks at random, weighted toward movement so the map still
// grows.
type Random struct {
	rng *rand.Rand
}

var randomWeights = []struct {
	action input.Action
	weight int
}{
	{input.Up, 20},
	{input.Down, 20},
	{input.Left, 20},
	{input.Right, 20},
	{input.A, 10},
	{input.Wait, 10},
}

func (r *Random) Decide(ctx context.Context, v *engine.View) (input.Action, error) {
	total := 0
	for _, w := range randomWeights {
		total += w.weight
	}
	n := r.rng.Intn(total)
	for _, w := range randomWeights {
		n -= w.weight
		if n < 0 {
			return w.action, nil
		}
	}
	return input.Wait, nil
}

// Explorer follows the advisor's suggestion most of the time, with
// enough randomness mixed in to shake loose from local traps the
// advisor cannot see.
type Explorer struct {
	rng *rand.Rand
}

func (e *Explorer) Decide(ctx context.Context, v *engine.View) (input.Action, error) {
	// A planned route out of a loop beats everything else.
	if v.Stuck && len(v.EscapeRoute) > 0 {
		return v.EscapeRoute[0], nil
	}

	roll := e.rng.Float64()
	switch {
	case roll < 0.6 && v.Suggestion.Suggested != "":
		return v.Suggestion.Suggested.Action(), nil
	case roll < 0.9:
		dir := input.Directions[e.rng.Intn(len(input.Directions))]
		return dir.Action(), nil
	default:
		return input.A, nil
	}
}
