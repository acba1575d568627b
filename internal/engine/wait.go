package engine

import (
	"context"
	"fmt"
	"time"

	"overworld/pkg/outcome"
)

// settleResult is the tri-state outcome of the post-action wait.
type settleResult int

const (
	settleStabilized settleResult = iota
	settleTimedOut
	settleAreaChanged
	settleAborted
)

// waitForSettle polls the position reader until the agent's state
// stops changing, the area changes, or the timeout expires. Movement
// can take many ticks and can be interrupted by a scripted transition,
// so the caller branches on the result explicitly.
//
// A menu or battle opening mid-wait aborts the cycle: the classifier
// has not run yet, so no partial map mutation exists.
func (e *Engine) waitForSettle(ctx context.Context, before outcome.Snapshot) (settleResult, outcome.Snapshot, error) {
	settle := e.cfg.Settle

	// Minimum settle time before trusting any feedback.
	select {
	case <-ctx.Done():
		return settleAborted, outcome.Snapshot{}, ctx.Err()
	case <-time.After(settle.Min()):
	}

	deadline := time.Now().Add(settle.Timeout())
	last, err := e.reader.Snapshot(ctx)
	if err != nil {
		return settleAborted, outcome.Snapshot{}, fmt.Errorf("failed to poll position: %w", err)
	}

	for time.Now().Before(deadline) {
		if last.Area != before.Area {
			return settleAreaChanged, last, nil
		}

		mode, err := e.probe.Mode(ctx)
		if err != nil {
			return settleAborted, outcome.Snapshot{}, fmt.Errorf("failed to poll game mode: %w", err)
		}
		if mode == ModeBattle || mode == ModeMenu {
			return settleAborted, last, nil
		}

		select {
		case <-ctx.Done():
			return settleAborted, outcome.Snapshot{}, ctx.Err()
		case <-time.After(settle.Poll()):
		}

		cur, err := e.reader.Snapshot(ctx)
		if err != nil {
			return settleAborted, outcome.Snapshot{}, fmt.Errorf("failed to poll position: %w", err)
		}
		if cur == last {
			return settleStabilized, cur, nil
		}
		last = cur
	}

	e.log.Debug("Settle wait timed out", "area", last.Area, "pos", last.Pos)
	return settleTimedOut, last, nil
}

// watchDialogue polls the probe for a short window after an action
// settles, catching dialogues that open as a result (interactions and
// walk-on triggers).
func (e *Engine) watchDialogue(ctx context.Context) (bool, error) {
	deadline := time.Now().Add(e.cfg.Settle.DialogueWindow())
	for time.Now().Before(deadline) {
		mode, err := e.probe.Mode(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to poll game mode: %w", err)
		}
		if mode == ModeDialogue {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(e.cfg.Settle.Poll()):
		}
	}
	return false, nil
}
