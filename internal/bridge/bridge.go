// Package bridge is the websocket client for the emulator: it requests
// label observations and position state, and injects button presses.
// One frame type per concern, all schema-validated on receipt.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"overworld/internal/engine"
	"overworld/pkg/grid"
	"overworld/pkg/input"
	"overworld/pkg/outcome"
	"overworld/pkg/tilemap"
)

// The emulator answers every request with exactly one frame; anything
// else on the wire in between is tolerated up to this many frames.
const maxSkippedFrames = 16

const frameTimeout = 5 * time.Second

// Client speaks the bridge protocol over a single websocket. Requests
// are serialized: the engine is single-threaded, and the mutex keeps
// stray callers from interleaving frames.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *slog.Logger
}

var (
	_ engine.VisionSource   = (*Client)(nil)
	_ engine.PositionReader = (*Client)(nil)
	_ engine.GameStateProbe = (*Client)(nil)
	_ engine.InputDriver    = (*Client)(nil)
)

// Dial connects to the emulator and completes the HELLO handshake.
func Dial(ctx context.Context, url, agentName string, log *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial bridge at %s: %w", url, err)
	}

	c := &Client{conn: conn, log: log}
	hello := HelloFrame{Type: TypeHello, ProtocolVersion: Version, AgentName: agentName}
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send HELLO: %w", err)
	}

	var welcome WelcomeFrame
	if err := c.readFrame(TypeWelcome, nil, &welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake failed: %w", err)
	}
	log.Info("Bridge connected", "game", welcome.Game, "session", welcome.SessionID)
	return c, nil
}

// Close shuts the websocket down.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Observe requests the current label window.
func (c *Client) Observe(ctx context.Context) (*tilemap.Observation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var frame ObservationFrame
	if err := c.request(ctx, TypeObserve, TypeObservation, observationSchema, &frame); err != nil {
		return nil, err
	}

	labels := make([][]tilemap.TileLabel, len(frame.Rows))
	for r, row := range frame.Rows {
		labels[r] = make([]tilemap.TileLabel, len(row))
		for col, l := range row {
			labels[r][col] = tilemap.TileLabel(l)
		}
	}
	return &tilemap.Observation{Labels: labels}, nil
}

// Snapshot requests the agent's position state.
func (c *Client) Snapshot(ctx context.Context) (outcome.Snapshot, error) {
	state, err := c.state(ctx)
	if err != nil {
		return outcome.Snapshot{}, err
	}

	facing, err := input.ParseDirection(state.Facing)
	if err != nil {
		return outcome.Snapshot{}, fmt.Errorf("bridge reported bad facing: %w", err)
	}
	return outcome.Snapshot{
		Area:     tilemap.MakeAreaID(state.MapGroup, state.MapNumber),
		AreaName: state.AreaName,
		Group:    state.MapGroup,
		Number:   state.MapNumber,
		Pos:      grid.Coord{X: state.X, Y: state.Y},
		Facing:   facing,
	}, nil
}

// Mode requests the game's coarse mode.
func (c *Client) Mode(ctx context.Context) (engine.Mode, error) {
	state, err := c.state(ctx)
	if err != nil {
		return engine.ModeUnknown, err
	}
	switch state.Mode {
	case "overworld":
		return engine.ModeOverworld, nil
	case "dialogue":
		return engine.ModeDialogue, nil
	case "battle":
		return engine.ModeBattle, nil
	case "menu":
		return engine.ModeMenu, nil
	default:
		return engine.ModeUnknown, nil
	}
}

// Execute injects one button press and waits for the ack.
func (c *Client) Execute(ctx context.Context, a input.Action) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := InputFrame{Type: TypeInput, ProtocolVersion: Version, Action: string(a)}
	if err := c.writeFrame(ctx, req); err != nil {
		return false, err
	}

	var ack AckFrame
	if err := c.readFrame(TypeAck, ackSchema, &ack); err != nil {
		return false, err
	}
	if !ack.OK {
		c.log.Warn("Input rejected by bridge", "action", a, "reason", ack.Reason)
	}
	return ack.OK, nil
}

func (c *Client) state(ctx context.Context) (*StateFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var frame StateFrame
	if err := c.request(ctx, TypeState, TypeStateReport, stateSchema, &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

// request sends a bare request frame and reads the matching reply.
// Callers hold the mutex.
func (c *Client) request(ctx context.Context, reqType, wantType string, schema *jsonschema.Schema, into any) error {
	if err := c.writeFrame(ctx, RequestFrame{Type: reqType, ProtocolVersion: Version}); err != nil {
		return err
	}
	return c.readFrame(wantType, schema, into)
}

func (c *Client) writeFrame(ctx context.Context, frame any) error {
	deadline := time.Now().Add(frameTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}

// readFrame reads until a frame of wantType arrives, validates it
// against schema when one is given, and unmarshals into the typed
// struct. ERROR frames and a run of unexpected types fail the read.
func (c *Client) readFrame(wantType string, schema *jsonschema.Schema, into any) error {
	c.conn.SetReadDeadline(time.Now().Add(frameTimeout))

	for skipped := 0; skipped <= maxSkippedFrames; skipped++ {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}

		base, err := DecodeBase(raw)
		if err != nil {
			return fmt.Errorf("undecodable frame: %w", err)
		}
		switch base.Type {
		case wantType:
			if schema != nil {
				if err := validateFrame(schema, raw); err != nil {
					return err
				}
			}
			if into == nil {
				return nil
			}
			return json.Unmarshal(raw, into)
		case TypeError:
			var e ErrorFrame
			if err := json.Unmarshal(raw, &e); err != nil {
				return fmt.Errorf("bridge error frame: %s", raw)
			}
			return fmt.Errorf("bridge error: %s", e.Message)
		default:
			c.log.Debug("Skipping unexpected frame", "type", base.Type, "want", wantType)
		}
	}
	return fmt.Errorf("no %s frame within %d messages", wantType, maxSkippedFrames)
}
