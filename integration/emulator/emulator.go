// Package emulator is a scripted stand-in for the real game bridge,
// used by the integration suite. It simulates one rectangular room
// with grass walls and answers the bridge protocol over a websocket.
package emulator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"overworld/internal/bridge"
	"overworld/pkg/grid"
	"overworld/pkg/input"
)

var upgrader = websocket.Upgrader{}

// Emulator holds the simulated room state. Safe for one client.
type Emulator struct {
	mu     sync.Mutex
	srv    *httptest.Server
	width  int
	height int
	pos    grid.Coord
	facing input.Direction

	AreaName string
	Group    int
	Number   int
}

// New starts an emulator with a width x height walkable room spanning
// (0,0) to (width-1, height-1). The agent starts in the middle.
func New(width, height int) *Emulator {
	e := &Emulator{
		width:    width,
		height:   height,
		pos:      grid.Coord{X: width / 2, Y: height / 2},
		facing:   input.South,
		AreaName: "test town",
		Group:    9,
		Number:   9,
	}
	e.srv = httptest.NewServer(http.HandlerFunc(e.serve))
	return e
}

// URL returns the websocket endpoint.
func (e *Emulator) URL() string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http")
}

// Close stops the server.
func (e *Emulator) Close() {
	e.srv.Close()
}

// Position returns the agent's current simulated position.
func (e *Emulator) Position() grid.Coord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

func (e *Emulator) walkable(c grid.Coord) bool {
	return c.X >= 0 && c.X < e.width && c.Y >= 0 && c.Y < e.height
}

func (e *Emulator) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := bridge.DecodeBase(raw)
		if err != nil {
			return
		}

		switch base.Type {
		case bridge.TypeHello:
			conn.WriteJSON(bridge.WelcomeFrame{
				Type:            bridge.TypeWelcome,
				ProtocolVersion: bridge.Version,
				Game:            "simulated",
			})
		case bridge.TypeObserve:
			conn.WriteJSON(e.observation())
		case bridge.TypeState:
			conn.WriteJSON(e.state())
		case bridge.TypeInput:
			conn.WriteJSON(e.apply(raw))
		}
	}
}

// observation builds a 3x3 label window centered on the agent.
func (e *Emulator) observation() bridge.ObservationFrame {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows := make([][]string, 3)
	for r := 0; r < 3; r++ {
		rows[r] = make([]string, 3)
		for c := 0; c < 3; c++ {
			world := e.pos.Step(c-1, r-1)
			if e.walkable(world) {
				rows[r][c] = "path"
			} else {
				rows[r][c] = "tree"
			}
		}
	}
	return bridge.ObservationFrame{Type: bridge.TypeObservation, Rows: rows}
}

func (e *Emulator) state() bridge.StateFrame {
	e.mu.Lock()
	defer e.mu.Unlock()

	return bridge.StateFrame{
		Type:      bridge.TypeStateReport,
		AreaName:  e.AreaName,
		MapGroup:  e.Group,
		MapNumber: e.Number,
		X:         e.pos.X,
		Y:         e.pos.Y,
		Facing:    string(e.facing.Action()),
		Mode:      "overworld",
	}
}

// apply executes one action the way the game would: a directional press
// turns first, then moves on the next press if the target is open.
func (e *Emulator) apply(raw []byte) bridge.AckFrame {
	e.mu.Lock()
	defer e.mu.Unlock()

	var in bridge.InputFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return bridge.AckFrame{Type: bridge.TypeAck, OK: false, Reason: "bad frame"}
	}

	action := input.Action(in.Action)
	if dir, ok := action.Direction(); ok {
		if dir != e.facing {
			e.facing = dir
		} else {
			dx, dy := dir.Delta()
			target := e.pos.Step(dx, dy)
			if e.walkable(target) {
				e.pos = target
			}
		}
	}
	return bridge.AckFrame{Type: bridge.TypeAck, OK: true}
}
