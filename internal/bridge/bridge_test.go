package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"overworld/internal/engine"
	"overworld/pkg/grid"
	"overworld/pkg/input"
)

var upgrader = websocket.Upgrader{}

// fakeEmulator answers each request frame with a canned reply.
func fakeEmulator(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
			base, err := DecodeBase(raw)
			if err != nil {
				return
			}

			switch base.Type {
			case TypeHello:
				conn.WriteJSON(WelcomeFrame{Type: TypeWelcome, ProtocolVersion: Version, Game: "emerald"})
			case TypeObserve:
				conn.WriteJSON(ObservationFrame{
					Type: TypeObservation,
					Rows: [][]string{
						{"path", "tree", "path"},
						{"path", "path", "path"},
					},
				})
			case TypeState:
				conn.WriteJSON(StateFrame{
					Type:      TypeStateReport,
					AreaName:  "pallet town",
					MapGroup:  3,
					MapNumber: 0,
					X:         5,
					Y:         7,
					Facing:    "Up",
					Mode:      "overworld",
				})
			case TypeInput:
				var in InputFrame
				json.Unmarshal(raw, &in)
				conn.WriteJSON(AckFrame{Type: TypeAck, OK: in.Action != "Start"})
			}
		}
	}))
}

func dialTest(t *testing.T) *Client {
	t.Helper()
	srv := fakeEmulator(t)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	c, err := Dial(context.Background(), url, "test-agent", log)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Observe(t *testing.T) {
	c := dialTest(t)

	obs, err := c.Observe(context.Background())
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if len(obs.Labels) != 2 || len(obs.Labels[0]) != 3 {
		t.Fatalf("got %dx%d window, want 2x3", len(obs.Labels), len(obs.Labels[0]))
	}
	if obs.Labels[0][1] != "tree" {
		t.Errorf("label[0][1] = %q, want tree", obs.Labels[0][1])
	}
}

func TestClient_Snapshot(t *testing.T) {
	c := dialTest(t)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Area != "map_3_0" {
		t.Errorf("area = %s, want map_3_0", snap.Area)
	}
	if snap.Pos != (grid.Coord{X: 5, Y: 7}) {
		t.Errorf("pos = %v, want (5,7)", snap.Pos)
	}
	if snap.Facing != input.North {
		t.Errorf("facing = %s, want North", snap.Facing)
	}
}

func TestClient_Mode(t *testing.T) {
	c := dialTest(t)

	mode, err := c.Mode(context.Background())
	if err != nil {
		t.Fatalf("mode: %v", err)
	}
	if mode != engine.ModeOverworld {
		t.Errorf("mode = %s, want overworld", mode)
	}
}

func TestClient_Execute(t *testing.T) {
	c := dialTest(t)
	ctx := context.Background()

	ok, err := c.Execute(ctx, input.Up)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !ok {
		t.Error("Up not acked")
	}

	ok, err = c.Execute(ctx, input.Start)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ok {
		t.Error("Start acked, fake rejects it")
	}
}
