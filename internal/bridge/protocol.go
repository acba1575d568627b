package bridge

import "encoding/json"

const Version = "1.0"

// Frame types.
const (
	TypeHello       = "HELLO"
	TypeWelcome     = "WELCOME"
	TypeObserve     = "OBSERVE"
	TypeObservation = "OBSERVATION"
	TypeState       = "STATE"
	TypeStateReport = "STATE_REPORT"
	TypeInput       = "INPUT"
	TypeAck         = "ACK"
	TypeError       = "ERROR"
)

// BaseFrame lets us route incoming JSON frames by type.
type BaseFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseFrame, error) {
	var f BaseFrame
	err := json.Unmarshal(b, &f)
	return f, err
}

// HELLO (client -> emulator)
type HelloFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
}

// WELCOME (emulator -> client)
type WelcomeFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id,omitempty"`
	Game            string `json:"game,omitempty"`
}

// OBSERVE / STATE (client -> emulator): bare requests.
type RequestFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// OBSERVATION (emulator -> client): the classifier's label window,
// row-major, rows[r][c].
type ObservationFrame struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version,omitempty"`
	Rows            [][]string `json:"rows"`
}

// STATE_REPORT (emulator -> client)
type StateFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	AreaName        string `json:"area_name"`
	MapGroup        int    `json:"map_group"`
	MapNumber       int    `json:"map_number"`
	X               int    `json:"x"`
	Y               int    `json:"y"`
	Facing          string `json:"facing"`
	Mode            string `json:"mode"`
}

// INPUT (client -> emulator)
type InputFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Action          string `json:"action"`
}

// ACK (emulator -> client)
type AckFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	OK              bool   `json:"ok"`
	Reason          string `json:"reason,omitempty"`
}

// ERROR (emulator -> client)
type ErrorFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	Message         string `json:"message"`
}
