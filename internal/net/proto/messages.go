package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"flight-sim/server/internal/sim"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	// TypeState identifies the per-tick snapshot payload.
	TypeState = "state"

	// welcomePrefix frames the one-time greeting. Clients locate their id by
	// splitting the frame on the single colon, so the prefix must never grow
	// a second one.
	welcomePrefix = "Welcome! Your client id is: "
)

// AircraftState is the broadcast view of one aircraft. Field names are part
// of the wire contract; embedded clients index them directly.
type AircraftState struct {
	ID       string  `json:"id" jsonschema:"description=Session identity issued in the welcome frame"`
	X        float64 `json:"x" jsonschema:"description=Horizontal position in meters"`
	Y        float64 `json:"y" jsonschema:"description=Altitude in meters"`
	VX       float64 `json:"vx" jsonschema:"description=Horizontal velocity in m/s"`
	VY       float64 `json:"vy" jsonschema:"description=Vertical velocity in m/s"`
	Theta    float64 `json:"theta" jsonschema:"description=Pitch angle in radians"`
	Throttle float64 `json:"throttle_level" jsonschema:"description=Throttle level in [0,1]"`
}

// StateSnapshot is the per-tick broadcast payload.
type StateSnapshot struct {
	Ver        int             `json:"ver"`
	Type       string          `json:"type"`
	Tick       uint64          `json:"t"`
	ServerTime int64           `json:"serverTime"`
	Aircraft   []AircraftState `json:"aircraft"`
}

// EncodeStateSnapshot renders a snapshot payload, filling in the protocol
// envelope fields.
func EncodeStateSnapshot(msg StateSnapshot) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = TypeState
	}
	msg.Ver = Version
	if msg.Aircraft == nil {
		msg.Aircraft = []AircraftState{}
	}
	return json.Marshal(msg)
}

// EncodeWelcome renders the one-time greeting for a new session.
func EncodeWelcome(id string) []byte {
	return []byte(welcomePrefix + id)
}

// ParseWelcome extracts the session id from a welcome frame.
func ParseWelcome(frame []byte) (string, error) {
	text := string(frame)
	if !strings.HasPrefix(text, "Welcome!") {
		return "", fmt.Errorf("not a welcome frame: %q", text)
	}
	_, id, ok := strings.Cut(text, ":")
	if !ok {
		return "", fmt.Errorf("welcome frame missing id separator: %q", text)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("welcome frame missing id: %q", text)
	}
	return id, nil
}

// DecodeInput converts a raw client frame into a control input. Clients send
// a bare JSON object with four boolean fields; anything absent defaults to
// false. Anything that is not a JSON object is rejected, including null,
// which Unmarshal would otherwise accept as a no-op.
func DecodeInput(payload []byte) (sim.Input, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return sim.Input{}, fmt.Errorf("input frame is not a JSON object: %q", payload)
	}
	var in sim.Input
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return sim.Input{}, fmt.Errorf("decode input frame: %w", err)
	}
	return in, nil
}
