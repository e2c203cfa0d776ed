package proto

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWelcomeRoundTrip(t *testing.T) {
	frame := EncodeWelcome("3f0c2a9e-0000-4000-8000-000000000001")
	id, err := ParseWelcome(frame)
	if err != nil {
		t.Fatalf("failed to parse welcome frame: %v", err)
	}
	if id != "3f0c2a9e-0000-4000-8000-000000000001" {
		t.Fatalf("unexpected id %q", id)
	}
	if strings.Count(string(frame), ":") != 1 {
		t.Fatalf("welcome frame must carry exactly one colon: %q", frame)
	}
}

func TestParseWelcomeRejectsOtherFrames(t *testing.T) {
	if _, err := ParseWelcome([]byte(`{"type":"state"}`)); err == nil {
		t.Fatal("expected error for non-welcome frame")
	}
	if _, err := ParseWelcome([]byte("Welcome! no separator")); err == nil {
		t.Fatal("expected error for welcome frame without id")
	}
}

func TestDecodeInputDefaultsMissingFields(t *testing.T) {
	in, err := DecodeInput([]byte(`{"throttle_up": true}`))
	if err != nil {
		t.Fatalf("failed to decode input: %v", err)
	}
	if !in.ThrottleUp {
		t.Fatal("expected throttle_up set")
	}
	if in.ThrottleDown || in.PitchUp || in.PitchDown {
		t.Fatalf("expected missing fields to default to false, got %+v", in)
	}
}

func TestDecodeInputRejectsMalformedFrames(t *testing.T) {
	for _, payload := range []string{"not json", `"pitch_up"`, `42`, `null`, `[]`, ``} {
		if _, err := DecodeInput([]byte(payload)); err == nil {
			t.Fatalf("expected decode error for %q", payload)
		}
	}
}

func TestEncodeStateSnapshotWireShape(t *testing.T) {
	data, err := EncodeStateSnapshot(StateSnapshot{
		Tick: 7,
		Aircraft: []AircraftState{
			{ID: "a", X: 1, Y: 100, VX: 50, Theta: 0.1, Throttle: 0.5},
		},
	})
	if err != nil {
		t.Fatalf("failed to encode snapshot: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if decoded["type"] != TypeState {
		t.Fatalf("expected type %q, got %v", TypeState, decoded["type"])
	}
	list, ok := decoded["aircraft"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected one aircraft entry, got %v", decoded["aircraft"])
	}
	entry := list[0].(map[string]any)
	if entry["throttle_level"] != 0.5 {
		t.Fatalf("expected throttle_level field, got %v", entry)
	}
}

func TestEncodeStateSnapshotEmptyWorld(t *testing.T) {
	data, err := EncodeStateSnapshot(StateSnapshot{})
	if err != nil {
		t.Fatalf("failed to encode empty snapshot: %v", err)
	}
	var decoded struct {
		Aircraft []AircraftState `json:"aircraft"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("empty snapshot is not valid JSON: %v", err)
	}
	if decoded.Aircraft == nil {
		t.Fatal("expected aircraft field present even with no sessions")
	}
}
