package lifecycle

import (
	"context"

	"flight-sim/server/logging"
)

const (
	// EventSessionJoined is emitted when a client registers and receives an aircraft.
	EventSessionJoined logging.EventType = "lifecycle.session_joined"
	// EventSessionClosed is emitted when a session and its aircraft are removed.
	EventSessionClosed logging.EventType = "lifecycle.session_closed"
	// EventSessionRefused is emitted when registration is rejected.
	EventSessionRefused logging.EventType = "lifecycle.session_refused"
)

// SessionJoinedPayload captures spawn metadata for a new session.
type SessionJoinedPayload struct {
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// SessionClosedPayload captures why a session ended.
type SessionClosedPayload struct {
	Reason string `json:"reason"`
}

// SessionRefusedPayload captures why registration was rejected.
type SessionRefusedPayload struct {
	Reason   string `json:"reason"`
	Sessions int    `json:"sessions"`
}

// SessionJoined publishes a session join event.
func SessionJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SessionJoinedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// SessionClosed publishes a session teardown event.
func SessionClosed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SessionClosedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionClosed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// SessionRefused publishes a registration refusal event.
func SessionRefused(ctx context.Context, pub logging.Publisher, tick uint64, payload SessionRefusedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionRefused,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}
