package network

import (
	"context"

	"flight-sim/server/logging"
)

const (
	// EventMalformedFrame is emitted when an inbound frame fails to decode.
	EventMalformedFrame logging.EventType = "network.malformed_frame"
	// EventBroadcastFailed is emitted when a per-tick send to one client fails.
	EventBroadcastFailed logging.EventType = "network.broadcast_failed"
)

// MalformedFramePayload carries decode failure details. The raw frame is
// truncated upstream; only its length travels in the event.
type MalformedFramePayload struct {
	Error string `json:"error"`
	Bytes int    `json:"bytes"`
}

// BroadcastFailedPayload captures a failed fan-out write.
type BroadcastFailedPayload struct {
	Error string `json:"error"`
}

// MalformedFrame publishes a debug event for a dropped inbound frame.
func MalformedFrame(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MalformedFramePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMalformedFrame,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// BroadcastFailed publishes a warning for a client dropped during fan-out.
func BroadcastFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BroadcastFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBroadcastFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
