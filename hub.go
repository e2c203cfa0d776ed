package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"flight-sim/server/internal/net/proto"
	"flight-sim/server/internal/sim"
	"flight-sim/server/logging"
	"flight-sim/server/logging/lifecycle"
	lognet "flight-sim/server/logging/network"
	logsim "flight-sim/server/logging/simulation"
)

// ErrServerFull is returned by Register when the session cap is reached.
var ErrServerFull = errors.New("session limit reached")

// HubConfig tunes the session registry and simulation loop.
type HubConfig struct {
	TickRate    int
	MaxSessions int
	Publisher   logging.Publisher
	Clock       logging.Clock
}

// DefaultHubConfig returns the production defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		TickRate:    defaultTickRate,
		MaxSessions: defaultMaxSessions,
	}
}

// sessionState binds one connection identity to its aircraft and the most
// recently received control input. The input field is a single-slot cell:
// every inbound frame overwrites it, and the simulation loop reads whatever
// value is current at the start of the tick. Intermediate inputs inside one
// tick are dropped on purpose.
type sessionState struct {
	id        string
	aircraft  sim.Aircraft
	input     sim.Input
	joinedAt  time.Time
	lastInput time.Time
}

// Conn is the subset of *websocket.Conn the hub needs for outbound writes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// subscriber owns the write half of one websocket connection. The mutex
// serializes broadcast writes with session-scoped writes (welcome frame).
type subscriber struct {
	conn Conn
	mu   sync.Mutex
}

// Write sends one text frame under the write deadline.
func (s *subscriber) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub is the session registry and the single owner of aircraft state.
// One mutex guards sessions, subscribers, and join order, which makes
// register, unregister, input writes, and tick snapshots mutually atomic.
type Hub struct {
	mu          sync.Mutex
	sessions    map[string]*sessionState
	subscribers map[string]*subscriber
	order       []string

	cfg       HubConfig
	clock     logging.Clock
	publisher logging.Publisher
	telemetry telemetryCounters
	tick      atomic.Uint64
}

// NewHub creates a hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a hub with the provided configuration.
func NewHubWithConfig(cfg HubConfig) *Hub {
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	clock := cfg.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Hub{
		sessions:    make(map[string]*sessionState),
		subscribers: make(map[string]*subscriber),
		cfg:         cfg,
		clock:       clock,
		publisher:   publisher,
	}
}

// TickRate reports the configured simulation frequency.
func (h *Hub) TickRate() int {
	return h.cfg.TickRate
}

// CurrentTick reports the number of completed simulation ticks.
func (h *Hub) CurrentTick() uint64 {
	return h.tick.Load()
}

// Register mints a fresh session id, spawns its aircraft, and delivers the
// welcome frame before the connection becomes visible to broadcasts. After a
// successful return the hub owns all writes to conn.
func (h *Hub) Register(conn Conn) (string, error) {
	id := uuid.NewString()
	now := h.clock.Now()
	state := &sessionState{id: id, aircraft: sim.NewAircraft(), joinedAt: now}

	h.mu.Lock()
	if h.cfg.MaxSessions > 0 && len(h.sessions) >= h.cfg.MaxSessions {
		count := len(h.sessions)
		h.mu.Unlock()
		lifecycle.SessionRefused(context.Background(), h.publisher, h.tick.Load(), lifecycle.SessionRefusedPayload{
			Reason:   "session_limit",
			Sessions: count,
		})
		return "", ErrServerFull
	}
	h.sessions[id] = state
	h.order = append(h.order, id)
	h.telemetry.RecordSessions(len(h.sessions))
	h.mu.Unlock()

	sub := &subscriber{conn: conn}
	if err := sub.Write(proto.EncodeWelcome(id)); err != nil {
		h.Unregister(id)
		return "", err
	}

	h.mu.Lock()
	if _, ok := h.sessions[id]; ok {
		h.subscribers[id] = sub
	}
	h.mu.Unlock()

	lifecycle.SessionJoined(context.Background(), h.publisher, h.tick.Load(),
		logging.EntityRef{ID: id, Kind: logging.EntityKindSession},
		lifecycle.SessionJoinedPayload{SpawnX: sim.SpawnX, SpawnY: sim.SpawnY})

	return id, nil
}

// Unregister removes the session, its aircraft, and its subscriber, and
// closes the connection. Unregistering an absent id is a no-op.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	sub, subOK := h.subscribers[id]
	if subOK {
		delete(h.subscribers, id)
	}
	_, sessionOK := h.sessions[id]
	if sessionOK {
		delete(h.sessions, id)
		for i, existing := range h.order {
			if existing == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	if sessionOK {
		lifecycle.SessionClosed(context.Background(), h.publisher, h.tick.Load(),
			logging.EntityRef{ID: id, Kind: logging.EntityKindSession},
			lifecycle.SessionClosedPayload{Reason: "connection_closed"})
	}
}

// SetInput overwrites the stored control input for a session. Inputs for
// ids that are no longer registered are silently discarded; the client may
// have disconnected while the frame was in flight.
func (h *Hub) SetInput(id string, input sim.Input) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.sessions[id]
	if !ok {
		return false
	}
	state.input = input
	state.lastInput = h.clock.Now()
	return true
}

// Snapshot returns a consistent view of all live aircraft in join order.
func (h *Hub) Snapshot() []proto.AircraftState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Hub) snapshotLocked() []proto.AircraftState {
	aircraft := make([]proto.AircraftState, 0, len(h.order))
	for _, id := range h.order {
		state, ok := h.sessions[id]
		if !ok {
			continue
		}
		aircraft = append(aircraft, proto.AircraftState{
			ID:       state.id,
			X:        state.aircraft.X,
			Y:        state.aircraft.Y,
			VX:       state.aircraft.VX,
			VY:       state.aircraft.VY,
			Theta:    state.aircraft.Theta,
			Throttle: state.aircraft.Throttle,
		})
	}
	return aircraft
}

// advance runs one physics step for every aircraft and returns the snapshot
// produced by that step. Every aircraft sees the input value stored at the
// moment the hub lock was taken; registration and input writes wait until
// the whole tick has been applied.
func (h *Hub) advance(dt float64) []proto.AircraftState {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range h.order {
		if state, ok := h.sessions[id]; ok {
			state.aircraft = sim.Advance(state.aircraft, state.input, dt)
		}
	}
	return h.snapshotLocked()
}

// RunSimulation drives the fixed-timestep loop until the stop channel
// closes. Ticks fire on the wall clock regardless of client activity; with
// zero sessions each tick still broadcasts an empty world. When a tick
// overruns its budget the ticker drops the missed slots, so the loop lags
// instead of accumulating a backlog.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	period := time.Second / time.Duration(h.cfg.TickRate)
	dt := 1.0 / float64(h.cfg.TickRate)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tick := h.tick.Add(1)
			start := h.clock.Now()

			aircraft := h.advance(dt)
			h.broadcastState(tick, aircraft)

			duration := h.clock.Now().Sub(start)
			h.telemetry.RecordTickDuration(duration)
			if duration > period {
				logsim.TickBudgetOverrun(context.Background(), h.publisher, tick, logsim.TickBudgetOverrunPayload{
					DurationMillis: duration.Milliseconds(),
					BudgetMillis:   period.Milliseconds(),
					Ratio:          float64(duration) / float64(period),
				})
			}
		}
	}
}

// broadcastState serializes the snapshot once and fans it out to every
// subscriber. A failed write disconnects only that client; the remaining
// sends are unaffected.
func (h *Hub) broadcastState(tick uint64, aircraft []proto.AircraftState) {
	data, err := proto.EncodeStateSnapshot(proto.StateSnapshot{
		Tick:       tick,
		ServerTime: h.clock.Now().UnixMilli(),
		Aircraft:   aircraft,
	})
	if err != nil {
		lognet.BroadcastFailed(context.Background(), h.publisher, tick,
			logging.EntityRef{Kind: logging.EntityKindWorld},
			lognet.BroadcastFailedPayload{Error: err.Error()})
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	delivered := 0
	for id, sub := range subs {
		if err := sub.Write(data); err != nil {
			lognet.BroadcastFailed(context.Background(), h.publisher, tick,
				logging.EntityRef{ID: id, Kind: logging.EntityKindSession},
				lognet.BroadcastFailedPayload{Error: err.Error()})
			h.Unregister(id)
			continue
		}
		delivered++
	}

	h.telemetry.RecordBroadcast(len(data)*delivered, len(aircraft))
}

// ReportMalformedFrame surfaces a dropped inbound frame to the event log.
func (h *Hub) ReportMalformedFrame(id string, size int, err error) {
	lognet.MalformedFrame(context.Background(), h.publisher, h.tick.Load(),
		logging.EntityRef{ID: id, Kind: logging.EntityKindSession},
		lognet.MalformedFramePayload{Error: err.Error(), Bytes: size})
}

// SessionInfo describes one live session for the diagnostics endpoint.
type SessionInfo struct {
	ID        string `json:"id"`
	JoinedAt  int64  `json:"joinedAt"`
	LastInput int64  `json:"lastInput,omitempty"`
}

// DiagnosticsSnapshot lists live sessions for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []SessionInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions := make([]SessionInfo, 0, len(h.order))
	for _, id := range h.order {
		state, ok := h.sessions[id]
		if !ok {
			continue
		}
		entry := SessionInfo{ID: state.id, JoinedAt: state.joinedAt.UnixMilli()}
		if !state.lastInput.IsZero() {
			entry.LastInput = state.lastInput.UnixMilli()
		}
		sessions = append(sessions, entry)
	}
	return sessions
}

// TelemetrySnapshot exposes the hub counters for the diagnostics endpoint.
func (h *Hub) TelemetrySnapshot() TelemetryStats {
	return h.telemetry.Snapshot()
}
