package server

import (
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent             atomic.Uint64
	aircraftSent          atomic.Uint64
	tickDurationMillis    atomic.Int64
	lastBroadcastBytes    atomic.Uint64
	lastBroadcastAircraft atomic.Uint64
	sessionsPeak          atomic.Uint64
}

// TelemetryStats is the point-in-time view of the hub counters.
type TelemetryStats struct {
	BytesSent             uint64 `json:"bytesSent"`
	AircraftSent          uint64 `json:"aircraftSent"`
	TickDurationMillis    int64  `json:"tickDurationMillis"`
	LastBroadcastBytes    uint64 `json:"lastBroadcastBytes"`
	LastBroadcastAircraft uint64 `json:"lastBroadcastAircraft"`
	SessionsPeak          uint64 `json:"sessionsPeak"`
}

func (t *telemetryCounters) RecordBroadcast(bytes, aircraft int) {
	if bytes < 0 {
		bytes = 0
	}
	if aircraft < 0 {
		aircraft = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.aircraftSent.Add(uint64(aircraft))
	t.lastBroadcastBytes.Store(uint64(bytes))
	t.lastBroadcastAircraft.Store(uint64(aircraft))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
}

func (t *telemetryCounters) RecordSessions(count int) {
	if count < 0 {
		return
	}
	for {
		peak := t.sessionsPeak.Load()
		if uint64(count) <= peak {
			return
		}
		if t.sessionsPeak.CompareAndSwap(peak, uint64(count)) {
			return
		}
	}
}

func (t *telemetryCounters) Snapshot() TelemetryStats {
	return TelemetryStats{
		BytesSent:             t.bytesSent.Load(),
		AircraftSent:          t.aircraftSent.Load(),
		TickDurationMillis:    t.tickDurationMillis.Load(),
		LastBroadcastBytes:    t.lastBroadcastBytes.Load(),
		LastBroadcastAircraft: t.lastBroadcastAircraft.Load(),
		SessionsPeak:          t.sessionsPeak.Load(),
	}
}
