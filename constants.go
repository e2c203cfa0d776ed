package server

import "time"

const (
	// writeWait bounds every outbound frame write so one stalled client
	// cannot wedge the broadcast fan-out.
	writeWait = 10 * time.Second

	// defaultTickRate is the simulation frequency in ticks per second.
	// 20 Hz gives the fixed 50ms tick the physics is tuned for.
	defaultTickRate = 20

	// defaultMaxSessions caps concurrent clients. Registration beyond the
	// cap is refused without disturbing existing sessions.
	defaultMaxSessions = 64
)
