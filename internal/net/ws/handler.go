package ws

import (
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"flight-sim/server"
	"flight-sim/server/internal/net/proto"
)

const (
	// pongWait is how long a connection may stay silent before the read
	// loop gives up on it.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so the peer has a full
	// window to answer each ping.
	pingPeriod = (pongWait * 9) / 10

	// maxFrameBytes bounds inbound control frames. Input payloads are a
	// handful of booleans; anything larger is garbage.
	maxFrameBytes = 4096
)

// HandlerConfig carries the optional collaborators for a Handler.
type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades HTTP requests into simulation sessions and pumps each
// connection's inbound control frames into the hub.
type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs a websocket session handler for the given hub.
func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

// Handle runs the full session lifecycle: upgrade, register, read loop,
// unregister. It blocks until the connection dies.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	id, err := h.hub.Register(conn)
	if err != nil {
		if err == server.ErrServerFull {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "server full")
			conn.WriteMessage(websocket.CloseMessage, message)
		} else {
			h.logger.Printf("session setup failed: %v", err)
		}
		conn.Close()
		return
	}

	h.serve(id, conn)
}

// serve owns the read half of the connection. Broadcast writes happen on
// the hub's tick goroutine; the only writes issued here are pings.
func (h *Handler) serve(id string, conn *websocket.Conn) {
	defer h.hub.Unregister(id)

	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPings := make(chan struct{})
	defer close(stopPings)
	go h.pingLoop(id, conn, stopPings)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		input, err := proto.DecodeInput(payload)
		if err != nil {
			h.logger.Printf("discarding malformed frame from %s: %v", id, err)
			h.hub.ReportMalformedFrame(id, len(payload), err)
			continue
		}

		h.hub.SetInput(id, input)
	}
}

func (h *Handler) pingLoop(id string, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			deadline := time.Now().Add(pongWait / 4)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				h.logger.Printf("ping failed for %s: %v", id, err)
				return
			}
		}
	}
}
