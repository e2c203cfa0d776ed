package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/mux"

	"flight-sim/server"
	"flight-sim/server/internal/net/ws"
)

// HTTPHandlerConfig carries the optional collaborators for the HTTP layer.
type HTTPHandlerConfig struct {
	Logger *log.Logger
}

// NewHTTPHandler mounts the websocket endpoint and the operational routes
// on a fresh router.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	sessions := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})

	router := mux.NewRouter()

	router.HandleFunc("/ws", sessions.Handle)

	router.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}).Methods(nethttp.MethodGet)

	router.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string                `json:"status"`
			ServerTime int64                 `json:"serverTime"`
			TickRate   int                   `json:"tickRate"`
			Tick       uint64                `json:"tick"`
			Sessions   []server.SessionInfo  `json:"sessions"`
			Telemetry  server.TelemetryStats `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   hub.TickRate(),
			Tick:       hub.CurrentTick(),
			Sessions:   hub.DiagnosticsSnapshot(),
			Telemetry:  hub.TelemetrySnapshot(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}).Methods(nethttp.MethodGet)

	return router
}

func httpError(w nethttp.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(message))
}
