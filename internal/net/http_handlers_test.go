package net

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"flight-sim/server"
)

func TestHealthzReportsOK(t *testing.T) {
	hub := server.NewHub()
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := nethttp.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("healthz returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read healthz body: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("healthz body %q, want ok", body)
	}
}

func TestDiagnosticsReportsHubState(t *testing.T) {
	hub := server.NewHub()
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := nethttp.Get(srv.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("diagnostics request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("diagnostics returned %d", resp.StatusCode)
	}

	var payload struct {
		Status   string               `json:"status"`
		TickRate int                  `json:"tickRate"`
		Sessions []server.SessionInfo `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode diagnostics payload: %v", err)
	}

	if payload.Status != "ok" {
		t.Fatalf("diagnostics status %q, want ok", payload.Status)
	}
	if payload.TickRate != hub.TickRate() {
		t.Fatalf("diagnostics tick rate %d, want %d", payload.TickRate, hub.TickRate())
	}
	if len(payload.Sessions) != 0 {
		t.Fatalf("expected no sessions on a fresh hub, got %d", len(payload.Sessions))
	}
}
