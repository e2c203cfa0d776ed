package logging_test

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"flight-sim/server/logging"
	"flight-sim/server/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config, sink logging.Sink) *logging.Router {
	t.Helper()
	fallback := log.New(io.Discard, "", 0)
	router := logging.NewRouter(cfg, logging.SystemClock{}, fallback, []logging.NamedSink{{Name: "memory", Sink: sink}})
	t.Cleanup(func() {
		router.Close(context.Background())
	})
	return router
}

func waitForEvents(t *testing.T, sink *sinks.MemorySink, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := sink.Events()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(sink.Events()))
	return nil
}

func TestRouterDeliversToSink(t *testing.T) {
	sink := sinks.NewMemorySink()
	router := newTestRouter(t, logging.DefaultConfig(), sink)

	router.Publish(context.Background(), logging.Event{
		Type:     "lifecycle.session_joined",
		Tick:     3,
		Actor:    logging.EntityRef{ID: "abc", Kind: logging.EntityKindSession},
		Severity: logging.SeverityInfo,
	})

	events := waitForEvents(t, sink, 1)
	if events[0].Type != "lifecycle.session_joined" {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
	if events[0].Tick != 3 {
		t.Fatalf("expected tick 3, got %d", events[0].Tick)
	}
	if events[0].Time.IsZero() {
		t.Fatal("expected router to stamp event time")
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	sink := sinks.NewMemorySink()
	router := newTestRouter(t, cfg, sink)

	router.Publish(context.Background(), logging.Event{Type: "quiet", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "loud", Severity: logging.SeverityWarn})

	events := waitForEvents(t, sink, 1)
	for _, event := range events {
		if event.Type == "quiet" {
			t.Fatal("info event should have been filtered")
		}
	}
}

func TestRouterStampsConfiguredFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"node": "test-1"}
	sink := sinks.NewMemorySink()
	router := newTestRouter(t, cfg, sink)

	router.Publish(context.Background(), logging.Event{Type: "tagged", Severity: logging.SeverityInfo})

	events := waitForEvents(t, sink, 1)
	if events[0].Extra["node"] != "test-1" {
		t.Fatalf("expected configured field on event, got %v", events[0].Extra)
	}
}

func TestRouterCloseDrainsQueue(t *testing.T) {
	sink := sinks.NewMemorySink()
	fallback := log.New(io.Discard, "", 0)
	router := logging.NewRouter(logging.DefaultConfig(), logging.SystemClock{}, fallback, []logging.NamedSink{{Name: "memory", Sink: sink}})

	for i := 0; i < 10; i++ {
		router.Publish(context.Background(), logging.Event{Type: "burst", Severity: logging.SeverityInfo})
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if got := len(sink.Events()); got != 10 {
		t.Fatalf("expected all 10 queued events delivered on close, got %d", got)
	}
}

func TestRouterCloseIsIdempotent(t *testing.T) {
	journal, err := sinks.NewJournalSink(logging.JournalConfig{
		FilePath: filepath.Join(t.TempDir(), "events.ndjson"),
	})
	if err != nil {
		t.Fatalf("failed to open journal sink: %v", err)
	}

	fallback := log.New(io.Discard, "", 0)
	router := logging.NewRouter(logging.DefaultConfig(), logging.SystemClock{}, fallback,
		[]logging.NamedSink{{Name: "journal", Sink: journal}})

	router.Publish(context.Background(), logging.Event{Type: "shutdown", Severity: logging.SeverityInfo})

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestJournalSinkCloseIsIdempotent(t *testing.T) {
	journal, err := sinks.NewJournalSink(logging.JournalConfig{
		FilePath: filepath.Join(t.TempDir(), "events.ndjson"),
	})
	if err != nil {
		t.Fatalf("failed to open journal sink: %v", err)
	}

	if err := journal.Close(context.Background()); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := journal.Close(context.Background()); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestWithFieldsDoesNotOverwrite(t *testing.T) {
	var captured logging.Event
	pub := logging.WithFields(logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = event
	}), map[string]any{"node": "a", "zone": "b"})

	pub.Publish(context.Background(), logging.Event{Extra: map[string]any{"node": "explicit"}})
	if captured.Extra["node"] != "explicit" {
		t.Fatalf("expected per-event value preserved, got %v", captured.Extra)
	}
	if captured.Extra["zone"] != "b" {
		t.Fatalf("expected injected field, got %v", captured.Extra)
	}
}
