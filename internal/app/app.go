package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"flight-sim/server"
	servernet "flight-sim/server/internal/net"
	"flight-sim/server/logging"
	loggingsinks "flight-sim/server/logging/sinks"
)

// Config carries the deployment knobs that come from the command line.
// Everything else is read from the environment.
type Config struct {
	Addr   string
	Logger *log.Logger
}

// Run wires the hub, the simulation loop, and the HTTP server together and
// blocks until the listener fails or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("skipping .env: %v", err)
	}

	logConfig := logging.DefaultConfig()
	if raw := os.Getenv("FLIGHTSIM_LOG_SINKS"); raw != "" {
		logConfig.EnabledSinks = splitList(raw)
	}
	if raw := os.Getenv("FLIGHTSIM_JOURNAL_PATH"); raw != "" {
		logConfig.Journal.FilePath = raw
		if !logConfig.HasSink("journal") {
			logConfig.EnabledSinks = append(logConfig.EnabledSinks, "journal")
		}
	}

	sinks, err := buildSinks(logConfig)
	if err != nil {
		return fmt.Errorf("failed to construct log sinks: %w", err)
	}

	router := logging.NewRouter(logConfig, logging.SystemClock{}, logger, sinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	hubCfg := server.DefaultHubConfig()
	hubCfg.Publisher = router
	if raw := os.Getenv("FLIGHTSIM_TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			hubCfg.TickRate = value
		} else {
			logger.Printf("invalid FLIGHTSIM_TICK_RATE=%q, keeping %d", raw, hubCfg.TickRate)
		}
	}
	if raw := os.Getenv("FLIGHTSIM_MAX_SESSIONS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			hubCfg.MaxSessions = value
		} else {
			logger.Printf("invalid FLIGHTSIM_MAX_SESSIONS=%q, keeping %d", raw, hubCfg.MaxSessions)
		}
	}

	hub := server.NewHubWithConfig(hubCfg)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{Logger: logger})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("server listening on %s (tick rate %d Hz)", srv.Addr, hub.TickRate())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func buildSinks(cfg logging.Config) ([]logging.NamedSink, error) {
	var sinks []logging.NamedSink
	if cfg.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingsinks.NewConsoleSink(os.Stdout)})
	}
	if cfg.HasSink("journal") {
		journal, err := loggingsinks.NewJournalSink(cfg.Journal)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, logging.NamedSink{Name: "journal", Sink: journal})
	}
	return sinks, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
