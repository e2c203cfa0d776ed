package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"flight-sim/server/logging"
)

// JournalSink appends events as NDJSON to a flight-recorder file. Writes go
// through a buffered writer flushed on an interval, so a crash can lose at
// most one flush window of events.
type JournalSink struct {
	mu        sync.Mutex
	file      *os.File
	writer    *bufio.Writer
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func NewJournalSink(cfg logging.JournalConfig) (*JournalSink, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("journal sink requires a file path")
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", cfg.FilePath, err)
	}

	s := &JournalSink{
		file:   file,
		writer: bufio.NewWriter(file),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go s.flushLoop(interval)
	return s, nil
}

func (s *JournalSink) Write(event logging.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal journal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return fmt.Errorf("journal sink closed")
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.WriteByte('\n')
}

func (s *JournalSink) Close(context.Context) error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done

		s.mu.Lock()
		defer s.mu.Unlock()
		flushErr := s.writer.Flush()
		closeErr := s.file.Close()
		s.writer = nil
		s.file = nil
		if flushErr != nil {
			s.closeErr = flushErr
			return
		}
		s.closeErr = closeErr
	})
	return s.closeErr
}

func (s *JournalSink) flushLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.writer != nil {
				s.writer.Flush()
			}
			s.mu.Unlock()
		}
	}
}
