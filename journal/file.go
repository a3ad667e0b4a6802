package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// FileSink appends events to a local JSON-lines file, one event per line.
type FileSink struct {
	path        string
	log         *slog.Logger
	locationURI string

	mu sync.Mutex
}

// NewFileSink creates a file sink writing to path, creating parent
// directories as needed.
func NewFileSink(path string, log *slog.Logger) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	// Touch the file so Available reflects reality from the start.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	f.Close()

	return &FileSink{
		path:        path,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", path),
	}, nil
}

// Record appends one event as a JSON line.
func (s *FileSink) Record(ctx context.Context, event interfaces.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	s.log.Debug("Recorded event to file",
		slog.String("path", s.path),
		slog.String("kind", string(event.Kind)))

	return nil
}

// Available checks if the journal file is accessible.
func (s *FileSink) Available(ctx context.Context) bool {
	_, err := os.Stat(s.path)
	if err != nil {
		s.log.Debug("File sink unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this sink.
func (s *FileSink) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.path))
}

// LocationURI returns the URI that identifies this sink.
func (s *FileSink) LocationURI() string {
	return s.locationURI
}
