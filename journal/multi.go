package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// MultiSink fans one event out to several sinks. A record succeeds if at
// least one sink accepts it.
type MultiSink struct {
	sinks []interfaces.EventSink
	log   *slog.Logger
}

// NewMultiSink creates a sink aggregating the given sinks.
func NewMultiSink(sinks []interfaces.EventSink, log *slog.Logger) *MultiSink {
	return &MultiSink{sinks: sinks, log: log}
}

// Record writes the event to every sink. Individual failures are logged;
// the call fails only if every sink fails.
func (m *MultiSink) Record(ctx context.Context, event interfaces.Event) error {
	var errs []error
	succeeded := 0

	for _, sink := range m.sinks {
		if err := sink.Record(ctx, event); err != nil {
			m.log.Warn("Sink failed to record event",
				slog.String("sink", sink.Name()),
				slog.String("kind", string(event.Kind)),
				"err", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		succeeded++
	}

	if succeeded == 0 && len(m.sinks) > 0 {
		return fmt.Errorf("all sinks failed: %w", errors.Join(errs...))
	}
	return nil
}

// Available reports whether at least one sink is accessible.
func (m *MultiSink) Available(ctx context.Context) bool {
	for _, sink := range m.sinks {
		if sink.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns a composite identifier listing the aggregated sinks.
func (m *MultiSink) Name() string {
	names := make([]string, len(m.sinks))
	for i, sink := range m.sinks {
		names[i] = sink.Name()
	}
	return fmt.Sprintf("multi[%s]", strings.Join(names, ","))
}

// LocationURI returns a comma-separated list of the aggregated URIs.
func (m *MultiSink) LocationURI() string {
	uris := make([]string, len(m.sinks))
	for i, sink := range m.sinks {
		uris[i] = sink.LocationURI()
	}
	return strings.Join(uris, ",")
}
