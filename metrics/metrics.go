// Package metrics exposes the service's Prometheus instrumentation and the
// standalone metrics HTTP server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruteri/encrypted-ticket-registry/common"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "operations_total",
		Help:      "Registry operations by name and outcome.",
	}, []string{"operation", "outcome"})

	eventsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "events_emitted_total",
		Help:      "Domain events emitted by kind.",
	}, []string{"kind"})

	sinkFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "event_sink_failures_total",
		Help:      "Event journal sink write failures by sink name.",
	}, []string{"sink"})
)

// RecordOperation counts one façade operation, labeled ok or error.
func RecordOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordEvent counts one emitted domain event.
func RecordEvent(kind string) {
	eventsEmittedTotal.WithLabelValues(kind).Inc()
}

// RecordSinkFailure counts one failed journal write.
func RecordSinkFailure(sink string) {
	sinkFailuresTotal.WithLabelValues(sink).Inc()
}

// MetricsServer serves the Prometheus scrape endpoint on its own listener,
// separate from the API server.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server bound to listenAddr.
func New(listenAddr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
