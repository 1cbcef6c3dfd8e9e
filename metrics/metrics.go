// Package metrics provides Prometheus metrics for formatlab runs.
package metrics

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels.
const (
	OpWrite = "write"
	OpRead  = "read"
)

// Metrics holds all Prometheus metrics of a run.
type Metrics struct {
	registry *prometheus.Registry

	WriteDuration *prometheus.HistogramVec
	ReadDuration  *prometheus.HistogramVec
	FileBytes     *prometheus.GaugeVec
	RoundTrips    *prometheus.CounterVec
}

// NewMetrics creates metrics with the given namespace on a private registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	buckets := []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

	return &Metrics{
		registry: reg,
		WriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_seconds",
			Help:      "Time spent serializing and writing a file",
			Buckets:   buckets,
		}, []string{"section", "format"}),
		ReadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "read_seconds",
			Help:      "Time spent reading and deserializing a file",
			Buckets:   buckets,
		}, []string{"section", "format"}),
		FileBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "file_bytes",
			Help:      "Size of the last file written per format",
		}, []string{"section", "format"}),
		RoundTrips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "round_trips_total",
			Help:      "Round trips by outcome",
		}, []string{"section", "format", "outcome"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordWrite records a write of size bytes.
func (m *Metrics) RecordWrite(section, format string, duration time.Duration, size int64) {
	m.WriteDuration.WithLabelValues(section, format).Observe(duration.Seconds())
	if size >= 0 {
		m.FileBytes.WithLabelValues(section, format).Set(float64(size))
	}
}

// RecordRead records a read and whether the data survived it.
func (m *Metrics) RecordRead(section, format string, duration time.Duration, intact bool) {
	m.ReadDuration.WithLabelValues(section, format).Observe(duration.Seconds())
	outcome := "intact"
	if !intact {
		outcome = "lossy"
	}
	m.RoundTrips.WithLabelValues(section, format, outcome).Inc()
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, m.registry), "writing metrics to %s", path)
}

// Server runs an HTTP server exposing /metrics and /health.
type Server struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

// NewServer creates a metrics server on the given address.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: slog.Default(),
	}
}

// StartAsync binds the address and serves in a goroutine.
func (s *Server) StartAsync() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}
	s.listener = lis
	go s.serve(lis)
	return nil
}

func (s *Server) serve(lis net.Listener) {
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("metrics server stopped", "addr", lis.Addr().String(), "err", err)
	}
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
