// Package metrics exposes encoder counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the encoder metrics.
type Metrics struct {
	FramesEncoded atomic.Uint64
	Packets       atomic.Uint64
	Keyframes     atomic.Uint64
	Bytes         atomic.Uint64
	EncodeErrors  atomic.Uint64
	Reconfigures  atomic.Uint64

	// Configured frame size
	Width  atomic.Uint64
	Height atomic.Uint64

	encodeLatency prometheus.Histogram
	registry      *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		encodeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vpxenc_encode_seconds",
			Help:    "Latency of a single Encode call",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	counters := []struct {
		name, help string
		v          *atomic.Uint64
	}{
		{"vpxenc_frames_encoded_total", "Total frames accepted by the encoder", &m.FramesEncoded},
		{"vpxenc_packets_total", "Total encoded packets delivered", &m.Packets},
		{"vpxenc_keyframes_total", "Total keyframes delivered", &m.Keyframes},
		{"vpxenc_bytes_total", "Total encoded bytes delivered", &m.Bytes},
		{"vpxenc_encode_errors_total", "Total failed encoder operations", &m.EncodeErrors},
		{"vpxenc_reconfigures_total", "Total successful option changes", &m.Reconfigures},
	}
	for _, c := range counters {
		v := c.v
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(v.Load()) },
		))
	}

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "vpxenc_frame_width", Help: "Configured frame width in pixels"},
		func() float64 { return float64(m.Width.Load()) },
	))
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "vpxenc_frame_height", Help: "Configured frame height in pixels"},
		func() float64 { return float64(m.Height.Load()) },
	))
	m.registry.MustRegister(m.encodeLatency)
}

// ObserveEncode records the latency of one Encode call.
func (m *Metrics) ObserveEncode(d time.Duration) {
	m.encodeLatency.Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
