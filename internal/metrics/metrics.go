// Package metrics exposes the server's Prometheus instrumentation on a
// separate listener so game traffic and scrapes never share a port.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/config"
)

// Metrics is the instrument set. A nil *Metrics is a valid no-op
// receiver so callers never guard their observations.
type Metrics struct {
	Sessions   prometheus.Gauge
	Characters prometheus.Gauge
	Commands   *prometheus.CounterVec
	Attacks    prometheus.Counter
	Deaths     prometheus.Counter
	TickTime   prometheus.Histogram

	srv *http.Server
	log *zap.Logger
}

func New(log *zap.Logger) *Metrics {
	return &Metrics{
		Sessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "talonmoor", Name: "sessions",
			Help: "Open client sessions.",
		}),
		Characters: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "talonmoor", Name: "characters_online",
			Help: "Characters attached to the world.",
		}),
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talonmoor", Name: "commands_total",
			Help: "Dispatched commands by verb.",
		}, []string{"verb"}),
		Attacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "talonmoor", Name: "attacks_total",
			Help: "Resolved attack acts.",
		}),
		Deaths: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "talonmoor", Name: "character_deaths_total",
			Help: "Characters transitioned to DYING.",
		}),
		TickTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "talonmoor", Name: "tick_seconds",
			Help:    "Full world tick duration.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		log: log.Named("metrics"),
	}
}

// SetSessions records the open session count.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}

// SetCharactersOnline records the attached character count.
func (m *Metrics) SetCharactersOnline(n int) {
	if m == nil {
		return
	}
	m.Characters.Set(float64(n))
}

// AttackResolved counts one resolved attack act.
func (m *Metrics) AttackResolved() {
	if m == nil {
		return
	}
	m.Attacks.Inc()
}

// CharacterDeath counts one DYING transition.
func (m *Metrics) CharacterDeath() {
	if m == nil {
		return
	}
	m.Deaths.Inc()
}

// Command counts one dispatched verb.
func (m *Metrics) Command(verb string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(verb).Inc()
}

// ObserveTick records one tick's wall time.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TickTime.Observe(d.Seconds())
}

// Serve starts the scrape endpoint. Returns immediately; the listener
// runs until Stop.
func (m *Metrics) Serve(cfg config.MetricsConfig) {
	if m == nil || !cfg.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	m.srv = &http.Server{Addr: cfg.BindAddress, Handler: mux}
	go func() {
		m.log.Info("metrics listening", zap.String("addr", cfg.BindAddress))
		if err := m.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.log.Error("metrics server", zap.Error(err))
		}
	}()
}

// Stop shuts the scrape endpoint down.
func (m *Metrics) Stop(ctx context.Context) {
	if m == nil || m.srv == nil {
		return
	}
	m.srv.Shutdown(ctx)
}
