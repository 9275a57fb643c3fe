package observability

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hatter"

// Metrics exposes the engine's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	runDuration     *prometheus.HistogramVec
	commandFailures *prometheus.CounterVec
	unknownCommands prometheus.Counter
	challengeRounds prometheus.Histogram
	scrapeDuration  *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns collectors registered once with the default registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors with reg, reusing collectors that
// are already registered. Other registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of test runs by outcome.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"outcome"}),
		commandFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "command_failures_total",
			Help:      "Commands that aborted a run, by action.",
		}, []string{"action"}),
		unknownCommands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "unknown_commands_total",
			Help:      "Commands skipped because their action is not recognised.",
		}),
		challengeRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stability",
			Name:      "challenge_rounds",
			Help:      "Extra poll rounds spent waiting out interstitials after a navigation.",
			Buckets:   []float64{0, 1, 2, 4, 8, 15},
		}),
		scrapeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "scrape_duration_seconds",
			Help:      "Duration of form scrapes by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "browser",
			Name:      "sessions_active",
			Help:      "Browser sessions currently open.",
		}),
	}

	m.runDuration = register(reg, m.runDuration)
	m.commandFailures = register(reg, m.commandFailures)
	m.unknownCommands = register(reg, m.unknownCommands)
	m.challengeRounds = register(reg, m.challengeRounds)
	m.scrapeDuration = register(reg, m.scrapeDuration)
	m.sessionsActive = register(reg, m.sessionsActive)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(outcome(success)).Observe(d.Seconds())
}

// IncCommandFailure counts a command that aborted its run.
func (m *Metrics) IncCommandFailure(action string) {
	if m == nil {
		return
	}
	m.commandFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) IncUnknownCommand() {
	if m == nil {
		return
	}
	m.unknownCommands.Inc()
}

// ObserveChallengeRounds records how long a stability gate waited.
func (m *Metrics) ObserveChallengeRounds(rounds int) {
	if m == nil {
		return
	}
	m.challengeRounds.Observe(float64(rounds))
}

func (m *Metrics) ObserveScrape(success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.scrapeDuration.WithLabelValues(outcome(success)).Observe(d.Seconds())
}

// SessionOpened and SessionClosed track open browser sessions.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
