// Package metrics registers the Prometheus collectors the engine increments
// as it issues and verifies challenges.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	ChallengesIssued *prometheus.CounterVec
	ChallengesSolved *prometheus.CounterVec
	TimingZones      *prometheus.CounterVec
	PomiConfidence   *prometheus.HistogramVec
	SolveDuration    *prometheus.HistogramVec
}

// New creates a Metrics instance registered against the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against registerer,
// which may be nil to skip registration (useful in tests that construct
// multiple instances in the same process).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChallengesIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentauth_challenges_issued_total",
				Help: "Total number of challenges issued, by driver and difficulty",
			},
			[]string{"driver", "difficulty"},
		),
		ChallengesSolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentauth_challenges_solved_total",
				Help: "Total number of solve attempts, by driver and outcome",
			},
			[]string{"driver", "outcome"},
		),
		TimingZones: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentauth_timing_zone_total",
				Help: "Total number of solves classified into each timing zone",
			},
			[]string{"driver", "zone"},
		),
		PomiConfidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentauth_pomi_confidence",
				Help:    "PoMI classifier confidence for the winning model family",
				Buckets: []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
			},
			[]string{"model_family"},
		),
		SolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentauth_solve_duration_seconds",
				Help:    "Wall-clock time between challenge init and solve",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"driver"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.ChallengesIssued,
			m.ChallengesSolved,
			m.TimingZones,
			m.PomiConfidence,
			m.SolveDuration,
		)
	}

	return m
}

// RecordIssued records a challenge being issued by a driver at a difficulty.
func (m *Metrics) RecordIssued(driver, difficulty string) {
	m.ChallengesIssued.WithLabelValues(driver, difficulty).Inc()
}

// RecordSolved records a solve attempt's outcome for a driver. outcome is
// either "success" or a FailureReason string.
func (m *Metrics) RecordSolved(driver, outcome string) {
	m.ChallengesSolved.WithLabelValues(driver, outcome).Inc()
}

// RecordTimingZone records the timing zone a solve was classified into.
func (m *Metrics) RecordTimingZone(driver, zone string) {
	m.TimingZones.WithLabelValues(driver, zone).Inc()
}

// RecordPomiConfidence records the PoMI classifier's confidence for the
// family it settled on.
func (m *Metrics) RecordPomiConfidence(modelFamily string, confidence float64) {
	m.PomiConfidence.WithLabelValues(modelFamily).Observe(confidence)
}

// RecordSolveDuration records the elapsed time between init and solve.
func (m *Metrics) RecordSolveDuration(driver string, seconds float64) {
	m.SolveDuration.WithLabelValues(driver).Observe(seconds)
}

var (
	global   *Metrics
	globalMu sync.Mutex
)

// Init initializes the global metrics instance, if not already initialized.
func Init() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New()
	}
	return global
}

// Global returns the global metrics instance, initializing it if necessary.
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New()
	}
	return global
}
