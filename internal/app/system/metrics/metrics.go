// Package metrics provides observability for the matching engine and
// notification fanout.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is
// safe to use, so tests can pass nil without registering collectors.
type Metrics struct {
	// Matches produced per ranking run, labeled by whether a target point
	// was resolvable.
	MatchesBuilt *prometheus.CounterVec

	// Duration of a full match build (search, rank, persist).
	MatchBuildLatency prometheus.Histogram

	// Match responses by outcome: accepted, declined, conflict, not_found.
	MatchResponses *prometheus.CounterVec

	// Notifications by channel result: persisted, pushed, dropped.
	Notifications *prometheus.CounterVec

	// Escalations triggered.
	Escalations prometheus.Counter
}

// New registers and returns the service metrics.
func New() *Metrics {
	return &Metrics{
		MatchesBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodstream_matches_built_total",
			Help: "Match entries produced by ranking runs",
		}, []string{"located"}), // located: "yes" when a target point resolved, else "no"

		MatchBuildLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodstream_match_build_duration_seconds",
			Help:    "Duration of candidate search, ranking, and persistence",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		MatchResponses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodstream_match_responses_total",
			Help: "Donor responses to matches by outcome",
		}, []string{"outcome"}), // outcome: accepted | declined | conflict | not_found

		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodstream_notifications_total",
			Help: "Notification events by result",
		}, []string{"result"}), // result: persisted | pushed | dropped | failed

		Escalations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodstream_escalations_total",
			Help: "Emergency escalations triggered",
		}),
	}
}

// ObserveMatchBuild records a completed ranking run.
func (m *Metrics) ObserveMatchBuild(located bool, matches int, d time.Duration) {
	if m == nil {
		return
	}
	label := "no"
	if located {
		label = "yes"
	}
	m.MatchesBuilt.WithLabelValues(label).Add(float64(matches))
	m.MatchBuildLatency.Observe(d.Seconds())
}

// IncMatchResponse records a donor response outcome.
func (m *Metrics) IncMatchResponse(outcome string) {
	if m != nil {
		m.MatchResponses.WithLabelValues(outcome).Inc()
	}
}

// IncNotification records a notification result.
func (m *Metrics) IncNotification(result string) {
	if m != nil {
		m.Notifications.WithLabelValues(result).Inc()
	}
}

// IncEscalation records an emergency escalation.
func (m *Metrics) IncEscalation() {
	if m != nil {
		m.Escalations.Inc()
	}
}
