package services

import (
	"purse-circle/internal/core/purse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the purse counters exported on /metrics
type Metrics struct {
	pursesCreated   prometheus.Counter
	membersJoined   prometheus.Counter
	donations       prometheus.Counter
	donatedAmount   prometheus.Counter
	claims          *prometheus.CounterVec
	claimedAmount   prometheus.Counter
	roundsAdvanced  prometheus.Counter
	circlesComplete prometheus.Counter
	operationErrors *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
	sweepRounds     prometheus.Counter
}

// NewMetrics registers the purse metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		pursesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "purse_created_total",
			Help: "purses created",
		}),
		membersJoined: factory.NewCounter(prometheus.CounterOpts{
			Name: "purse_members_joined_total",
			Help: "members seated, creators included",
		}),
		donations: factory.NewCounter(prometheus.CounterOpts{
			Name: "purse_donations_total",
			Help: "donations deposited into custody",
		}),
		donatedAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "purse_donated_amount_total",
			Help: "token units deposited into custody",
		}),
		claims: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "purse_claims_total",
			Help: "payouts from custody by outcome",
		}, []string{"outcome"}),
		claimedAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "purse_claimed_amount_total",
			Help: "token units paid out of custody",
		}),
		roundsAdvanced: factory.NewCounter(prometheus.CounterOpts{
			Name: "purse_rounds_advanced_total",
			Help: "round transitions",
		}),
		circlesComplete: factory.NewCounter(prometheus.CounterOpts{
			Name: "purse_circles_completed_total",
			Help: "purses whose last round closed",
		}),
		operationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "purse_operation_errors_total",
			Help: "rejected or failed purse operations",
		}, []string{"operation"}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "purse_sweep_duration_seconds",
			Help:    "time spent advancing lapsed rounds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		sweepRounds: factory.NewCounter(prometheus.CounterOpts{
			Name: "purse_sweep_rounds_closed_total",
			Help: "lapsed rounds closed by the sweeper",
		}),
	}
}

// Observe updates counters from an engine event
func (m *Metrics) Observe(event purse.Event) {
	if m == nil {
		return
	}
	switch e := event.(type) {
	case purse.PurseCreated:
		m.pursesCreated.Inc()
	case purse.MemberJoined:
		m.membersJoined.Inc()
	case purse.DonationDeposited:
		m.donations.Inc()
		m.donatedAmount.Add(float64(e.Amount))
	case purse.DonationClaimed:
		m.claims.WithLabelValues(string(e.Outcome)).Inc()
		m.claimedAmount.Add(float64(e.Amount))
	case purse.RoundAdvanced:
		m.roundsAdvanced.Inc()
		if e.Completed {
			m.circlesComplete.Inc()
		}
	}
}

func (m *Metrics) operationFailed(op string) {
	if m == nil {
		return
	}
	m.operationErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) sweepFinished(seconds float64, closed int) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(seconds)
	m.sweepRounds.Add(float64(closed))
}
