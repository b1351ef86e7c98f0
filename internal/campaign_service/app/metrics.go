package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "campaign_scheduler"

var (
	ticksCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticks_total",
			Help:      "Total number of scheduling ticks, by result.",
		},
		[]string{"result"}, // ok, error
	)
	tickDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a scheduling tick.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	claimedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "subscribers_claimed_total",
			Help:      "Subscribers moved from pending to in_progress.",
		},
		[]string{"source"}, // scheduler, api
	)
	claimsRejectedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "claims_rejected_total",
			Help:      "Worker claim requests refused because the campaign was not running.",
		},
		[]string{"reason"},
	)
	outcomesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "subscriber_outcomes_total",
			Help:      "Dispatch outcomes applied to subscribers, by resulting status.",
		},
		[]string{"status"},
	)
	requeuedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stale_claims_requeued_total",
			Help:      "In-progress subscribers returned to pending by the reaper.",
		},
	)
	enrollmentsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "enrollments_total",
			Help:      "Subscriber enrollment attempts, by result.",
		},
		[]string{"result"}, // enrolled, duplicate, unauthorized, error
	)
	cancelledCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "subscribers_cancelled_total",
			Help:      "Pending subscribers cancelled after contact deactivation.",
		},
	)
	expiredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "campaigns_expired_total",
			Help:      "Campaigns moved to end after their expiration date.",
		},
	)
	dispatchErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispatch_publish_errors_total",
			Help:      "Claimed subscribers whose dispatch job could not be published.",
		},
	)
)
