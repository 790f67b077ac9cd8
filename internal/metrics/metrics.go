package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	LedgerTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLedgerTransactions,
			Help: HelpTextLedgerTransactions,
		},
		[]string{LabelType},
	)

	RewardsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRewardsIssued,
			Help: HelpTextRewardsIssued,
		},
	)

	RewardsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRewardsDenied,
			Help: HelpTextRewardsDenied,
		},
		[]string{LabelReason},
	)

	RoundTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRoundTransitions,
			Help: HelpTextRoundTransitions,
		},
		[]string{LabelKind, LabelStatus},
	)

	EntriesAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEntriesAdded,
			Help: HelpTextEntriesAdded,
		},
		[]string{LabelSource},
	)

	DrawFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameDrawFailures,
			Help: HelpTextDrawFailures,
		},
	)

	PrizesSettled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePrizesSettled,
			Help: HelpTextPrizesSettled,
		},
	)

	SUPIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSUPIssued,
			Help: HelpTextSUPIssued,
		},
	)

	SUPDebited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSUPDebited,
			Help: HelpTextSUPDebited,
		},
	)
)
