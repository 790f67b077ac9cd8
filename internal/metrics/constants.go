package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameLedgerTransactions  = "ledger_transactions_total"
	MetricNameRewardsIssued       = "rewards_issued_total"
	MetricNameRewardsDenied       = "rewards_denied_total"
	MetricNameRoundTransitions    = "round_transitions_total"
	MetricNameEntriesAdded        = "round_entries_total"
	MetricNameDrawFailures        = "draw_failures_total"
	MetricNamePrizesSettled       = "prizes_settled_total"
	MetricNameSUPIssued           = "sup_issued_total"
	MetricNameSUPDebited          = "sup_debited_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextLedgerTransactions = "Total number of ledger transactions by type"
	HelpTextRewardsIssued      = "Total number of rewards issued"
	HelpTextRewardsDenied      = "Total number of reward denials by reason"
	HelpTextRoundTransitions   = "Total number of round lifecycle transitions"
	HelpTextEntriesAdded       = "Total number of round entries added"
	HelpTextDrawFailures       = "Total number of failed draw attempts"
	HelpTextPrizesSettled      = "Total number of prize tiers settled"
	HelpTextSUPIssued          = "Total SUP credited across all wallets"
	HelpTextSUPDebited         = "Total SUP debited across all wallets"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelType   = "type"
	LabelReason = "reason"
	LabelKind   = "kind"
	LabelSource = "source"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds. These buckets range from 1ms to 10s to capture various latency
// patterns: fast (1-10ms), normal (10-100ms), slow (100ms-1s), very slow (1-10s)
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgEventPayloadUnexpected = "Event payload has unexpected shape"
)
