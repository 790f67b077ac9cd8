package eligibility

import "time"

// Task cache defaults
const (
	DefaultTaskCacheSize = 256
	DefaultTaskCacheTTL  = 30 * time.Second
)

// Log Messages
const (
	LogMsgCheckCalled   = "Eligibility check called"
	LogMsgCheckDenied   = "Eligibility denied"
	LogMsgTaskCacheMiss = "Task cache miss"
)

// Error Context Messages
const (
	ErrContextFailedToGetTask      = "failed to get task"
	ErrContextFailedToGetEvent     = "failed to get event"
	ErrContextFailedToGetTier      = "failed to get verification tier"
	ErrContextFailedToCheckLinked  = "failed to check linked event"
	ErrContextFailedToCountActions = "failed to count reward actions"
)
