package worker

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// ============================================================================
// Log Messages - Round Worker
// ============================================================================

// Log messages for round worker operations
const (
	LogMsgFailedToCheckOpenRoundsOnStartup = "Failed to check open rounds on startup"
	LogMsgSchedulingRoundLock              = "Scheduling round lock"
	LogMsgLockingScheduledRound            = "Locking scheduled round"
	LogMsgFailedToLockRound                = "Failed to lock round"
	LogMsgSweepingOverdueRound             = "Sweeping overdue round"
)

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount           = 2
	TestQueueSize             = 10
	TestExpectedJobCount      = 2
	TestWorkerProcessWaitTime = 100 // milliseconds
)
