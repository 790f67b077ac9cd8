package payout

// DefaultTierWeights is the default prize weighting across tiers:
// half to first, the rest tapering down
var DefaultTierWeights = []int{50, 30, 20}

// Log Messages
const (
	LogMsgSettleCalled = "Settle called"
	LogMsgTierSettled  = "Prize tier settled"
	LogMsgTierSkipped  = "Prize tier already settled, skipping"
)

// Error Context Messages
const (
	ErrContextFailedToBeginTx     = "failed to begin prize transaction"
	ErrContextFailedToCommitTx    = "failed to commit prize transaction"
	ErrContextFailedToInsertPrize = "failed to insert prize"
	ErrContextFailedToCredit      = "failed to credit prize"
	ErrContextFailedToListPrizes  = "failed to list prizes"
)
