package round

// Log Messages
const (
	LogMsgCreateRoundCalled = "CreateRound called"
	LogMsgAddEntryCalled    = "AddEntry called"
	LogMsgLockRoundCalled   = "LockRound called"
	LogMsgDrawRoundCalled   = "DrawRound called"
	LogMsgMarkPaidCalled    = "MarkPaid called"
	LogMsgDeleteRoundCalled = "DeleteRound called"
	LogMsgRoundCreated      = "Round created"
	LogMsgRoundLocked       = "Round locked"
	LogMsgRoundDrawn        = "Round drawn"
	LogMsgRoundPaid         = "Round marked paid"
	LogMsgRoundDeleted      = "Round deleted"
	LogMsgRoundResettling   = "Re-running settlement for drawn round"
	LogMsgDrawRejected      = "Draw rejected, round left locked for review"
)

// Error Context Messages
const (
	ErrContextFailedToBeginTx      = "failed to begin round transaction"
	ErrContextFailedToCommitTx     = "failed to commit round transaction"
	ErrContextFailedToCreateRound  = "failed to create round"
	ErrContextFailedToGetRound     = "failed to get round"
	ErrContextFailedToListEntries  = "failed to list entries"
	ErrContextFailedToInsertEntry  = "failed to insert entry"
	ErrContextFailedToAddToPool    = "failed to add to pool"
	ErrContextFailedToTransition   = "failed to transition round"
	ErrContextFailedToGenerateSeed = "failed to generate seed"
)

// Lock key prefix for per-round named locks
const lockKeyPrefix = "round:"
