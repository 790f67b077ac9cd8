package reward

// Log Messages
const (
	LogMsgIssueCalled        = "Issue reward called"
	LogMsgDuplicateResolved  = "Duplicate submission resolved to prior result"
	LogMsgRewardIssued       = "Reward issued"
	LogMsgSubmissionRejected = "Submission rejected by gate"
)

// Log Messages - task sync
const (
	LogMsgTaskInserted = "Inserted new engagement task"
)

// Error Format Strings - task loader
const (
	ErrMsgReadTaskConfigFailed  = "failed to read task config file: %w"
	ErrMsgParseTaskConfigFailed = "failed to parse task config: %w"
	ErrMsgUpsertTaskFailed      = "failed to upsert task %s: %w"
	ErrMsgTaskConfigNil         = "config is nil"
	ErrMsgNoTasksDefined        = "no tasks defined"
)

// Error Context Messages
const (
	ErrContextFailedToBeginTx     = "failed to begin reward transaction"
	ErrContextFailedToCommitTx    = "failed to commit reward transaction"
	ErrContextFailedToUpsertEvent = "failed to upsert engagement event"
	ErrContextFailedToCredit      = "failed to credit reward"
	ErrContextFailedToMarkEvent   = "failed to mark engagement event"
	ErrContextFailedToBumpCount   = "failed to increment completion count"
	ErrContextFailedToGetBalance  = "failed to get balance"
)
