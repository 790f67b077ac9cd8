package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
)

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
)

// Error Messages - Wallet Operations
const (
	ErrMsgFailedToGetWallet          = "failed to get wallet"
	ErrMsgFailedToCreateWallet       = "failed to create wallet"
	ErrMsgFailedToUpdateWallet       = "failed to update wallet balances"
	ErrMsgFailedToInsertTransaction  = "failed to insert transaction"
	ErrMsgFailedToQueryTransactions  = "failed to query transactions"
	ErrMsgFailedToDecodeAmount       = "failed to decode amount"
	ErrMsgFailedToMarshalTxMetadata  = "failed to marshal transaction metadata"
	ErrMsgFailedToDecodeTxMetadata   = "failed to decode transaction metadata"
)

// Error Messages - Engagement Operations
const (
	ErrMsgFailedToGetTask        = "failed to get task"
	ErrMsgFailedToGetEvent       = "failed to get event"
	ErrMsgFailedToInsertEvent    = "failed to insert event"
	ErrMsgFailedToUpdateEvent    = "failed to update event"
	ErrMsgFailedToCountActions   = "failed to count reward actions"
	ErrMsgFailedToUpsertTask     = "failed to upsert task"
	ErrMsgFailedToCheckEvent     = "failed to check civic event"
	ErrMsgFailedToBumpCompletion = "failed to increment completion count"
)

// Error Messages - Round Operations
const (
	ErrMsgFailedToCreateRound       = "failed to create round"
	ErrMsgFailedToGetRound          = "failed to get round"
	ErrMsgFailedToQueryRounds       = "failed to query rounds"
	ErrMsgFailedToQueryEntries      = "failed to query entries"
	ErrMsgFailedToCountEntries      = "failed to count entries"
	ErrMsgFailedToInsertEntry       = "failed to insert entry"
	ErrMsgFailedToAddToPool         = "failed to add to pool"
	ErrMsgFailedToUpdateRoundStatus = "failed to update round status"
	ErrMsgFailedToRecordReveal      = "failed to record reveal"
	ErrMsgFailedToDeleteRound       = "failed to delete round"
)

// Error Messages - Prize Operations
const (
	ErrMsgFailedToQueryPrizes = "failed to query prizes"
	ErrMsgFailedToInsertPrize = "failed to insert prize"
)

// Error Messages - User Operations
const (
	ErrMsgFailedToGetProfile    = "failed to get profile"
	ErrMsgFailedToUpsertProfile = "failed to upsert profile"
)

// Error Messages - Event Log Operations
const (
	ErrMsgFailedToLogEvent       = "failed to log event"
	ErrMsgFailedToQueryEvents    = "failed to query events"
	ErrMsgFailedToCleanupEvents  = "failed to cleanup old events"
	ErrMsgFailedToMarshalPayload = "failed to marshal event payload"
)
