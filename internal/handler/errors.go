package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"

	// Path parameter error messages
	ErrMsgInvalidRoundID = "Invalid round ID"
	ErrMsgInvalidUserID  = "Invalid user ID"
	ErrMsgInvalidTaskID  = "Invalid task ID"

	// Reward operation error messages
	ErrMsgIssueRewardFailed = "Failed to issue reward"

	// Wallet operation error messages
	ErrMsgGetWalletFailed       = "Failed to get wallet"
	ErrMsgGetTransactionsFailed = "Failed to get transactions"
	ErrMsgCashoutFailed         = "Failed to place cashout"

	// Round operation error messages
	ErrMsgCreateRoundFailed = "Failed to create round"
	ErrMsgGetRoundFailed    = "Failed to get round"
	ErrMsgAddEntryFailed    = "Failed to add entry"
	ErrMsgLockRoundFailed   = "Failed to lock round"
	ErrMsgDrawRoundFailed   = "Failed to draw round"
	ErrMsgMarkPaidFailed    = "Failed to mark round paid"
	ErrMsgDeleteRoundFailed = "Failed to delete round"

	// Payment operation error messages
	ErrMsgConfirmBuyFailed = "Failed to confirm purchase"

	// User operation error messages
	ErrMsgGetProfileFailed      = "Failed to get profile"
	ErrMsgSetVerificationFailed = "Failed to set verification tier"

	// Parameter validation error messages
	ErrMsgInvalidLimit = "Invalid limit parameter"
)

// Success messages for API responses
// These are user-facing success messages returned in JSON responses
const (
	MsgRoundLockedSuccess  = "Round locked"
	MsgRoundPaidSuccess    = "Round marked paid"
	MsgRoundDeletedSuccess = "Round deleted"
)
