package domain

import "errors"

// Error message string constants - single source of truth for error messages.
// Use these in assert.Contains() checks when testing error messages.
const (
	// Ledger errors
	ErrMsgInsufficientFunds = "insufficient funds"
	ErrMsgWalletNotFound    = "wallet not found"
	ErrMsgInvalidAmount     = "amount must be a positive two-decimal value"
	ErrMsgInvalidMetadata   = "invalid transaction metadata"

	// Reward errors
	ErrMsgTaskNotFound        = "task not found"
	ErrMsgDuplicateSubmission = "submission already processed"

	// Round errors
	ErrMsgRoundNotFound    = "round not found"
	ErrMsgRoundNotOpen     = "round is not open"
	ErrMsgRoundNotLocked   = "round is not locked"
	ErrMsgRoundNotDrawn    = "round is not drawn"
	ErrMsgRoundNotSettled  = "round settlement is incomplete"
	ErrMsgRoundNotEmpty    = "round has entries"
	ErrMsgInvalidPoolSplit = "pool split percentages must sum to 100"
	ErrMsgInvalidTickets   = "ticket count must be positive"

	// Draw errors
	ErrMsgInvalidReveal = "reveal seed does not match commitment"
	ErrMsgNoEntries     = "no entries with tickets to draw from"

	// User errors
	ErrMsgUserNotFound = "user not found"

	// Database/System errors
	ErrMsgTxClosed = "tx is closed"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors.
// Wrap these with fmt.Errorf("%w: %s", domain.ErrXxx, details) for context.
var (
	// Ledger errors
	ErrInsufficientFunds = errors.New(ErrMsgInsufficientFunds)
	ErrWalletNotFound    = errors.New(ErrMsgWalletNotFound)
	ErrInvalidAmount     = errors.New(ErrMsgInvalidAmount)
	ErrInvalidMetadata   = errors.New(ErrMsgInvalidMetadata)

	// Reward errors
	ErrTaskNotFound        = errors.New(ErrMsgTaskNotFound)
	ErrDuplicateSubmission = errors.New(ErrMsgDuplicateSubmission)

	// Round errors
	ErrRoundNotFound    = errors.New(ErrMsgRoundNotFound)
	ErrRoundNotOpen     = errors.New(ErrMsgRoundNotOpen)
	ErrRoundNotLocked   = errors.New(ErrMsgRoundNotLocked)
	ErrRoundNotDrawn    = errors.New(ErrMsgRoundNotDrawn)
	ErrRoundNotSettled  = errors.New(ErrMsgRoundNotSettled)
	ErrRoundNotEmpty    = errors.New(ErrMsgRoundNotEmpty)
	ErrInvalidPoolSplit = errors.New(ErrMsgInvalidPoolSplit)
	ErrInvalidTickets   = errors.New(ErrMsgInvalidTickets)

	// Draw errors
	ErrInvalidReveal = errors.New(ErrMsgInvalidReveal)
	ErrNoEntries     = errors.New(ErrMsgNoEntries)

	// User errors
	ErrUserNotFound = errors.New(ErrMsgUserNotFound)

	// Input errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// DenialReason is the structured reason attached to an eligibility denial
// so callers can render precise guidance.
type DenialReason string

const (
	DenialKYCRequired      DenialReason = "KYC_REQUIRED"
	DenialKYCLimitExceeded DenialReason = "KYC_LIMIT_EXCEEDED"
	DenialTaskClosed       DenialReason = "TASK_CLOSED"
	DenialAlreadyCompleted DenialReason = "ALREADY_COMPLETED"
)

// EligibilityError is a recoverable denial from the eligibility gate.
// It carries no partial state change; the caller surfaces Reason as-is.
type EligibilityError struct {
	Reason DenialReason
}

func (e *EligibilityError) Error() string {
	return "eligibility denied: " + string(e.Reason)
}

// AsEligibilityError unwraps err to an EligibilityError if present
func AsEligibilityError(err error) (*EligibilityError, bool) {
	var ee *EligibilityError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
