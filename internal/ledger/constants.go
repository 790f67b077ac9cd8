package ledger

// Log Messages
const (
	LogMsgCreditCalled    = "Credit called"
	LogMsgDebitCalled     = "Debit called"
	LogMsgBalanceOfCalled = "BalanceOf called"
	LogMsgHistoryCalled   = "History called"
	LogMsgWalletCreated   = "Wallet created"
)

// Error Context Messages
const (
	ErrContextFailedToBeginTx      = "failed to begin ledger transaction"
	ErrContextFailedToCommitTx     = "failed to commit ledger transaction"
	ErrContextFailedToGetWallet    = "failed to get wallet"
	ErrContextFailedToCreateWallet = "failed to create wallet"
	ErrContextFailedToApply        = "failed to apply ledger mutation"
)

// DefaultHistoryLimit caps History queries that pass a non-positive limit
const DefaultHistoryLimit = 50
