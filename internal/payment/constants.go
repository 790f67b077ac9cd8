package payment

// Log Messages
const (
	LogMsgConfirmBuyCalled = "ConfirmBuy called"
	LogMsgCashoutCalled    = "Cashout called"
	LogMsgBuyConfirmed     = "Buy confirmed"
	LogMsgCashoutPlaced    = "Cashout placed"
	LogMsgEntryFailed      = "Buy credited but round entry failed"
)

// Error Context Messages
const (
	ErrContextFailedToCredit = "failed to credit buy"
	ErrContextFailedToDebit  = "failed to debit cashout"
)
