package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/ledger"
	"github.com/civiclabs-ng/supcore/internal/payment"
)

// TransactionsResponse wraps a wallet's transaction history
type TransactionsResponse struct {
	UserID       string      `json:"user_id"`
	Transactions interface{} `json:"transactions"`
}

// HandleGetWallet returns a user's wallet with current balances
func HandleGetWallet(ledgerSvc ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUUIDQueryParam(r, w, "user_id", ErrMsgInvalidUserID)
		if !ok {
			return
		}

		wallet, err := ledgerSvc.BalanceOf(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetWalletFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, wallet)
	}
}

// HandleGetTransactions returns a user's most recent ledger transactions
func HandleGetTransactions(ledgerSvc ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUUIDQueryParam(r, w, "user_id", ErrMsgInvalidUserID)
		if !ok {
			return
		}

		limit := 0
		if limitStr := GetOptionalQueryParam(r, "limit", ""); limitStr != "" {
			n, err := strconv.Atoi(limitStr)
			if err != nil || n < 0 {
				http.Error(w, ErrMsgInvalidLimit, http.StatusBadRequest)
				return
			}
			limit = n
		}

		transactions, err := ledgerSvc.History(r.Context(), userID, limit)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetTransactionsFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, TransactionsResponse{
			UserID:       userID.String(),
			Transactions: transactions,
		})
	}
}

// CashoutRequest represents a request to convert SUP back to NGN
type CashoutRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	AmountSUP   string `json:"amount_sup" validate:"required"`
	Destination string `json:"destination" validate:"required,max=128"`
}

// HandleCashout places a CASHOUT debit; the NGN leg is held in escrow for
// the gateway to settle
func HandleCashout(paymentSvc payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CashoutRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Cashout"); err != nil {
			return
		}

		userID, _ := uuid.Parse(req.UserID)
		amount, err := decimal.NewFromString(req.AmountSUP)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidAmountError)
			return
		}

		result, err := paymentSvc.Cashout(r.Context(), userID, amount, req.Destination)
		if err != nil {
			respondServiceError(w, r, ErrMsgCashoutFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}
