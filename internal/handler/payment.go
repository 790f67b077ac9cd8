package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/payment"
)

// ConfirmBuyRequest is the gateway webhook payload for a confirmed NGN
// purchase. RoundID and Tickets are optional; when present the purchased
// SUP immediately buys entries into that round.
type ConfirmBuyRequest struct {
	UserID     string `json:"user_id" validate:"required,uuid"`
	AmountNGN  string `json:"amount_ngn" validate:"required"`
	GatewayRef string `json:"gateway_ref" validate:"required,max=128"`
	RoundID    string `json:"round_id,omitempty" validate:"omitempty,uuid"`
	Tickets    int64  `json:"tickets,omitempty" validate:"omitempty,gt=0"`
}

// HandleConfirmBuy consumes the payment gateway's confirmation webhook
func HandleConfirmBuy(paymentSvc payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmBuyRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Confirm buy"); err != nil {
			return
		}

		userID, _ := uuid.Parse(req.UserID)
		amountNGN, err := decimal.NewFromString(req.AmountNGN)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidAmountError)
			return
		}

		var roundID *uuid.UUID
		if req.RoundID != "" {
			id, _ := uuid.Parse(req.RoundID)
			roundID = &id
		}

		log := logger.FromContext(r.Context())
		LogRequestFields(log, "userID", userID, "amountNGN", amountNGN, "gatewayRef", req.GatewayRef)

		result, err := paymentSvc.ConfirmBuy(r.Context(), userID, amountNGN, req.GatewayRef, roundID, req.Tickets)
		if err != nil {
			respondServiceError(w, r, ErrMsgConfirmBuyFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}
