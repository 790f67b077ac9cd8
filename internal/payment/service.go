// Package payment consumes gateway callbacks: confirmed NGN purchases
// become BUY credits (optionally spent straight into a round), and cashout
// requests become CASHOUT debits with the NGN leg held in escrow.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/ledger"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/round"
)

// BuyResult reports a confirmed purchase and any round entry bought with it
type BuyResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AmountSUP     decimal.Decimal `json:"amount_sup"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	Entry         *domain.Entry   `json:"entry,omitempty"`
}

// CashoutResult reports a placed cashout
type CashoutResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AmountSUP     decimal.Decimal `json:"amount_sup"`
	AmountNGN     decimal.Decimal `json:"amount_ngn"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// Service defines the interface for payment operations
type Service interface {
	// ConfirmBuy credits SUP for a gateway-confirmed NGN payment. When
	// roundID is set the credited SUP immediately buys ticket entries.
	ConfirmBuy(ctx context.Context, userID uuid.UUID, amountNGN decimal.Decimal, gatewayRef string, roundID *uuid.UUID, tickets int64) (*BuyResult, error)

	// Cashout debits SUP and records the NGN equivalent in escrow for the
	// gateway to settle externally.
	Cashout(ctx context.Context, userID uuid.UUID, amountSUP decimal.Decimal, destination string) (*CashoutResult, error)
}

type service struct {
	ledgerSvc ledger.Service
	roundSvc  round.Service
	eventBus  event.Bus
	ngnPerSUP decimal.Decimal
}

// NewService creates a new payment service. ngnPerSUP is the fixed
// conversion rate between the gateway currency and SUP.
func NewService(ledgerSvc ledger.Service, roundSvc round.Service, eventBus event.Bus, ngnPerSUP decimal.Decimal) Service {
	return &service{
		ledgerSvc: ledgerSvc,
		roundSvc:  roundSvc,
		eventBus:  eventBus,
		ngnPerSUP: ngnPerSUP,
	}
}

func (s *service) ConfirmBuy(ctx context.Context, userID uuid.UUID, amountNGN decimal.Decimal, gatewayRef string, roundID *uuid.UUID, tickets int64) (*BuyResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgConfirmBuyCalled, "userID", userID, "amountNGN", amountNGN, "gatewayRef", gatewayRef)

	amountSUP := amountNGN.DivRound(s.ngnPerSUP, 2)

	applied, err := s.ledgerSvc.Credit(ctx, ledger.Mutation{
		UserID:    userID,
		Type:      domain.TxTypeBuy,
		AmountSUP: amountSUP,
		AmountNGN: amountNGN,
		Metadata: domain.TxMetadata{
			Buy: &domain.BuyMetadata{GatewayRef: gatewayRef},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToCredit, err)
	}

	log.Info(LogMsgBuyConfirmed, "userID", userID, "amountSUP", amountSUP, "transactionID", applied.TransactionID)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewBuyConfirmedEvent(
			userID.String(), amountSUP.String(), amountNGN.String(), gatewayRef,
		)); err != nil {
			log.Warn("Failed to publish buy confirmed event", "error", err)
		}
	}

	result := &BuyResult{
		TransactionID: applied.TransactionID,
		AmountSUP:     amountSUP,
		NewBalance:    applied.NewBalance,
	}

	if roundID != nil && tickets > 0 {
		entry, err := s.roundSvc.AddEntry(ctx, *roundID, userID, tickets, domain.EntrySourceBuy)
		if err != nil {
			// The purchase stands; the buyer keeps the SUP and can enter
			// another round
			log.Warn(LogMsgEntryFailed, "userID", userID, "roundID", *roundID, "error", err)
			return result, err
		}
		result.Entry = entry

		wallet, err := s.ledgerSvc.BalanceOf(ctx, userID)
		if err != nil {
			return nil, err
		}
		result.NewBalance = wallet.SUPBalance
	}

	return result, nil
}

func (s *service) Cashout(ctx context.Context, userID uuid.UUID, amountSUP decimal.Decimal, destination string) (*CashoutResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgCashoutCalled, "userID", userID, "amountSUP", amountSUP)

	amountNGN := amountSUP.Mul(s.ngnPerSUP).Round(2)

	applied, err := s.ledgerSvc.Debit(ctx, ledger.Mutation{
		UserID:    userID,
		Type:      domain.TxTypeCashout,
		AmountSUP: amountSUP,
		AmountNGN: amountNGN,
		Metadata: domain.TxMetadata{
			Cashout: &domain.CashoutMetadata{Destination: destination},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToDebit, err)
	}

	log.Info(LogMsgCashoutPlaced, "userID", userID, "amountNGN", amountNGN, "transactionID", applied.TransactionID)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewCashoutPlacedEvent(
			userID.String(), amountSUP.String(), amountNGN.String(),
		)); err != nil {
			log.Warn("Failed to publish cashout placed event", "error", err)
		}
	}

	return &CashoutResult{
		TransactionID: applied.TransactionID,
		AmountSUP:     amountSUP,
		AmountNGN:     amountNGN,
		NewBalance:    applied.NewBalance,
	}, nil
}
