package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TxMetadata is the closed tagged variant carried by a transaction.
// Exactly one payload field may be set, and it must match the transaction
// type. Unknown shapes are rejected at decode time rather than stored as
// open-ended documents.
type TxMetadata struct {
	Earned   *EarnedMetadata   `json:"earned,omitempty"`
	Prize    *PrizeMetadata    `json:"prize,omitempty"`
	Entry    *EntryMetadata    `json:"entry,omitempty"`
	Buy      *BuyMetadata      `json:"buy,omitempty"`
	Cashout  *CashoutMetadata  `json:"cashout,omitempty"`
	Transfer *TransferMetadata `json:"transfer,omitempty"`
	Donation *DonationMetadata `json:"donation,omitempty"`
}

// EarnedMetadata records which engagement task produced an EARNED credit
type EarnedMetadata struct {
	TaskID  uuid.UUID `json:"task_id"`
	EventID uuid.UUID `json:"event_id"`
}

// PrizeMetadata records which round and tier produced a PRIZE credit
type PrizeMetadata struct {
	RoundID uuid.UUID `json:"round_id"`
	Tier    int       `json:"tier"`
}

// EntryMetadata records the round and ticket count behind an ENTRY debit
type EntryMetadata struct {
	RoundID uuid.UUID `json:"round_id"`
	Tickets int64     `json:"tickets"`
}

// BuyMetadata records the payment gateway reference behind a BUY credit
type BuyMetadata struct {
	GatewayRef string `json:"gateway_ref"`
}

// CashoutMetadata records the external destination of a CASHOUT debit
type CashoutMetadata struct {
	Destination string `json:"destination"`
}

// TransferMetadata records the counterparty of a TRANSFER
type TransferMetadata struct {
	CounterpartyID uuid.UUID `json:"counterparty_id"`
}

// DonationMetadata records the project a DONATION debit supports
type DonationMetadata struct {
	ProjectID uuid.UUID `json:"project_id"`
}

// Validate checks that the metadata payload matches the transaction type.
// Types with no defined payload (VOTE, FEE, ENGAGE) must carry none.
func (m TxMetadata) Validate(txType TransactionType) error {
	set := 0
	var want string
	ok := true
	switch txType {
	case TxTypeEarned:
		ok, want = m.Earned != nil, "earned"
	case TxTypePrize:
		ok, want = m.Prize != nil, "prize"
	case TxTypeEntry:
		ok, want = m.Entry != nil, "entry"
	case TxTypeBuy:
		ok, want = m.Buy != nil, "buy"
	case TxTypeCashout:
		ok, want = m.Cashout != nil, "cashout"
	case TxTypeTransfer:
		ok, want = m.Transfer != nil, "transfer"
	case TxTypeDonation:
		ok, want = m.Donation != nil, "donation"
	}
	if !ok {
		return fmt.Errorf("%w: transaction type %s requires %s metadata", ErrInvalidMetadata, txType, want)
	}
	for _, present := range []bool{
		m.Earned != nil, m.Prize != nil, m.Entry != nil, m.Buy != nil,
		m.Cashout != nil, m.Transfer != nil, m.Donation != nil,
	} {
		if present {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("%w: multiple metadata payloads set", ErrInvalidMetadata)
	}
	return nil
}

// DecodeTxMetadata parses raw JSONB metadata, rejecting unknown fields
// and payloads that do not match the transaction type.
func DecodeTxMetadata(txType TransactionType, raw []byte) (TxMetadata, error) {
	var m TxMetadata
	if len(raw) == 0 {
		return m, m.Validate(txType)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return TxMetadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if err := m.Validate(txType); err != nil {
		return TxMetadata{}, err
	}
	return m, nil
}
