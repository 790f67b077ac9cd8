package event

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Common event types
const (
	RoundOpened   Type = "round.opened"
	RoundLocked   Type = "round.locked"
	RoundDrawn    Type = "round.drawn"
	RoundPaid     Type = "round.paid"
	RewardIssued  Type = "reward.issued"
	PrizePaid     Type = "prize.paid"
	BuyConfirmed  Type = "payment.buy_confirmed"
	CashoutPlaced Type = "payment.cashout_placed"
)

// Typed event payloads for type safety

// RoundOpenedPayloadV1 is the typed payload for round opened events
type RoundOpenedPayloadV1 struct {
	RoundID    string `json:"round_id"`
	Kind       string `json:"kind"`
	CommitHash string `json:"commit_hash"`
	ClosesAt   int64  `json:"closes_at"`
}

// RoundLockedPayloadV1 is the typed payload for round locked events
type RoundLockedPayloadV1 struct {
	RoundID    string `json:"round_id"`
	PoolSUP    string `json:"pool_sup"`
	EntryCount int64  `json:"entry_count"`
	Timestamp  int64  `json:"timestamp"`
}

// WinnerInfoV1 is one selected winner inside a round drawn event
type WinnerInfoV1 struct {
	Tier    int    `json:"tier"`
	UserID  string `json:"user_id"`
	EntryID int64  `json:"entry_id"`
}

// RoundDrawnPayloadV1 is the typed payload for round drawn events
type RoundDrawnPayloadV1 struct {
	RoundID    string         `json:"round_id"`
	RevealSeed string         `json:"reveal_seed"`
	Winners    []WinnerInfoV1 `json:"winners"`
	Timestamp  int64          `json:"timestamp"`
}

// RewardIssuedPayloadV1 is the typed payload for reward issued events
type RewardIssuedPayloadV1 struct {
	UserID        string `json:"user_id"`
	TaskID        string `json:"task_id"`
	EventID       string `json:"event_id"`
	TransactionID string `json:"transaction_id"`
	AmountSUP     string `json:"amount_sup"`
	Timestamp     int64  `json:"timestamp"`
}

// PrizePaidPayloadV1 is the typed payload for prize paid events
type PrizePaidPayloadV1 struct {
	RoundID   string `json:"round_id"`
	UserID    string `json:"user_id"`
	Tier      int    `json:"tier"`
	AmountSUP string `json:"amount_sup"`
	Timestamp int64  `json:"timestamp"`
}

// PaymentPayloadV1 is the typed payload for gateway payment events
type PaymentPayloadV1 struct {
	UserID     string `json:"user_id"`
	AmountSUP  string `json:"amount_sup"`
	AmountNGN  string `json:"amount_ngn"`
	GatewayRef string `json:"gateway_ref,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// Type-safe event constructors

// NewRoundOpenedEvent creates a new round opened event with type-safe payload
func NewRoundOpenedEvent(roundID, kind, commitHash string, closesAt time.Time) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RoundOpened,
		Payload: RoundOpenedPayloadV1{
			RoundID:    roundID,
			Kind:       kind,
			CommitHash: commitHash,
			ClosesAt:   closesAt.Unix(),
		},
		Metadata: nil,
	}
}

// NewRoundLockedEvent creates a new round locked event
func NewRoundLockedEvent(roundID, poolSUP string, entryCount int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RoundLocked,
		Payload: RoundLockedPayloadV1{
			RoundID:    roundID,
			PoolSUP:    poolSUP,
			EntryCount: entryCount,
			Timestamp:  time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// NewRoundDrawnEvent creates a new round drawn event
func NewRoundDrawnEvent(roundID, revealSeed string, winners []WinnerInfoV1) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RoundDrawn,
		Payload: RoundDrawnPayloadV1{
			RoundID:    roundID,
			RevealSeed: revealSeed,
			Winners:    winners,
			Timestamp:  time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// RoundPaidPayloadV1 is the typed payload for round paid events
type RoundPaidPayloadV1 struct {
	RoundID   string `json:"round_id"`
	Timestamp int64  `json:"timestamp"`
}

// NewRoundPaidEvent creates a new round paid event
func NewRoundPaidEvent(roundID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RoundPaid,
		Payload: RoundPaidPayloadV1{
			RoundID:   roundID,
			Timestamp: time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// NewRewardIssuedEvent creates a new reward issued event
func NewRewardIssuedEvent(userID, taskID, eventID, transactionID, amountSUP string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RewardIssued,
		Payload: RewardIssuedPayloadV1{
			UserID:        userID,
			TaskID:        taskID,
			EventID:       eventID,
			TransactionID: transactionID,
			AmountSUP:     amountSUP,
			Timestamp:     time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// NewPrizePaidEvent creates a new prize paid event
func NewPrizePaidEvent(roundID, userID string, tier int, amountSUP string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PrizePaid,
		Payload: PrizePaidPayloadV1{
			RoundID:   roundID,
			UserID:    userID,
			Tier:      tier,
			AmountSUP: amountSUP,
			Timestamp: time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// NewBuyConfirmedEvent creates a new buy confirmed event
func NewBuyConfirmedEvent(userID, amountSUP, amountNGN, gatewayRef string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    BuyConfirmed,
		Payload: PaymentPayloadV1{
			UserID:     userID,
			AmountSUP:  amountSUP,
			AmountNGN:  amountNGN,
			GatewayRef: gatewayRef,
			Timestamp:  time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// NewCashoutPlacedEvent creates a new cashout placed event
func NewCashoutPlacedEvent(userID, amountSUP, amountNGN string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    CashoutPlaced,
		Payload: PaymentPayloadV1{
			UserID:    userID,
			AmountSUP: amountSUP,
			AmountNGN: amountNGN,
			Timestamp: time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	// Handlers run synchronously; a failing handler does not stop the rest.
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
