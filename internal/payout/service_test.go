package payout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/ledger"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

type prizeKey struct {
	roundID uuid.UUID
	tier    int
}

// memPrizeStore backs the prize repository and the ledger repository so a
// tier's Prize row and PRIZE credit commit through one staged transaction
type memPrizeStore struct {
	mu      sync.Mutex
	prizes  map[prizeKey]domain.Prize
	wallets map[uuid.UUID]*domain.Wallet
	txs     []domain.Transaction
}

func newMemPrizeStore() *memPrizeStore {
	return &memPrizeStore{
		prizes:  make(map[prizeKey]domain.Prize),
		wallets: make(map[uuid.UUID]*domain.Wallet),
	}
}

func (m *memPrizeStore) ListPrizes(_ context.Context, roundID uuid.UUID) ([]domain.Prize, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Prize
	for key, p := range m.prizes {
		if key.roundID == roundID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPrizeStore) BeginPrizeTx(_ context.Context) (repository.PrizeTx, error) {
	return &memPrizeTx{store: m, stagedWallets: make(map[uuid.UUID]*domain.Wallet)}, nil
}

func (m *memPrizeStore) GetWallet(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[userID]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (m *memPrizeStore) ListTransactions(_ context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for i := len(m.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.txs[i].UserID == userID {
			out = append(out, m.txs[i])
		}
	}
	return out, nil
}

func (m *memPrizeStore) BeginLedgerTx(_ context.Context) (repository.LedgerTx, error) {
	return &memPrizeTx{store: m, stagedWallets: make(map[uuid.UUID]*domain.Wallet)}, nil
}

type memPrizeTx struct {
	store         *memPrizeStore
	stagedWallets map[uuid.UUID]*domain.Wallet
	stagedTxs     []domain.Transaction
	stagedPrizes  []domain.Prize
}

func (t *memPrizeTx) Commit(_ context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, w := range t.stagedWallets {
		t.store.wallets[id] = w
	}
	t.store.txs = append(t.store.txs, t.stagedTxs...)
	for _, p := range t.stagedPrizes {
		t.store.prizes[prizeKey{roundID: p.RoundID, tier: p.Tier}] = p
	}
	return nil
}

func (t *memPrizeTx) Rollback(_ context.Context) error { return nil }

func (t *memPrizeTx) GetWalletForUpdate(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	if w, ok := t.stagedWallets[userID]; ok {
		copied := *w
		return &copied, nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	w, ok := t.store.wallets[userID]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (t *memPrizeTx) CreateWallet(_ context.Context, wallet *domain.Wallet) error {
	copied := *wallet
	t.stagedWallets[wallet.UserID] = &copied
	return nil
}

func (t *memPrizeTx) UpdateWalletBalances(_ context.Context, userID uuid.UUID, supBalance, ngnEscrow decimal.Decimal) error {
	w, ok := t.stagedWallets[userID]
	if !ok {
		t.store.mu.Lock()
		committed := t.store.wallets[userID]
		copied := *committed
		w = &copied
		t.store.mu.Unlock()
		t.stagedWallets[userID] = w
	}
	w.SUPBalance = supBalance
	w.NGNEscrow = ngnEscrow
	return nil
}

func (t *memPrizeTx) InsertTransaction(_ context.Context, tx *domain.Transaction) error {
	t.stagedTxs = append(t.stagedTxs, *tx)
	return nil
}

func (t *memPrizeTx) InsertPrizeIfAbsent(_ context.Context, prize *domain.Prize) (bool, error) {
	key := prizeKey{roundID: prize.RoundID, tier: prize.Tier}
	t.store.mu.Lock()
	_, exists := t.store.prizes[key]
	t.store.mu.Unlock()
	if exists {
		return false, nil
	}
	t.stagedPrizes = append(t.stagedPrizes, *prize)
	return true, nil
}

func supAmt(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func drawnRound(pool string) *domain.Round {
	return &domain.Round{
		ID:      uuid.New(),
		Kind:    domain.RoundKindDaily,
		Status:  domain.RoundStatusDrawn,
		PoolSUP: supAmt(pool),
		Split:   domain.PoolSplit{ProjectsPct: 50, PrizesPct: 30, PlatformPct: 20},
	}
}

func threeWinners() []domain.Winner {
	return []domain.Winner{
		{Tier: 1, EntryID: 1, UserID: uuid.New()},
		{Tier: 2, EntryID: 2, UserID: uuid.New()},
		{Tier: 3, EntryID: 3, UserID: uuid.New()},
	}
}

func TestTierAmounts_SumToPrizePoolExactly(t *testing.T) {
	tests := []struct {
		name      string
		pool      string
		prizesPct int
		weights   []int
		want      []string
	}{
		{
			name: "even split", pool: "1000.00", prizesPct: 30,
			weights: []int{50, 30, 20},
			want:    []string{"150.00", "90.00", "60.00"},
		},
		{
			name: "rounding remainder lands on the last tier", pool: "333.33", prizesPct: 30,
			weights: []int{50, 30, 20},
			want:    []string{"49.99", "29.99", "20.01"},
		},
		{
			name: "single tier takes everything", pool: "100.00", prizesPct: 30,
			weights: []int{100},
			want:    []string{"30.00"},
		},
		{
			name: "zero pool", pool: "0", prizesPct: 30,
			weights: []int{50, 30, 20},
			want:    []string{"0", "0", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := TierAmounts(supAmt(tt.pool), tt.prizesPct, tt.weights)
			require.Len(t, amounts, len(tt.want))

			prizePool := supAmt(tt.pool).Mul(decimal.NewFromInt(int64(tt.prizesPct))).
				Div(decimal.NewFromInt(100)).RoundDown(2)
			total := decimal.Zero
			for i, amount := range amounts {
				assert.True(t, amount.Equal(supAmt(tt.want[i])),
					"tier %d: want %s, got %s", i+1, tt.want[i], amount)
				total = total.Add(amount)
			}
			assert.True(t, total.Equal(prizePool), "amounts must sum to the prize share exactly")
		})
	}
}

func TestSettle_CreditsEachTier(t *testing.T) {
	store := newMemPrizeStore()
	svc := NewService(store, ledger.NewService(store), nil, nil)
	ctx := context.Background()

	round := drawnRound("1000.00")
	winners := threeWinners()

	prizes, err := svc.Settle(ctx, round, winners)
	require.NoError(t, err)
	assert.Len(t, prizes, 3)

	expected := []string{"150.00", "90.00", "60.00"}
	for i, w := range winners {
		wallet, err := store.GetWallet(ctx, w.UserID)
		require.NoError(t, err)
		require.NotNil(t, wallet, "winner of tier %d has no wallet", w.Tier)
		assert.True(t, wallet.SUPBalance.Equal(supAmt(expected[i])),
			"tier %d: want %s, got %s", w.Tier, expected[i], wallet.SUPBalance)

		history, err := store.ListTransactions(ctx, w.UserID, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.TxTypePrize, history[0].Type)
	}
}

func TestSettle_IdempotentPerTier(t *testing.T) {
	store := newMemPrizeStore()
	svc := NewService(store, ledger.NewService(store), nil, nil)
	ctx := context.Background()

	round := drawnRound("1000.00")
	winners := threeWinners()

	_, err := svc.Settle(ctx, round, winners)
	require.NoError(t, err)

	// A re-run after a partial crash must not pay anyone twice
	prizes, err := svc.Settle(ctx, round, winners)
	require.NoError(t, err)
	assert.Len(t, prizes, 3)

	wallet, err := store.GetWallet(ctx, winners[0].UserID)
	require.NoError(t, err)
	assert.True(t, wallet.SUPBalance.Equal(supAmt("150.00")), "tier one paid exactly once")

	history, err := store.ListTransactions(ctx, winners[0].UserID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSettle_PartialWinnerList(t *testing.T) {
	store := newMemPrizeStore()
	svc := NewService(store, ledger.NewService(store), nil, nil)
	ctx := context.Background()

	// Fewer distinct entrants than tiers leaves the lower tiers unfilled
	round := drawnRound("1000.00")
	winners := threeWinners()[:2]

	prizes, err := svc.Settle(ctx, round, winners)
	require.NoError(t, err)
	assert.Len(t, prizes, 2)
}

func TestSettle_RequiresDrawnRound(t *testing.T) {
	store := newMemPrizeStore()
	svc := NewService(store, ledger.NewService(store), nil, nil)

	round := drawnRound("1000.00")
	round.Status = domain.RoundStatusLocked

	_, err := svc.Settle(context.Background(), round, threeWinners())
	assert.ErrorIs(t, err, domain.ErrRoundNotDrawn)
}

func TestSettle_RejectsTierOutsideWeightingTable(t *testing.T) {
	store := newMemPrizeStore()
	svc := NewService(store, ledger.NewService(store), nil, nil)

	round := drawnRound("1000.00")
	winners := []domain.Winner{{Tier: 4, EntryID: 1, UserID: uuid.New()}}

	_, err := svc.Settle(context.Background(), round, winners)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettled_TracksWinningTiers(t *testing.T) {
	store := newMemPrizeStore()
	svc := NewService(store, ledger.NewService(store), nil, nil)
	ctx := context.Background()

	round := drawnRound("1000.00")
	winners := threeWinners()

	settled, err := svc.Settled(ctx, round.ID, winners)
	require.NoError(t, err)
	assert.False(t, settled, "nothing is settled before the first prize row")

	// Pay only the first tier, like a crash mid-settlement would leave it
	_, err = svc.Settle(ctx, round, winners[:1])
	require.NoError(t, err)

	settled, err = svc.Settled(ctx, round.ID, winners)
	require.NoError(t, err)
	assert.False(t, settled, "unpaid tiers keep the round unsettled")

	_, err = svc.Settle(ctx, round, winners)
	require.NoError(t, err)

	settled, err = svc.Settled(ctx, round.ID, winners)
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestTiers_DefaultsWhenUnset(t *testing.T) {
	store := newMemPrizeStore()

	svc := NewService(store, ledger.NewService(store), nil, nil)
	assert.Equal(t, len(DefaultTierWeights), svc.Tiers())

	custom := NewService(store, ledger.NewService(store), nil, []int{60, 40})
	assert.Equal(t, 2, custom.Tiers())
}

func TestSettle_PrizeRowTimestamps(t *testing.T) {
	store := newMemPrizeStore()
	svc := NewService(store, ledger.NewService(store), nil, nil)
	ctx := context.Background()

	round := drawnRound("100.00")
	before := time.Now().UTC()

	prizes, err := svc.Settle(ctx, round, threeWinners())
	require.NoError(t, err)
	for _, p := range prizes {
		assert.False(t, p.PaidAt.Before(before))
		assert.Equal(t, round.ID, p.RoundID)
	}
}
