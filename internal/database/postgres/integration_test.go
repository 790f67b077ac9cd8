package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/civiclabs-ng/supcore/internal/database"
	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/eligibility"
	"github.com/civiclabs-ng/supcore/internal/eventlog"
	"github.com/civiclabs-ng/supcore/internal/ledger"
	"github.com/civiclabs-ng/supcore/internal/reward"
	"github.com/civiclabs-ng/supcore/internal/user"
)

const testCommitHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start Postgres container
	var pgContainer *postgres.PostgresContainer
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("Skipping integration test due to panic (likely Docker issue): %v", r)
			}
		}()
		pgContainer, err = postgres.Run(ctx,
			"postgres:15-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(5*time.Second)),
		)
	}()

	if pgContainer == nil {
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.NewPool(connStr, 5, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(pool); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	ledgerRepo := NewLedgerRepository(pool)
	roundRepo := NewRoundRepository(pool)
	prizeRepo := NewPrizeRepository(pool)
	engRepo := NewEngagementRepository(pool)
	userRepo := NewUserRepository(pool)
	logRepo := NewEventLogRepository(pool)

	// createWallet commits a funded wallet so later inserts can satisfy the
	// transactions foreign key
	createWallet := func(t *testing.T, userID uuid.UUID, balance decimal.Decimal) {
		t.Helper()
		tx, err := ledgerRepo.BeginLedgerTx(ctx)
		if err != nil {
			t.Fatalf("BeginLedgerTx failed: %v", err)
		}
		defer tx.Rollback(ctx)

		w := domain.NewWallet(userID)
		w.SUPBalance = balance
		if err := tx.CreateWallet(ctx, w); err != nil {
			t.Fatalf("CreateWallet failed: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("tx.Commit failed: %v", err)
		}
	}

	t.Run("Wallet Lifecycle", func(t *testing.T) {
		userID := uuid.New()

		w, err := ledgerRepo.GetWallet(ctx, userID)
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if w != nil {
			t.Error("expected nil for missing wallet")
		}

		tx, err := ledgerRepo.BeginLedgerTx(ctx)
		if err != nil {
			t.Fatalf("BeginLedgerTx failed: %v", err)
		}
		defer tx.Rollback(ctx)

		locked, err := tx.GetWalletForUpdate(ctx, userID)
		if err != nil {
			t.Fatalf("GetWalletForUpdate failed: %v", err)
		}
		if locked != nil {
			t.Error("expected nil for missing wallet inside tx")
		}

		if err := tx.CreateWallet(ctx, domain.NewWallet(userID)); err != nil {
			t.Fatalf("CreateWallet failed: %v", err)
		}
		if err := tx.UpdateWalletBalances(ctx, userID, decimal.NewFromInt(100), decimal.Zero); err != nil {
			t.Fatalf("UpdateWalletBalances failed: %v", err)
		}

		txn := &domain.Transaction{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      domain.TxTypeEarned,
			AmountSUP: decimal.NewFromInt(100),
			AmountNGN: decimal.Zero,
			Metadata: domain.TxMetadata{
				Earned: &domain.EarnedMetadata{TaskID: uuid.New(), EventID: uuid.New()},
			},
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("tx.Commit failed: %v", err)
		}

		w, err = ledgerRepo.GetWallet(ctx, userID)
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if w == nil {
			t.Fatal("expected wallet after commit")
		}
		if !w.SUPBalance.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected balance 100, got %s", w.SUPBalance)
		}

		txs, err := ledgerRepo.ListTransactions(ctx, userID, 10)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(txs) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(txs))
		}
		if txs[0].Type != domain.TxTypeEarned {
			t.Errorf("expected EARNED transaction, got %s", txs[0].Type)
		}
		if txs[0].Metadata.Earned == nil {
			t.Error("expected earned metadata to round-trip")
		}
	})

	t.Run("Wallet Rollback", func(t *testing.T) {
		userID := uuid.New()
		createWallet(t, userID, decimal.NewFromInt(100))

		tx, err := ledgerRepo.BeginLedgerTx(ctx)
		if err != nil {
			t.Fatalf("BeginLedgerTx failed: %v", err)
		}
		if err := tx.UpdateWalletBalances(ctx, userID, decimal.NewFromInt(500), decimal.Zero); err != nil {
			t.Fatalf("UpdateWalletBalances failed: %v", err)
		}
		if err := tx.Rollback(ctx); err != nil {
			t.Fatalf("tx.Rollback failed: %v", err)
		}

		w, err := ledgerRepo.GetWallet(ctx, userID)
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if !w.SUPBalance.Equal(decimal.NewFromInt(100)) {
			t.Errorf("rollback leaked a balance change: got %s", w.SUPBalance)
		}
	})

	t.Run("Round Lifecycle", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		round := &domain.Round{
			ID:         uuid.New(),
			Kind:       domain.RoundKindDaily,
			Status:     domain.RoundStatusOpen,
			PoolSUP:    decimal.Zero,
			Split:      domain.PoolSplit{ProjectsPct: 50, PrizesPct: 30, PlatformPct: 20},
			CommitHash: testCommitHash,
			OpenedAt:   now,
			ClosesAt:   now.Add(time.Hour),
		}
		if err := roundRepo.CreateRound(ctx, round); err != nil {
			t.Fatalf("CreateRound failed: %v", err)
		}

		got, err := roundRepo.GetRound(ctx, round.ID)
		if err != nil {
			t.Fatalf("GetRound failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected round, got nil")
		}
		if got.Status != domain.RoundStatusOpen {
			t.Errorf("expected OPEN, got %s", got.Status)
		}
		if got.RevealSeed != nil {
			t.Error("reveal seed must not be set before the draw")
		}

		// Append two entries and fund the pool in one transaction
		userA := uuid.New()
		userB := uuid.New()
		tx, err := roundRepo.BeginRoundTx(ctx)
		if err != nil {
			t.Fatalf("BeginRoundTx failed: %v", err)
		}
		defer tx.Rollback(ctx)

		locked, err := tx.GetRoundForUpdate(ctx, round.ID)
		if err != nil {
			t.Fatalf("GetRoundForUpdate failed: %v", err)
		}
		if locked == nil || locked.Status != domain.RoundStatusOpen {
			t.Fatal("expected the OPEN round under lock")
		}

		first := &domain.Entry{
			RoundID: round.ID, UserID: userA, Tickets: 2,
			Source: domain.EntrySourceBuy, CreatedAt: now,
		}
		second := &domain.Entry{
			RoundID: round.ID, UserID: userB, Tickets: 1,
			Source: domain.EntrySourceEarned, CreatedAt: now.Add(time.Second),
		}
		if err := tx.InsertEntry(ctx, first); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
		if err := tx.InsertEntry(ctx, second); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
		if first.ID == 0 || second.ID == 0 {
			t.Error("expected entry IDs to be assigned on insert")
		}
		if err := tx.AddToPool(ctx, round.ID, decimal.NewFromInt(30)); err != nil {
			t.Fatalf("AddToPool failed: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("tx.Commit failed: %v", err)
		}

		entries, err := roundRepo.ListEntries(ctx, round.ID)
		if err != nil {
			t.Fatalf("ListEntries failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].UserID != userA || entries[1].UserID != userB {
			t.Error("entries not in insertion order")
		}

		count, err := roundRepo.CountEntries(ctx, round.ID)
		if err != nil {
			t.Fatalf("CountEntries failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected entry count 2, got %d", count)
		}

		got, err = roundRepo.GetRound(ctx, round.ID)
		if err != nil {
			t.Fatalf("GetRound failed: %v", err)
		}
		if !got.PoolSUP.Equal(decimal.NewFromInt(30)) {
			t.Errorf("expected pool 30, got %s", got.PoolSUP)
		}

		// A round with entries must survive a delete attempt
		deleted, err := roundRepo.DeleteRoundIfEmpty(ctx, round.ID)
		if err != nil {
			t.Fatalf("DeleteRoundIfEmpty failed: %v", err)
		}
		if deleted != 0 {
			t.Error("round with entries must not be deleted")
		}

		// CAS transition: only the first lock wins
		affected, err := roundRepo.UpdateStatusIfMatches(ctx, round.ID,
			domain.RoundStatusOpen, domain.RoundStatusLocked, time.Now().UTC())
		if err != nil {
			t.Fatalf("UpdateStatusIfMatches failed: %v", err)
		}
		if affected != 1 {
			t.Fatalf("expected first lock to win, affected = %d", affected)
		}
		affected, err = roundRepo.UpdateStatusIfMatches(ctx, round.ID,
			domain.RoundStatusOpen, domain.RoundStatusLocked, time.Now().UTC())
		if err != nil {
			t.Fatalf("UpdateStatusIfMatches failed: %v", err)
		}
		if affected != 0 {
			t.Error("second lock must lose the CAS")
		}

		seed := testCommitHash
		affected, err = roundRepo.RecordReveal(ctx, round.ID, seed, time.Now().UTC())
		if err != nil {
			t.Fatalf("RecordReveal failed: %v", err)
		}
		if affected != 1 {
			t.Fatalf("expected reveal to transition the round, affected = %d", affected)
		}

		got, err = roundRepo.GetRound(ctx, round.ID)
		if err != nil {
			t.Fatalf("GetRound failed: %v", err)
		}
		if got.Status != domain.RoundStatusDrawn {
			t.Errorf("expected DRAWN, got %s", got.Status)
		}
		if got.RevealSeed == nil || *got.RevealSeed != seed {
			t.Error("expected reveal seed to be persisted at draw time")
		}
		if got.DrawnAt == nil {
			t.Error("expected drawn_at to be set")
		}

		affected, err = roundRepo.RecordReveal(ctx, round.ID, seed, time.Now().UTC())
		if err != nil {
			t.Fatalf("RecordReveal failed: %v", err)
		}
		if affected != 0 {
			t.Error("a second reveal must lose the CAS")
		}

		drawn, err := roundRepo.ListRoundsByStatus(ctx, domain.RoundStatusDrawn)
		if err != nil {
			t.Fatalf("ListRoundsByStatus failed: %v", err)
		}
		if len(drawn) == 0 {
			t.Error("expected the drawn round in the status listing")
		}
	})

	t.Run("Delete Empty Round", func(t *testing.T) {
		now := time.Now().UTC()
		round := &domain.Round{
			ID:         uuid.New(),
			Kind:       domain.RoundKindWeekly,
			Status:     domain.RoundStatusOpen,
			PoolSUP:    decimal.Zero,
			Split:      domain.PoolSplit{ProjectsPct: 50, PrizesPct: 30, PlatformPct: 20},
			CommitHash: testCommitHash,
			OpenedAt:   now,
			ClosesAt:   now.Add(time.Hour),
		}
		if err := roundRepo.CreateRound(ctx, round); err != nil {
			t.Fatalf("CreateRound failed: %v", err)
		}

		deleted, err := roundRepo.DeleteRoundIfEmpty(ctx, round.ID)
		if err != nil {
			t.Fatalf("DeleteRoundIfEmpty failed: %v", err)
		}
		if deleted != 1 {
			t.Errorf("expected empty round to be deleted, affected = %d", deleted)
		}

		got, err := roundRepo.GetRound(ctx, round.ID)
		if err != nil {
			t.Fatalf("GetRound failed: %v", err)
		}
		if got != nil {
			t.Error("expected nil after delete")
		}
	})

	t.Run("Prize Idempotency", func(t *testing.T) {
		now := time.Now().UTC()
		round := &domain.Round{
			ID:         uuid.New(),
			Kind:       domain.RoundKindDaily,
			Status:     domain.RoundStatusDrawn,
			PoolSUP:    decimal.NewFromInt(1000),
			Split:      domain.PoolSplit{ProjectsPct: 50, PrizesPct: 30, PlatformPct: 20},
			CommitHash: testCommitHash,
			OpenedAt:   now,
			ClosesAt:   now.Add(time.Hour),
		}
		if err := roundRepo.CreateRound(ctx, round); err != nil {
			t.Fatalf("CreateRound failed: %v", err)
		}

		winner := uuid.New()
		insert := func(t *testing.T) bool {
			t.Helper()
			tx, err := prizeRepo.BeginPrizeTx(ctx)
			if err != nil {
				t.Fatalf("BeginPrizeTx failed: %v", err)
			}
			defer tx.Rollback(ctx)
			inserted, err := tx.InsertPrizeIfAbsent(ctx, &domain.Prize{
				ID:        uuid.New(),
				RoundID:   round.ID,
				UserID:    winner,
				Tier:      1,
				AmountSUP: decimal.NewFromInt(150),
				PaidAt:    time.Now().UTC(),
			})
			if err != nil {
				t.Fatalf("InsertPrizeIfAbsent failed: %v", err)
			}
			if err := tx.Commit(ctx); err != nil {
				t.Fatalf("tx.Commit failed: %v", err)
			}
			return inserted
		}

		if !insert(t) {
			t.Fatal("expected first settlement to insert")
		}
		if insert(t) {
			t.Error("expected second settlement of the same tier to no-op")
		}

		prizes, err := prizeRepo.ListPrizes(ctx, round.ID)
		if err != nil {
			t.Fatalf("ListPrizes failed: %v", err)
		}
		if len(prizes) != 1 {
			t.Fatalf("expected 1 prize, got %d", len(prizes))
		}
		if !prizes[0].AmountSUP.Equal(decimal.NewFromInt(150)) {
			t.Errorf("expected prize amount 150, got %s", prizes[0].AmountSUP)
		}
	})

	t.Run("Task Upsert", func(t *testing.T) {
		now := time.Now().UTC()
		task := &domain.EngagementTask{
			ID:             uuid.New(),
			Title:          "Attend town hall",
			RewardSUP:      decimal.NewFromInt(25),
			MaxCompletions: 10,
			ActiveFrom:     now.Add(-time.Hour),
			ActiveUntil:    now.Add(time.Hour),
			Repeatable:     true,
		}
		created, err := engRepo.UpsertTask(ctx, task)
		if err != nil {
			t.Fatalf("UpsertTask failed: %v", err)
		}
		if !created {
			t.Error("expected first upsert to report created")
		}

		// Bump operational state, then re-upsert the definition
		tx, err := engRepo.BeginRewardTx(ctx)
		if err != nil {
			t.Fatalf("BeginRewardTx failed: %v", err)
		}
		if err := tx.IncrementCompletionCount(ctx, task.ID); err != nil {
			t.Fatalf("IncrementCompletionCount failed: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("tx.Commit failed: %v", err)
		}

		task.Title = "Attend the town hall"
		created, err = engRepo.UpsertTask(ctx, task)
		if err != nil {
			t.Fatalf("UpsertTask failed: %v", err)
		}
		if created {
			t.Error("expected second upsert to report updated")
		}

		got, err := engRepo.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("GetTask failed: %v", err)
		}
		if got.Title != "Attend the town hall" {
			t.Errorf("expected updated title, got %q", got.Title)
		}
		if got.CompletionCount != 1 {
			t.Errorf("upsert must not reset completion_count, got %d", got.CompletionCount)
		}
	})

	t.Run("Civic Event Liveness", func(t *testing.T) {
		live, err := engRepo.EventLive(ctx, uuid.New())
		if err != nil {
			t.Fatalf("EventLive failed: %v", err)
		}
		if live {
			t.Error("unknown event must not be live")
		}

		eventID := uuid.New()
		_, err = pool.Exec(ctx, `
			INSERT INTO civic_events (id, title, live, starts_at, ends_at)
			VALUES ($1, 'Budget review', TRUE, NOW() - INTERVAL '1 hour', NOW() + INTERVAL '1 hour')
		`, eventID)
		if err != nil {
			t.Fatalf("failed to seed civic event: %v", err)
		}

		live, err = engRepo.EventLive(ctx, eventID)
		if err != nil {
			t.Fatalf("EventLive failed: %v", err)
		}
		if !live {
			t.Error("expected in-window flagged event to be live")
		}

		endedID := uuid.New()
		_, err = pool.Exec(ctx, `
			INSERT INTO civic_events (id, title, live, starts_at, ends_at)
			VALUES ($1, 'Past forum', TRUE, NOW() - INTERVAL '2 hour', NOW() - INTERVAL '1 hour')
		`, endedID)
		if err != nil {
			t.Fatalf("failed to seed civic event: %v", err)
		}

		live, err = engRepo.EventLive(ctx, endedID)
		if err != nil {
			t.Fatalf("EventLive failed: %v", err)
		}
		if live {
			t.Error("event outside its window must not be live")
		}
	})

	t.Run("Reward Issuance Transaction", func(t *testing.T) {
		userID := uuid.New()
		createWallet(t, userID, decimal.NewFromInt(25))

		now := time.Now().UTC()
		task := &domain.EngagementTask{
			ID:          uuid.New(),
			Title:       "Share voter guide",
			RewardSUP:   decimal.NewFromInt(25),
			ActiveFrom:  now.Add(-time.Hour),
			ActiveUntil: now.Add(time.Hour),
		}
		if _, err := engRepo.UpsertTask(ctx, task); err != nil {
			t.Fatalf("UpsertTask failed: %v", err)
		}

		windowStart := task.WindowStart(now)
		event := &domain.EngagementEvent{
			ID:          uuid.New(),
			UserID:      userID,
			TaskID:      task.ID,
			WindowStart: windowStart,
			Status:      domain.EventStatusPending,
			CreatedAt:   now,
		}

		tx, err := engRepo.BeginRewardTx(ctx)
		if err != nil {
			t.Fatalf("BeginRewardTx failed: %v", err)
		}
		defer tx.Rollback(ctx)

		lockedTask, err := tx.GetTaskForUpdate(ctx, task.ID)
		if err != nil {
			t.Fatalf("GetTaskForUpdate failed: %v", err)
		}
		if lockedTask == nil {
			t.Fatal("expected the task under lock")
		}

		inserted, created, err := tx.InsertEventIfAbsent(ctx, event)
		if err != nil {
			t.Fatalf("InsertEventIfAbsent failed: %v", err)
		}
		if !created {
			t.Fatal("expected first submission to insert")
		}

		// The credit and the approval share the transaction
		txn := &domain.Transaction{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      domain.TxTypeEarned,
			AmountSUP: task.RewardSUP,
			AmountNGN: decimal.Zero,
			Metadata: domain.TxMetadata{
				Earned: &domain.EarnedMetadata{TaskID: task.ID, EventID: inserted.ID},
			},
			CreatedAt: now,
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
		if err := tx.MarkEventApproved(ctx, inserted.ID, txn.ID); err != nil {
			t.Fatalf("MarkEventApproved failed: %v", err)
		}
		if err := tx.IncrementCompletionCount(ctx, task.ID); err != nil {
			t.Fatalf("IncrementCompletionCount failed: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("tx.Commit failed: %v", err)
		}

		got, err := engRepo.GetEvent(ctx, userID, task.ID, windowStart)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected event after commit")
		}
		if got.Status != domain.EventStatusApproved {
			t.Errorf("expected APPROVED, got %s", got.Status)
		}
		if got.TransactionID == nil || *got.TransactionID != txn.ID {
			t.Error("expected the approving transaction to be linked")
		}

		// The unique key resolves a repeat submission to the original row
		tx2, err := engRepo.BeginRewardTx(ctx)
		if err != nil {
			t.Fatalf("BeginRewardTx failed: %v", err)
		}
		defer tx2.Rollback(ctx)

		dup := &domain.EngagementEvent{
			ID:          uuid.New(),
			UserID:      userID,
			TaskID:      task.ID,
			WindowStart: windowStart,
			Status:      domain.EventStatusPending,
			CreatedAt:   time.Now().UTC(),
		}
		resolved, created, err := tx2.InsertEventIfAbsent(ctx, dup)
		if err != nil {
			t.Fatalf("InsertEventIfAbsent failed: %v", err)
		}
		if created {
			t.Error("expected duplicate submission to lose the upsert")
		}
		if resolved.ID != inserted.ID {
			t.Error("expected the original event row back")
		}

		count, err := tx2.CountRewardActionsSince(ctx, userID, now.Add(-time.Minute))
		if err != nil {
			t.Fatalf("CountRewardActionsSince failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 approved action, got %d", count)
		}
		if err := tx2.Rollback(ctx); err != nil {
			t.Fatalf("tx.Rollback failed: %v", err)
		}
	})

	t.Run("Concurrent Duplicate Issuance", func(t *testing.T) {
		userID := uuid.New()
		createWallet(t, userID, decimal.Zero)

		now := time.Now().UTC()
		task := &domain.EngagementTask{
			ID:          uuid.New(),
			Title:       "Attend community cleanup",
			RewardSUP:   decimal.NewFromInt(25),
			ActiveFrom:  now.Add(-time.Hour),
			ActiveUntil: now.Add(time.Hour),
		}
		if _, err := engRepo.UpsertTask(ctx, task); err != nil {
			t.Fatalf("UpsertTask failed: %v", err)
		}

		gate := eligibility.NewGate(engRepo, user.NewService(userRepo), engRepo, eligibility.DailyCaps{})
		rewardSvc := reward.NewService(engRepo, ledger.NewService(ledgerRepo), gate, nil)

		// Race identical submissions through the full issuance path. The
		// unique (user, task, window) key makes the loser block on the
		// winner's insert, then resolve to the approved row.
		const racers = 4
		results := make([]*reward.IssueResult, racers)
		issueErrs := make([]error, racers)

		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(racers)
		for i := 0; i < racers; i++ {
			go func(i int) {
				defer wg.Done()
				<-start
				results[i], issueErrs[i] = rewardSvc.Issue(ctx, userID, task.ID, nil)
			}(i)
		}
		close(start)
		wg.Wait()

		var credits, duplicates int
		for i := 0; i < racers; i++ {
			if issueErrs[i] != nil {
				t.Fatalf("Issue %d failed: %v", i, issueErrs[i])
			}
			if results[i].Duplicate {
				duplicates++
			} else {
				credits++
			}
		}
		if credits != 1 {
			t.Fatalf("expected exactly one credited issuance, got %d", credits)
		}
		if duplicates != racers-1 {
			t.Fatalf("expected %d duplicate resolutions, got %d", racers-1, duplicates)
		}

		evt, err := engRepo.GetEvent(ctx, userID, task.ID, task.WindowStart(time.Now().UTC()))
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if evt == nil {
			t.Fatal("expected the issuance event row")
		}
		if evt.Status != domain.EventStatusApproved {
			t.Errorf("expected APPROVED, got %s", evt.Status)
		}

		var eventCount int
		if err := pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM engagement_events WHERE user_id = $1 AND task_id = $2
		`, userID, task.ID).Scan(&eventCount); err != nil {
			t.Fatalf("failed to count events: %v", err)
		}
		if eventCount != 1 {
			t.Fatalf("expected 1 engagement event, got %d", eventCount)
		}

		txs, err := ledgerRepo.ListTransactions(ctx, userID, 10)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		var earned int
		for _, txn := range txs {
			if txn.Type == domain.TxTypeEarned {
				earned++
			}
		}
		if earned != 1 {
			t.Fatalf("expected 1 EARNED transaction, got %d", earned)
		}

		w, err := ledgerRepo.GetWallet(ctx, userID)
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if !w.SUPBalance.Equal(decimal.NewFromInt(25)) {
			t.Errorf("expected the reward credited exactly once, balance %s", w.SUPBalance)
		}
	})

	t.Run("Event Rejection", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now().UTC()
		task := &domain.EngagementTask{
			ID:          uuid.New(),
			Title:       "Verified-only survey",
			RewardSUP:   decimal.NewFromInt(10),
			ActiveFrom:  now.Add(-time.Hour),
			ActiveUntil: now.Add(time.Hour),
		}
		if _, err := engRepo.UpsertTask(ctx, task); err != nil {
			t.Fatalf("UpsertTask failed: %v", err)
		}

		tx, err := engRepo.BeginRewardTx(ctx)
		if err != nil {
			t.Fatalf("BeginRewardTx failed: %v", err)
		}
		defer tx.Rollback(ctx)

		event := &domain.EngagementEvent{
			ID:          uuid.New(),
			UserID:      userID,
			TaskID:      task.ID,
			WindowStart: task.WindowStart(now),
			Status:      domain.EventStatusPending,
			CreatedAt:   now,
		}
		inserted, _, err := tx.InsertEventIfAbsent(ctx, event)
		if err != nil {
			t.Fatalf("InsertEventIfAbsent failed: %v", err)
		}
		if err := tx.MarkEventRejected(ctx, inserted.ID); err != nil {
			t.Fatalf("MarkEventRejected failed: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("tx.Commit failed: %v", err)
		}

		got, err := engRepo.GetEvent(ctx, userID, task.ID, task.WindowStart(now))
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if got.Status != domain.EventStatusRejected {
			t.Errorf("expected REJECTED, got %s", got.Status)
		}
		if got.TransactionID != nil {
			t.Error("rejected event must not carry a transaction")
		}

		count, err := engRepo.CountRewardActionsSince(ctx, userID, now.Add(-time.Minute))
		if err != nil {
			t.Fatalf("CountRewardActionsSince failed: %v", err)
		}
		if count != 0 {
			t.Errorf("rejected events must not count as actions, got %d", count)
		}
	})

	t.Run("User Profiles", func(t *testing.T) {
		userID := uuid.New()

		p, err := userRepo.GetProfile(ctx, userID)
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if p != nil {
			t.Error("expected nil for missing profile")
		}

		p, err = userRepo.UpsertProfile(ctx, &domain.UserProfile{
			UserID: userID, Handle: "ada", VerificationTier: domain.TierUnverified,
		})
		if err != nil {
			t.Fatalf("UpsertProfile failed: %v", err)
		}
		if p.Handle != "ada" {
			t.Errorf("expected handle ada, got %s", p.Handle)
		}

		p, err = userRepo.UpsertProfile(ctx, &domain.UserProfile{
			UserID: userID, Handle: "ada", VerificationTier: domain.TierFull,
		})
		if err != nil {
			t.Fatalf("UpsertProfile failed: %v", err)
		}
		if p.VerificationTier != domain.TierFull {
			t.Errorf("expected FULL tier, got %d", p.VerificationTier)
		}

		p, err = userRepo.GetProfile(ctx, userID)
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if p == nil || p.VerificationTier != domain.TierFull {
			t.Error("expected upserted tier to persist")
		}
	})

	t.Run("Event Log", func(t *testing.T) {
		userID := uuid.New().String()

		if err := logRepo.LogEvent(ctx, "round.drawn", nil, map[string]interface{}{
			"round_id": uuid.New().String(),
		}); err != nil {
			t.Fatalf("LogEvent failed: %v", err)
		}
		if err := logRepo.LogEvent(ctx, "wallet.credited", &userID, map[string]interface{}{
			"amount_sup": "25",
		}); err != nil {
			t.Fatalf("LogEvent failed: %v", err)
		}

		byUser, err := logRepo.GetEventsByUser(ctx, userID, 10)
		if err != nil {
			t.Fatalf("GetEventsByUser failed: %v", err)
		}
		if len(byUser) != 1 {
			t.Fatalf("expected 1 event for user, got %d", len(byUser))
		}
		if byUser[0].EventType != "wallet.credited" {
			t.Errorf("expected wallet.credited, got %s", byUser[0].EventType)
		}
		if byUser[0].Payload["amount_sup"] != "25" {
			t.Error("expected payload to round-trip")
		}

		byType, err := logRepo.GetEventsByType(ctx, "round.drawn", 10)
		if err != nil {
			t.Fatalf("GetEventsByType failed: %v", err)
		}
		if len(byType) == 0 {
			t.Error("expected at least one round.drawn event")
		}
		for _, e := range byType {
			if e.UserID != nil {
				t.Error("round.drawn events carry no user")
			}
		}

		limited, err := logRepo.GetEvents(ctx, eventlog.EventFilter{Limit: 1})
		if err != nil {
			t.Fatalf("GetEvents failed: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected limit to cap results, got %d", len(limited))
		}

		removed, err := logRepo.CleanupOldEvents(ctx, 30)
		if err != nil {
			t.Fatalf("CleanupOldEvents failed: %v", err)
		}
		if removed != 0 {
			t.Errorf("fresh events must survive cleanup, removed %d", removed)
		}
	})
}
