package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiclabs-ng/supcore/internal/database/postgres"
	"github.com/civiclabs-ng/supcore/internal/eventlog"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// Repositories holds all repository implementations used by the application.
// This provides a centralized location for repository initialization and
// makes dependency injection clearer.
type Repositories struct {
	Ledger     repository.Ledger
	Engagement repository.Engagement
	Round      repository.Round
	Prize      repository.Prize
	User       repository.User
	EventLog   eventlog.Repository
}

// InitializeRepositories creates all repository implementations.
func InitializeRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Ledger:     postgres.NewLedgerRepository(dbPool),
		Engagement: postgres.NewEngagementRepository(dbPool),
		Round:      postgres.NewRoundRepository(dbPool),
		Prize:      postgres.NewPrizeRepository(dbPool),
		User:       postgres.NewUserRepository(dbPool),
		EventLog:   postgres.NewEventLogRepository(dbPool),
	}
}
