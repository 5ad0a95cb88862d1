package repository

import (
	"context"
	"database/sql"

	"rifas/internal/database"
	"rifas/internal/search"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// retryingQuerier is implemented by *database.DB. Transactions query once.
type retryingQuerier interface {
	QueryWithRetry(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// queryRead runs a read query, retrying dropped connections when db allows it
func queryRead(ctx context.Context, db DBTX, query string, args ...interface{}) (*sql.Rows, error) {
	if rq, ok := db.(retryingQuerier); ok {
		return rq.QueryWithRetry(ctx, query, args...)
	}
	return db.QueryContext(ctx, query, args...)
}

type Repositories struct {
	Tenants     *TenantRepository
	Users       *UserRepository
	Raffles     *RaffleRepository
	Numbers     *NumberRepository
	Results     *ResultRepository
	Winners     *WinnerRepository
	Settings    *SettingsRepository
	Audit       *AuditRepository
	PaymentLogs *PaymentLogRepository
	Blocked     *BlockedRepository
	Sorteios    *SorteioRepository
	Dashboard   *DashboardRepository

	// Search is nil when Elasticsearch is disabled
	Search *RaffleSearchRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return newRepositories(db)
}

func NewRepositoriesWithElasticsearch(db *database.DB, es *search.ElasticsearchClient) *Repositories {
	repos := newRepositories(db)
	repos.Search = NewRaffleSearchRepository(es)
	return repos
}

func newRepositories(db DBTX) *Repositories {
	return &Repositories{
		Tenants:     NewTenantRepository(db),
		Users:       NewUserRepository(db),
		Raffles:     NewRaffleRepository(db),
		Numbers:     NewNumberRepository(db),
		Results:     NewResultRepository(db),
		Winners:     NewWinnerRepository(db),
		Settings:    NewSettingsRepository(db),
		Audit:       NewAuditRepository(db),
		PaymentLogs: NewPaymentLogRepository(db),
		Blocked:     NewBlockedRepository(db),
		Sorteios:    NewSorteioRepository(db),
		Dashboard:   NewDashboardRepository(db),
	}
}

// WithTx returns repositories bound to tx. Search stays outside the transaction.
func (r *Repositories) WithTx(tx *sql.Tx) *Repositories {
	repos := newRepositories(tx)
	repos.Search = r.Search
	return repos
}
