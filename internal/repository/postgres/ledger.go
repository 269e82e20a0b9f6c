package postgres

import (
	"context"
	"database/sql"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/repository"
)

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	logger.EnterMethod("ledgerRepository.CreateEntries", "count", len(entries))

	query := `INSERT INTO ledger_entries (batch_id, user_id, exchange_id, amount, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now().UTC()
	db := conn(ctx, r.db)
	for i := range entries {
		e := &entries[i]
		e.CreatedAt = now
		err := db.QueryRowContext(ctx, query, e.BatchID, e.UserID, e.ExchangeID, e.Amount, e.Reason, e.CreatedAt).Scan(&e.ID)
		if constraint, ok := uniqueViolation(err); ok && constraint == "ledger_entries_exchange_user_key" {
			err = domain.ErrLedgerPostingConflict
		}
		if err != nil {
			logger.ExitMethodWithError("ledgerRepository.CreateEntries", err, "exchangeID", e.ExchangeID)
			return err
		}
	}

	logger.ExitMethod("ledgerRepository.CreateEntries", "count", len(entries))
	return nil
}

func (r *ledgerRepository) HasEntries(ctx context.Context, exchangeID int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE exchange_id = $1)`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, exchangeID).Scan(&exists)
	return exists, err
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID int32) (int64, error) {
	var balance int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&balance)
	return balance, err
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID, afterID, limit int32) ([]domain.LedgerEntry, error) {
	query := `SELECT id, batch_id, user_id, exchange_id, amount, reason, created_at
	          FROM ledger_entries WHERE user_id = $1 AND id > $2 ORDER BY id LIMIT $3`
	return r.list(ctx, query, userID, afterID, limit)
}

func (r *ledgerRepository) ListByExchange(ctx context.Context, exchangeID int32) ([]domain.LedgerEntry, error) {
	query := `SELECT id, batch_id, user_id, exchange_id, amount, reason, created_at
	          FROM ledger_entries WHERE exchange_id = $1 ORDER BY id`
	return r.list(ctx, query, exchangeID)
}

func (r *ledgerRepository) list(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.BatchID, &e.UserID, &e.ExchangeID, &e.Amount, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
