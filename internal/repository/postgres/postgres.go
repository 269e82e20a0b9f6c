package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// dbtx is the subset of *sql.DB and *sql.Tx the repositories need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

type Store struct {
	db            *sql.DB
	events        repository.EventRepository
	needs         repository.NeedRepository
	assignments   repository.AssignmentRepository
	exchanges     repository.ExchangeRepository
	ledger        repository.LedgerRepository
	notifications repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		events:        NewEventRepository(db),
		needs:         NewNeedRepository(db),
		assignments:   NewAssignmentRepository(db),
		exchanges:     NewExchangeRepository(db),
		ledger:        NewLedgerRepository(db),
		notifications: NewNotificationRepository(db),
	}
}

func (s *Store) Events() repository.EventRepository { return s.events }
func (s *Store) Needs() repository.NeedRepository { return s.needs }
func (s *Store) Assignments() repository.AssignmentRepository { return s.assignments }
func (s *Store) Exchanges() repository.ExchangeRepository { return s.exchanges }
func (s *Store) Ledger() repository.LedgerRepository { return s.ledger }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }

// WithinTx implements repository.Transactor on top of database/sql.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Migrate creates the engine relations if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	logger.Info("Applying database schema")
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// uniqueViolation reports the violated constraint name for a 23505 error.
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}
