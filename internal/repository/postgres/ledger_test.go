package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/repository/postgres"
)

func TestLedgerRepository_CreateEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		entries := []domain.LedgerEntry{
			{BatchID: "b-1", UserID: 1, ExchangeID: 5, Amount: 30, Reason: domain.LedgerReasonGain},
			{BatchID: "b-1", UserID: 2, ExchangeID: 5, Amount: -30, Reason: domain.LedgerReasonDepense},
		}
		mock.ExpectQuery("INSERT INTO ledger_entries").
			WithArgs("b-1", 1, 5, 30, "gain", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
		mock.ExpectQuery("INSERT INTO ledger_entries").
			WithArgs("b-1", 2, 5, -30, "depense", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		err := repo.CreateEntries(ctx, entries)
		assert.NoError(t, err)
		assert.Equal(t, int32(10), entries[0].ID)
		assert.Equal(t, int32(11), entries[1].ID)
		assert.False(t, entries[0].CreatedAt.IsZero())
	})

	t.Run("DuplicatePosting", func(t *testing.T) {
		entries := []domain.LedgerEntry{{BatchID: "b-2", UserID: 1, ExchangeID: 5, Amount: 30, Reason: domain.LedgerReasonGain}}
		mock.ExpectQuery("INSERT INTO ledger_entries").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "ledger_entries_exchange_user_key"})

		err := repo.CreateEntries(ctx, entries)
		assert.ErrorIs(t, err, domain.ErrLedgerPostingConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Queries(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("HasEntries", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		posted, err := repo.HasEntries(ctx, 5)
		assert.NoError(t, err)
		assert.True(t, posted)
	})

	t.Run("GetBalance", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM ledger_entries").WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(-45))

		balance, err := repo.GetBalance(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(-45), balance)
	})

	t.Run("ListByUser", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM ledger_entries WHERE user_id = \\$1 AND id > \\$2").
			WithArgs(1, 10, 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "batch_id", "user_id", "exchange_id", "amount", "reason", "created_at"}).
				AddRow(11, "b-1", 1, 5, 30, "gain", now).
				AddRow(14, "b-3", 1, 6, -10, "depense", now))

		entries, err := repo.ListByUser(ctx, 1, 10, 2)
		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, int32(14), entries[1].ID)
		assert.Equal(t, domain.LedgerReasonDepense, entries[1].Reason)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
