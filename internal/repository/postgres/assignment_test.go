package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/repository"
	"bobiz-backend/internal/repository/postgres"
)

func TestAssignmentRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := postgres.NewAssignmentRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		a := &domain.Assignment{NeedID: 4, ParticipantID: 2, Quantity: 1, ExchangeID: 9}
		mock.ExpectQuery("INSERT INTO assignments").
			WithArgs(4, 2, 1, 9, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

		assert.NoError(t, repo.Create(ctx, a))
		assert.Equal(t, int32(3), a.ID)
	})

	t.Run("Duplicate", func(t *testing.T) {
		a := &domain.Assignment{NeedID: 4, ParticipantID: 2, Quantity: 1, ExchangeID: 10}
		mock.ExpectQuery("INSERT INTO assignments").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "assignments_need_participant_key"})

		assert.ErrorIs(t, repo.Create(ctx, a), domain.ErrDuplicateAssignment)
	})

	t.Run("OtherConstraint", func(t *testing.T) {
		a := &domain.Assignment{NeedID: 4, ParticipantID: 3, Quantity: 1, ExchangeID: 9}
		mock.ExpectQuery("INSERT INTO assignments").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "assignments_exchange_id_key"})

		err := repo.Create(ctx, a)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrDuplicateAssignment))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepository_Lookups(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := postgres.NewAssignmentRepository(db)
	ctx := context.Background()

	t.Run("GetNotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM assignments WHERE need_id = \\$1 AND participant_id = \\$2").
			WithArgs(4, 2).
			WillReturnError(sql.ErrNoRows)

		a, err := repo.Get(ctx, 4, 2)
		assert.Nil(t, a)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("GetByExchange", func(t *testing.T) {
		created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT (.+) FROM assignments WHERE exchange_id = \\$1").
			WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"id", "need_id", "participant_id", "quantity", "exchange_id", "created_at"}).
				AddRow(3, 4, 2, 1, 9, created))

		a, err := repo.GetByExchange(ctx, 9)
		assert.NoError(t, err)
		assert.Equal(t, &domain.Assignment{ID: 3, NeedID: 4, ParticipantID: 2, Quantity: 1, ExchangeID: 9, CreatedAt: created}, a)

		mock.ExpectQuery("SELECT (.+) FROM assignments WHERE exchange_id = \\$1").
			WithArgs(10).
			WillReturnError(sql.ErrNoRows)
		_, err = repo.GetByExchange(ctx, 10)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("SumQuantityLargerThanInt32", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(quantity\\), 0\\) FROM assignments").WithArgs(4).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(4294967294)))

		total, err := repo.SumQuantity(ctx, 4)
		assert.NoError(t, err)
		assert.Equal(t, int64(4294967294), total)
	})

	t.Run("SumQuantity", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(quantity\\), 0\\) FROM assignments").WithArgs(4).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(3))

		total, err := repo.SumQuantity(ctx, 4)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("SumQuantityByEvent", func(t *testing.T) {
		mock.ExpectQuery("SELECT a.need_id, SUM\\(a.quantity\\)").WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"need_id", "sum"}).AddRow(4, 3).AddRow(5, 1))

		totals, err := repo.SumQuantityByEvent(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, map[int32]int64{4: 3, 5: 1}, totals)
	})

	t.Run("Delete", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM assignments").WithArgs(4, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM assignments").WithArgs(4, 2).
			WillReturnResult(sqlmock.NewResult(0, 0))

		released, err := repo.Delete(ctx, 4, 2)
		assert.NoError(t, err)
		assert.True(t, released)

		released, err = repo.Delete(ctx, 4, 2)
		assert.NoError(t, err)
		assert.False(t, released)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
