package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/repository/postgres"
)

var exchangeRowColumns = []string{
	"id", "kind", "status", "title", "creator_id", "counterparty_id", "points_value",
	"origin_event_id", "origin_need_id", "cancel_reason", "created_at", "started_at", "ended_at",
}

func TestExchangeRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := postgres.NewExchangeRepository(db)

	ex := &domain.Exchange{
		Kind:        domain.ExchangeKindLoan,
		Status:      domain.ExchangeStatusActive,
		Title:       "Drill",
		CreatorID:   1,
		PointsValue: 30,
	}
	mock.ExpectQuery("INSERT INTO exchanges").
		WithArgs("loan", "active", "Drill", 1, sqlmock.AnyArg(), 30, sqlmock.AnyArg(), sqlmock.AnyArg(), "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	err = repo.Create(context.Background(), ex)
	assert.NoError(t, err)
	assert.Equal(t, int32(7), ex.ID)
	assert.False(t, ex.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExchangeRepository_GetForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := postgres.NewExchangeRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM exchanges WHERE id = \\$1 FOR UPDATE").WithArgs(7).
			WillReturnRows(sqlmock.NewRows(exchangeRowColumns).
				AddRow(7, "borrow", "in_progress", "Chairs", 1, 2, 15, 3, 4, "", now, now, nil))

		ex, err := repo.GetForUpdate(ctx, 7)
		assert.NoError(t, err)
		assert.Equal(t, domain.ExchangeStatusInProgress, ex.Status)
		assert.Equal(t, int32(2), *ex.CounterpartyID)
		assert.True(t, ex.Origin.FromNeed())
		assert.Nil(t, ex.EndedAt)
	})

	t.Run("Unknown", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM exchanges WHERE id = \\$1 FOR UPDATE").WithArgs(99).
			WillReturnError(sql.ErrNoRows)

		ex, err := repo.GetForUpdate(ctx, 99)
		assert.Nil(t, ex)
		assert.ErrorIs(t, err, domain.ErrUnknownExchange)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExchangeRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := postgres.NewExchangeRepository(db)
	ctx := context.Background()
	counterparty := int32(2)
	ex := &domain.Exchange{ID: 7, Status: domain.ExchangeStatusCancelled, CounterpartyID: &counterparty, CancelReason: "changed my mind"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE exchanges SET status").
			WithArgs("cancelled", 2, "changed my mind", sqlmock.AnyArg(), sqlmock.AnyArg(), 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Update(ctx, ex))
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectExec("UPDATE exchanges SET status").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Update(ctx, ex), domain.ErrUnknownExchange)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExchangeRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := postgres.NewExchangeRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM").WithArgs(1, "active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT (.+) FROM exchanges WHERE \\(creator_id = \\$1 OR counterparty_id = \\$1\\) AND status = \\$2 ORDER BY").
		WithArgs(1, "active", 2, 2).
		WillReturnRows(sqlmock.NewRows(exchangeRowColumns).
			AddRow(3, "loan", "active", "Ladder", 1, nil, 10, nil, nil, "", now, nil, nil))

	exchanges, total, err := repo.ListByUser(context.Background(), 1, "active", 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, int32(3), total)
	assert.Len(t, exchanges, 1)
	assert.Nil(t, exchanges[0].CounterpartyID)
	assert.False(t, exchanges[0].Origin.FromNeed())
	assert.NoError(t, mock.ExpectationsWereMet())
}
