package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/repository"
)

type exchangeRepository struct {
	db *sql.DB
}

func NewExchangeRepository(db *sql.DB) repository.ExchangeRepository {
	return &exchangeRepository{db: db}
}

const exchangeColumns = `id, kind, status, title, creator_id, counterparty_id, points_value,
	origin_event_id, origin_need_id, cancel_reason, created_at, started_at, ended_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(s scanner, ex *domain.Exchange) error {
	return s.Scan(&ex.ID, &ex.Kind, &ex.Status, &ex.Title, &ex.CreatorID, &ex.CounterpartyID, &ex.PointsValue,
		&ex.Origin.EventID, &ex.Origin.NeedID, &ex.CancelReason, &ex.CreatedAt, &ex.StartedAt, &ex.EndedAt)
}

func (r *exchangeRepository) Create(ctx context.Context, ex *domain.Exchange) error {
	logger.EnterMethod("exchangeRepository.Create", "kind", ex.Kind, "creatorID", ex.CreatorID)

	query := `INSERT INTO exchanges (kind, status, title, creator_id, counterparty_id, points_value,
	              origin_event_id, origin_need_id, cancel_reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		ex.Kind, ex.Status, ex.Title, ex.CreatorID, ex.CounterpartyID, ex.PointsValue,
		ex.Origin.EventID, ex.Origin.NeedID, ex.CancelReason, ex.CreatedAt,
	).Scan(&ex.ID)
	if err != nil {
		logger.ExitMethodWithError("exchangeRepository.Create", err, "creatorID", ex.CreatorID)
		return err
	}

	logger.ExitMethod("exchangeRepository.Create", "exchangeID", ex.ID)
	return nil
}

func (r *exchangeRepository) GetByID(ctx context.Context, id int32) (*domain.Exchange, error) {
	return r.get(ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1`, id)
}

func (r *exchangeRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Exchange, error) {
	return r.get(ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1 FOR UPDATE`, id)
}

func (r *exchangeRepository) get(ctx context.Context, query string, id int32) (*domain.Exchange, error) {
	ex := &domain.Exchange{}
	err := scanExchange(conn(ctx, r.db).QueryRowContext(ctx, query, id), ex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUnknownExchange
	}
	if err != nil {
		return nil, err
	}
	return ex, nil
}

func (r *exchangeRepository) Update(ctx context.Context, ex *domain.Exchange) error {
	logger.EnterMethod("exchangeRepository.Update", "exchangeID", ex.ID, "status", ex.Status)

	query := `UPDATE exchanges SET status = $1, counterparty_id = $2, cancel_reason = $3, started_at = $4, ended_at = $5
	          WHERE id = $6`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, ex.Status, ex.CounterpartyID, ex.CancelReason, ex.StartedAt, ex.EndedAt, ex.ID)
	if err != nil {
		logger.ExitMethodWithError("exchangeRepository.Update", err, "exchangeID", ex.ID)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUnknownExchange
	}

	logger.ExitMethod("exchangeRepository.Update", "exchangeID", ex.ID)
	return nil
}

func (r *exchangeRepository) ListByUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Exchange, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + exchangeColumns + ` FROM exchanges WHERE (creator_id = $1 OR counterparty_id = $1)`

	args := []any{userID}
	argIdx := 2
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") AS sub"
	if err := conn(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	exchanges := []domain.Exchange{}
	for rows.Next() {
		var ex domain.Exchange
		if err := scanExchange(rows, &ex); err != nil {
			return nil, 0, err
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, count, rows.Err()
}

func (r *exchangeRepository) ListStale(ctx context.Context, status domain.ExchangeStatus, createdBefore time.Time, limit int32) ([]domain.Exchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM exchanges
	          WHERE status = $1 AND created_at < $2 ORDER BY id LIMIT $3`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, status, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exchanges := []domain.Exchange{}
	for rows.Next() {
		var ex domain.Exchange
		if err := scanExchange(rows, &ex); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, rows.Err()
}

func (r *exchangeRepository) ListCompletedIDs(ctx context.Context, afterID, limit int32) ([]int32, error) {
	query := `SELECT id FROM exchanges WHERE status = 'completed' AND id > $1 ORDER BY id LIMIT $2`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
