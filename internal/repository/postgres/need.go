package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/repository"
)

type needRepository struct {
	db *sql.DB
}

func NewNeedRepository(db *sql.DB) repository.NeedRepository {
	return &needRepository{db: db}
}

const needColumns = `id, event_id, label, category, requested_quantity, urgent, created_at`

func (r *needRepository) Create(ctx context.Context, n *domain.Need) error {
	query := `INSERT INTO needs (event_id, label, category, requested_quantity, urgent, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	n.CreatedAt = time.Now().UTC()
	return conn(ctx, r.db).QueryRowContext(ctx, query, n.EventID, n.Label, n.Category, n.RequestedQuantity, n.Urgent, n.CreatedAt).Scan(&n.ID)
}

func (r *needRepository) GetByID(ctx context.Context, id int32) (*domain.Need, error) {
	return r.get(ctx, `SELECT `+needColumns+` FROM needs WHERE id = $1`, id)
}

func (r *needRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Need, error) {
	logger.DatabaseCall("SELECT FOR UPDATE", "needs", "needID", id)
	n, err := r.get(ctx, `SELECT `+needColumns+` FROM needs WHERE id = $1 FOR UPDATE`, id)
	logger.DatabaseResult("SELECT FOR UPDATE", 1, ignoreUnknown(err), "needID", id)
	return n, err
}

func (r *needRepository) get(ctx context.Context, query string, id int32) (*domain.Need, error) {
	n := &domain.Need{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&n.ID, &n.EventID, &n.Label, &n.Category, &n.RequestedQuantity, &n.Urgent, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUnknownNeed
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *needRepository) ListByEvent(ctx context.Context, eventID int32) ([]domain.Need, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT `+needColumns+` FROM needs WHERE event_id = $1 ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	needs := []domain.Need{}
	for rows.Next() {
		var n domain.Need
		if err := rows.Scan(&n.ID, &n.EventID, &n.Label, &n.Category, &n.RequestedQuantity, &n.Urgent, &n.CreatedAt); err != nil {
			return nil, err
		}
		needs = append(needs, n)
	}
	return needs, rows.Err()
}

// ignoreUnknown keeps lookup misses out of the error-level database log.
func ignoreUnknown(err error) error {
	if errors.Is(err, domain.ErrUnknownNeed) || errors.Is(err, domain.ErrUnknownExchange) || errors.Is(err, domain.ErrUnknownEvent) {
		return nil
	}
	return err
}
