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

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, ev *domain.Event) error {
	query := `INSERT INTO events (organizer_id, title, status, starts_at, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	ev.CreatedAt = time.Now().UTC()
	return conn(ctx, r.db).QueryRowContext(ctx, query, ev.OrganizerID, ev.Title, ev.Status, ev.StartsAt, ev.CreatedAt).Scan(&ev.ID)
}

const eventColumns = `id, organizer_id, title, status, starts_at, created_at`

func (r *eventRepository) GetByID(ctx context.Context, id int32) (*domain.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *eventRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Event, error) {
	logger.DatabaseCall("SELECT FOR UPDATE", "events", "eventID", id)
	ev, err := r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	logger.DatabaseResult("SELECT FOR UPDATE", 1, ignoreUnknown(err), "eventID", id)
	return ev, err
}

func (r *eventRepository) GetForShare(ctx context.Context, id int32) (*domain.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR SHARE`, id)
}

func (r *eventRepository) get(ctx context.Context, query string, id int32) (*domain.Event, error) {
	ev := &domain.Event{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&ev.ID, &ev.OrganizerID, &ev.Title, &ev.Status, &ev.StartsAt, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUnknownEvent
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id int32, status domain.EventStatus) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE events SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUnknownEvent
	}
	return nil
}
