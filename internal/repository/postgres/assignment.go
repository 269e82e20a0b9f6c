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

type assignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

const assignmentColumns = `id, need_id, participant_id, quantity, exchange_id, created_at`

func (r *assignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	logger.EnterMethod("assignmentRepository.Create", "needID", a.NeedID, "participantID", a.ParticipantID)

	query := `INSERT INTO assignments (need_id, participant_id, quantity, exchange_id, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	a.CreatedAt = time.Now().UTC()
	err := conn(ctx, r.db).QueryRowContext(ctx, query, a.NeedID, a.ParticipantID, a.Quantity, a.ExchangeID, a.CreatedAt).Scan(&a.ID)
	if constraint, ok := uniqueViolation(err); ok && constraint == "assignments_need_participant_key" {
		err = domain.ErrDuplicateAssignment
	}
	if err != nil {
		logger.ExitMethodWithError("assignmentRepository.Create", err, "needID", a.NeedID)
		return err
	}

	logger.ExitMethod("assignmentRepository.Create", "assignmentID", a.ID)
	return nil
}

func (r *assignmentRepository) Get(ctx context.Context, needID, participantID int32) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE need_id = $1 AND participant_id = $2`
	return r.scanOne(conn(ctx, r.db).QueryRowContext(ctx, query, needID, participantID))
}

func (r *assignmentRepository) GetByExchange(ctx context.Context, exchangeID int32) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE exchange_id = $1`
	return r.scanOne(conn(ctx, r.db).QueryRowContext(ctx, query, exchangeID))
}

func (r *assignmentRepository) scanOne(row *sql.Row) (*domain.Assignment, error) {
	a := &domain.Assignment{}
	err := row.Scan(&a.ID, &a.NeedID, &a.ParticipantID, &a.Quantity, &a.ExchangeID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *assignmentRepository) ListByNeed(ctx context.Context, needID int32) ([]domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE need_id = $1 ORDER BY id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, needID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []domain.Assignment{}
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.NeedID, &a.ParticipantID, &a.Quantity, &a.ExchangeID, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *assignmentRepository) SumQuantity(ctx context.Context, needID int32) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(quantity), 0) FROM assignments WHERE need_id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, needID).Scan(&total)
	return total, err
}

func (r *assignmentRepository) SumQuantityByEvent(ctx context.Context, eventID int32) (map[int32]int64, error) {
	query := `SELECT a.need_id, SUM(a.quantity)
	          FROM assignments a JOIN needs n ON n.id = a.need_id
	          WHERE n.event_id = $1
	          GROUP BY a.need_id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[int32]int64)
	for rows.Next() {
		var (
			needID int32
			total  int64
		)
		if err := rows.Scan(&needID, &total); err != nil {
			return nil, err
		}
		totals[needID] = total
	}
	return totals, rows.Err()
}

func (r *assignmentRepository) Delete(ctx context.Context, needID, participantID int32) (bool, error) {
	logger.DatabaseCall("DELETE", "assignments", "needID", needID, "participantID", participantID)
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM assignments WHERE need_id = $1 AND participant_id = $2`, needID, participantID)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err, "needID", needID)
		return false, err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("DELETE", rows, err, "needID", needID)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
