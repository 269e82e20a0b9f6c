package memory

import (
	"context"
	"sort"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/repository"
)

type eventRepository struct{ s *Store }

func (r *eventRepository) Create(ctx context.Context, ev *domain.Event) error {
	return r.s.view(ctx, func(st *state) error {
		st.seq.event++
		ev.ID = st.seq.event
		ev.CreatedAt = time.Now().UTC()
		row := *ev
		row.StartsAt = copyTime(ev.StartsAt)
		st.events[ev.ID] = row
		return nil
	})
}

func (r *eventRepository) GetByID(ctx context.Context, id int32) (*domain.Event, error) {
	var ev domain.Event
	err := r.s.view(ctx, func(st *state) error {
		row, ok := st.events[id]
		if !ok {
			return domain.ErrUnknownEvent
		}
		ev = row
		ev.StartsAt = copyTime(row.StartsAt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// GetForUpdate and GetForShare need no row lock: transactions are already serialized.
func (r *eventRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *eventRepository) GetForShare(ctx context.Context, id int32) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id int32, status domain.EventStatus) error {
	return r.s.view(ctx, func(st *state) error {
		row, ok := st.events[id]
		if !ok {
			return domain.ErrUnknownEvent
		}
		row.Status = status
		st.events[id] = row
		return nil
	})
}

type needRepository struct{ s *Store }

func (r *needRepository) Create(ctx context.Context, n *domain.Need) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.events[n.EventID]; !ok {
			return domain.ErrUnknownEvent
		}
		st.seq.need++
		n.ID = st.seq.need
		n.CreatedAt = time.Now().UTC()
		st.needs[n.ID] = *n
		return nil
	})
}

func (r *needRepository) GetByID(ctx context.Context, id int32) (*domain.Need, error) {
	var n domain.Need
	err := r.s.view(ctx, func(st *state) error {
		row, ok := st.needs[id]
		if !ok {
			return domain.ErrUnknownNeed
		}
		n = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetForUpdate needs no row lock: transactions are already serialized.
func (r *needRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Need, error) {
	return r.GetByID(ctx, id)
}

func (r *needRepository) ListByEvent(ctx context.Context, eventID int32) ([]domain.Need, error) {
	needs := []domain.Need{}
	err := r.s.view(ctx, func(st *state) error {
		for _, n := range st.needs {
			if n.EventID == eventID {
				needs = append(needs, n)
			}
		}
		return nil
	})
	sort.Slice(needs, func(i, j int) bool { return needs[i].ID < needs[j].ID })
	return needs, err
}

type assignmentRepository struct{ s *Store }

func (r *assignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.needs[a.NeedID]; !ok {
			return domain.ErrUnknownNeed
		}
		for _, existing := range st.assignments {
			if existing.NeedID == a.NeedID && existing.ParticipantID == a.ParticipantID {
				return domain.ErrDuplicateAssignment
			}
		}
		st.seq.assignment++
		a.ID = st.seq.assignment
		a.CreatedAt = time.Now().UTC()
		st.assignments[a.ID] = *a
		return nil
	})
}

func (r *assignmentRepository) find(ctx context.Context, match func(domain.Assignment) bool) (*domain.Assignment, error) {
	var found *domain.Assignment
	err := r.s.view(ctx, func(st *state) error {
		for _, a := range st.assignments {
			if match(a) {
				row := a
				found = &row
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r *assignmentRepository) Get(ctx context.Context, needID, participantID int32) (*domain.Assignment, error) {
	return r.find(ctx, func(a domain.Assignment) bool {
		return a.NeedID == needID && a.ParticipantID == participantID
	})
}

func (r *assignmentRepository) GetByExchange(ctx context.Context, exchangeID int32) (*domain.Assignment, error) {
	return r.find(ctx, func(a domain.Assignment) bool { return a.ExchangeID == exchangeID })
}

func (r *assignmentRepository) ListByNeed(ctx context.Context, needID int32) ([]domain.Assignment, error) {
	assignments := []domain.Assignment{}
	err := r.s.view(ctx, func(st *state) error {
		for _, a := range st.assignments {
			if a.NeedID == needID {
				assignments = append(assignments, a)
			}
		}
		return nil
	})
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	return assignments, err
}

func (r *assignmentRepository) SumQuantity(ctx context.Context, needID int32) (int64, error) {
	var total int64
	err := r.s.view(ctx, func(st *state) error {
		for _, a := range st.assignments {
			if a.NeedID == needID {
				total += int64(a.Quantity)
			}
		}
		return nil
	})
	return total, err
}

func (r *assignmentRepository) SumQuantityByEvent(ctx context.Context, eventID int32) (map[int32]int64, error) {
	totals := make(map[int32]int64)
	err := r.s.view(ctx, func(st *state) error {
		for _, a := range st.assignments {
			if n, ok := st.needs[a.NeedID]; ok && n.EventID == eventID {
				totals[a.NeedID] += int64(a.Quantity)
			}
		}
		return nil
	})
	return totals, err
}

func (r *assignmentRepository) Delete(ctx context.Context, needID, participantID int32) (bool, error) {
	deleted := false
	err := r.s.view(ctx, func(st *state) error {
		for id, a := range st.assignments {
			if a.NeedID == needID && a.ParticipantID == participantID {
				delete(st.assignments, id)
				deleted = true
				return nil
			}
		}
		return nil
	})
	return deleted, err
}
