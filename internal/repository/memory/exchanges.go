package memory

import (
	"context"
	"sort"
	"time"

	"bobiz-backend/internal/domain"
)

type exchangeRepository struct{ s *Store }

func cloneExchange(ex domain.Exchange) domain.Exchange {
	ex.CounterpartyID = copyInt32(ex.CounterpartyID)
	ex.Origin = domain.ExchangeOrigin{EventID: copyInt32(ex.Origin.EventID), NeedID: copyInt32(ex.Origin.NeedID)}
	ex.StartedAt = copyTime(ex.StartedAt)
	ex.EndedAt = copyTime(ex.EndedAt)
	return ex
}

func (r *exchangeRepository) Create(ctx context.Context, ex *domain.Exchange) error {
	return r.s.view(ctx, func(st *state) error {
		st.seq.exchange++
		ex.ID = st.seq.exchange
		if ex.CreatedAt.IsZero() {
			ex.CreatedAt = time.Now().UTC()
		}
		st.exchanges[ex.ID] = cloneExchange(*ex)
		return nil
	})
}

func (r *exchangeRepository) GetByID(ctx context.Context, id int32) (*domain.Exchange, error) {
	var ex domain.Exchange
	err := r.s.view(ctx, func(st *state) error {
		row, ok := st.exchanges[id]
		if !ok {
			return domain.ErrUnknownExchange
		}
		ex = cloneExchange(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

func (r *exchangeRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Exchange, error) {
	return r.GetByID(ctx, id)
}

func (r *exchangeRepository) Update(ctx context.Context, ex *domain.Exchange) error {
	return r.s.view(ctx, func(st *state) error {
		row, ok := st.exchanges[ex.ID]
		if !ok {
			return domain.ErrUnknownExchange
		}
		row.Status = ex.Status
		row.CounterpartyID = ex.CounterpartyID
		row.CancelReason = ex.CancelReason
		row.StartedAt = ex.StartedAt
		row.EndedAt = ex.EndedAt
		st.exchanges[ex.ID] = cloneExchange(row)
		return nil
	})
}

func (r *exchangeRepository) ListByUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Exchange, int32, error) {
	var matched []domain.Exchange
	err := r.s.view(ctx, func(st *state) error {
		for _, ex := range st.exchanges {
			if !ex.HasParticipant(userID) {
				continue
			}
			if status != "" && string(ex.Status) != status {
				continue
			}
			matched = append(matched, cloneExchange(ex))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int32(len(matched))
	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []domain.Exchange{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *exchangeRepository) ListStale(ctx context.Context, status domain.ExchangeStatus, createdBefore time.Time, limit int32) ([]domain.Exchange, error) {
	stale := []domain.Exchange{}
	err := r.s.view(ctx, func(st *state) error {
		for _, ex := range st.exchanges {
			if ex.Status == status && ex.CreatedAt.Before(createdBefore) {
				stale = append(stale, cloneExchange(ex))
			}
		}
		return nil
	})
	sort.Slice(stale, func(i, j int) bool { return stale[i].ID < stale[j].ID })
	if int32(len(stale)) > limit {
		stale = stale[:limit]
	}
	return stale, err
}

func (r *exchangeRepository) ListCompletedIDs(ctx context.Context, afterID, limit int32) ([]int32, error) {
	var ids []int32
	err := r.s.view(ctx, func(st *state) error {
		for id, ex := range st.exchanges {
			if ex.Status == domain.ExchangeStatusCompleted && id > afterID {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if int32(len(ids)) > limit {
		ids = ids[:limit]
	}
	return ids, err
}
