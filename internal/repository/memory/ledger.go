package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bobiz-backend/internal/domain"
)

type ledgerRepository struct{ s *Store }

func (r *ledgerRepository) CreateEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	return r.s.view(ctx, func(st *state) error {
		for _, e := range entries {
			if _, ok := st.exchanges[e.ExchangeID]; !ok {
				return fmt.Errorf("%w: %d", domain.ErrUnknownExchange, e.ExchangeID)
			}
			for _, existing := range st.entries {
				if existing.ExchangeID == e.ExchangeID && existing.UserID == e.UserID {
					return domain.ErrLedgerPostingConflict
				}
			}
		}
		now := time.Now().UTC()
		for i := range entries {
			st.seq.entry++
			entries[i].ID = st.seq.entry
			entries[i].CreatedAt = now
			st.entries = append(st.entries, entries[i])
		}
		return nil
	})
}

func (r *ledgerRepository) HasEntries(ctx context.Context, exchangeID int32) (bool, error) {
	found := false
	err := r.s.view(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.ExchangeID == exchangeID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID int32) (int64, error) {
	var balance int64
	err := r.s.view(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.UserID == userID {
				balance += int64(e.Amount)
			}
		}
		return nil
	})
	return balance, err
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID, afterID, limit int32) ([]domain.LedgerEntry, error) {
	var page []domain.LedgerEntry
	err := r.s.view(ctx, func(st *state) error {
		// entries are appended in id order
		for _, e := range st.entries {
			if e.UserID != userID || e.ID <= afterID {
				continue
			}
			page = append(page, e)
			if int32(len(page)) == limit {
				break
			}
		}
		return nil
	})
	return page, err
}

func (r *ledgerRepository) ListByExchange(ctx context.Context, exchangeID int32) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := r.s.view(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.ExchangeID == exchangeID {
				entries = append(entries, e)
			}
		}
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, err
}
