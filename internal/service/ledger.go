package service

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/metrics"
	"bobiz-backend/internal/repository"
)

type ledgerService struct {
	tx         repository.Transactor
	exchanges  repository.ExchangeRepository
	ledgerRepo repository.LedgerRepository
	pageSize   int32
}

func NewLedgerService(
	tx repository.Transactor,
	exchanges repository.ExchangeRepository,
	ledgerRepo repository.LedgerRepository,
	pageSize int32,
) LedgerService {
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}
	return &ledgerService{
		tx:         tx,
		exchanges:  exchanges,
		ledgerRepo: ledgerRepo,
		pageSize:   pageSize,
	}
}

// Post appends one batch of entries for an exchange. An exchange is posted at
// most once; the exchange row lock serializes concurrent attempts and the
// (exchange_id, user_id) constraint backs it up.
func (s *ledgerService) Post(ctx context.Context, exchangeID int32, postings []domain.Posting) ([]domain.LedgerEntry, error) {
	logger.EnterMethod("ledgerService.Post", "exchangeID", exchangeID, "postings", len(postings))

	if err := validatePostings(postings); err != nil {
		metrics.LedgerBatchesTotal.WithLabelValues(metrics.Outcome(err)).Inc()
		logger.ExitMethodRejected("ledgerService.Post", err, "exchangeID", exchangeID)
		return nil, err
	}

	var entries []domain.LedgerEntry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.exchanges.GetForUpdate(ctx, exchangeID); err != nil {
			return err
		}
		posted, err := s.ledgerRepo.HasEntries(ctx, exchangeID)
		if err != nil {
			return err
		}
		if posted {
			return fmt.Errorf("%w: exchange %d", domain.ErrLedgerPostingConflict, exchangeID)
		}

		batchID := uuid.NewString()
		entries = make([]domain.LedgerEntry, 0, len(postings))
		for _, p := range postings {
			entries = append(entries, domain.LedgerEntry{
				BatchID:    batchID,
				UserID:     p.UserID,
				ExchangeID: exchangeID,
				Amount:     p.Amount,
				Reason:     p.Reason,
			})
		}
		return s.ledgerRepo.CreateEntries(ctx, entries)
	})
	metrics.LedgerBatchesTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		logger.ExitMethodRejected("ledgerService.Post", err, "exchangeID", exchangeID)
		return nil, err
	}

	logger.ExitMethod("ledgerService.Post", "exchangeID", exchangeID, "batchID", entries[0].BatchID)
	return entries, nil
}

func validatePostings(postings []domain.Posting) error {
	if len(postings) == 0 {
		return fmt.Errorf("%w: empty batch", domain.ErrInvalidPosting)
	}
	seen := make(map[int32]bool, len(postings))
	for _, p := range postings {
		if !p.Reason.Valid() {
			return fmt.Errorf("%w: reason %q", domain.ErrInvalidPosting, p.Reason)
		}
		if seen[p.UserID] {
			return fmt.Errorf("%w: user %d posted twice", domain.ErrInvalidPosting, p.UserID)
		}
		seen[p.UserID] = true
	}
	return nil
}

func (s *ledgerService) Balance(ctx context.Context, userID int32) (int64, error) {
	return s.ledgerRepo.GetBalance(ctx, userID)
}

func (s *ledgerService) History(ctx context.Context, userID int32) iter.Seq2[domain.LedgerEntry, error] {
	return func(yield func(domain.LedgerEntry, error) bool) {
		var afterID int32
		for {
			page, err := s.ledgerRepo.ListByUser(ctx, userID, afterID, s.pageSize)
			if err != nil {
				yield(domain.LedgerEntry{}, err)
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
				afterID = e.ID
			}
			if int32(len(page)) < s.pageSize {
				return
			}
		}
	}
}

func (s *ledgerService) Page(ctx context.Context, userID, afterID, limit int32) ([]domain.LedgerEntry, int32, error) {
	if limit < 1 || limit > maxLedgerPage {
		return nil, 0, fmt.Errorf("%w: page limit %d", domain.ErrInvalidQuantity, limit)
	}
	// one extra row tells whether another page follows
	entries, err := s.ledgerRepo.ListByUser(ctx, userID, afterID, limit+1)
	if err != nil {
		return nil, 0, err
	}
	if int32(len(entries)) <= limit {
		return entries, 0, nil
	}
	entries = entries[:limit]
	return entries, entries[limit-1].ID, nil
}

func (s *ledgerService) Entries(ctx context.Context, exchangeID int32) ([]domain.LedgerEntry, error) {
	return s.ledgerRepo.ListByExchange(ctx, exchangeID)
}

func (s *ledgerService) Audit(ctx context.Context, exchangeID int32) (*domain.LedgerAudit, error) {
	entries, err := s.ledgerRepo.ListByExchange(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	audit := &domain.LedgerAudit{ExchangeID: exchangeID, Entries: len(entries)}
	for _, e := range entries {
		audit.Sum += int64(e.Amount)
	}
	return audit, nil
}
