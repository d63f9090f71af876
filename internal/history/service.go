// Package history provides the bounded recent-transaction window the engine
// builds behavioral profiles from.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// cacheTTL is deliberately short: the window only needs to be fresh enough
// that a burst of analyses for one account does not hammer the repository.
const cacheTTL = 30 * time.Second

// rateWindow is the sliding window for the per-account analysis counter.
const rateWindow = time.Minute

// Service fetches an account's recent transactions, caching the window
// briefly between calls.
type Service struct {
	repo   domain.Repository
	cache  domain.Cache
	logger *slog.Logger
	days   int
	now    func() time.Time
}

// NewService creates a history service over the given repository. cache may
// be nil to disable window caching. days bounds the window length.
func NewService(repo domain.Repository, cache domain.Cache, logger *slog.Logger, days int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = 30
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		days:   days,
		now:    time.Now,
	}
}

// WindowDays returns the configured window length.
func (s *Service) WindowDays() int { return s.days }

// Recent returns the account's transactions inside the window, ordered by
// date ascending. Cache failures degrade to a repository read; they are
// logged and never surfaced.
func (s *Service) Recent(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	key := windowKey(accountID)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Warn("history cache read failed", "account_id", accountID, "error", err)
		} else if raw != nil {
			var cached []domain.Transaction
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			s.logger.Warn("discarding corrupt history cache entry", "account_id", accountID)
		}
	}

	since := s.now().AddDate(0, 0, -s.days)
	txs, err := s.repo.GetTransactionsByAccount(ctx, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("loading recent transactions for account %s: %w", accountID, err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(txs); err == nil {
			if err := s.cache.Set(ctx, key, raw, cacheTTL); err != nil {
				s.logger.Warn("history cache write failed", "account_id", accountID, "error", err)
			}
		}
	}
	return txs, nil
}

// Invalidate drops the cached window for an account. Called after a new
// transaction is saved so the next analysis sees it.
func (s *Service) Invalidate(ctx context.Context, accountID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, windowKey(accountID)); err != nil {
		s.logger.Warn("history cache invalidation failed", "account_id", accountID, "error", err)
	}
}

// CountAnalysis bumps the per-account analysis counter and returns its new
// value within the rate window. Returns 0 when no cache is configured.
func (s *Service) CountAnalysis(ctx context.Context, accountID string) int64 {
	if s.cache == nil {
		return 0
	}
	n, err := s.cache.IncrementCounter(ctx, "rate:"+accountID, rateWindow)
	if err != nil {
		s.logger.Warn("analysis counter failed", "account_id", accountID, "error", err)
		return 0
	}
	return n
}

func windowKey(accountID string) string {
	return "history:" + accountID
}
