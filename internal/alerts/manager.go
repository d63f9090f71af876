// Package alerts manages the fraud alert lifecycle: creation, severity
// classification, per-account storage and resolution.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/harrier/internal/domain"
)

var (
	// ErrAlertNotFound is returned when a resolution names an unknown alert.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrAlertResolved is returned when resolving an already-resolved alert.
	// Resolution is terminal; alerts are never re-opened.
	ErrAlertResolved = errors.New("alert already resolved")
)

// Manager owns the alert collections. Alerts are kept per account in
// creation order and indexed globally by ID. Writes go through one mutex;
// resolved alerts are never removed.
type Manager struct {
	mu        sync.RWMutex
	byAccount map[string][]*domain.FraudAlert
	byID      map[string]*domain.FraudAlert

	repo                  domain.Repository
	logger                *slog.Logger
	manualReviewThreshold int
	now                   func() time.Time
}

// NewManager creates an alert manager. repo may be nil, in which case alerts
// live in memory only.
func NewManager(repo domain.Repository, logger *slog.Logger, manualReviewThreshold int) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		byAccount:             make(map[string][]*domain.FraudAlert),
		byID:                  make(map[string]*domain.FraudAlert),
		repo:                  repo,
		logger:                logger,
		manualReviewThreshold: manualReviewThreshold,
		now:                   time.Now,
	}
}

// Create builds and stores an alert for a scored transaction. Severity is a
// step function of the score; scores above the manual-review threshold are
// flagged for review. Persistence failures are logged, not propagated: the
// in-memory alert is authoritative for the running process.
func (m *Manager) Create(ctx context.Context, tx *domain.Transaction, account *domain.Account, result domain.RiskResult) *domain.FraudAlert {
	alert := &domain.FraudAlert{
		ID:            uuid.New().String(),
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Type:          "fraud_risk",
		Severity:      SeverityForScore(result.Score),
		Score:         result.Score,
		Description:   fmt.Sprintf("Transaction %s scored %d: %s", tx.ID, result.Score, tx.Description),
		Triggers:      result.Triggers,
		CreatedAt:     m.now().UTC(),
		Status:        domain.AlertStatusOpen,
		Actions: domain.AlertActions{
			NotificationSent:     true,
			ManualReviewRequired: result.Score > m.manualReviewThreshold,
		},
	}
	if account != nil {
		alert.UserID = account.UserID
	}

	m.mu.Lock()
	m.byAccount[alert.AccountID] = append(m.byAccount[alert.AccountID], alert)
	m.byID[alert.ID] = alert
	m.mu.Unlock()

	if m.repo != nil {
		if err := m.repo.SaveAlert(ctx, alert); err != nil {
			m.logger.Error("failed to persist alert",
				"alert_id", alert.ID,
				"account_id", alert.AccountID,
				"error", err,
			)
		}
	}

	m.logger.Warn("fraud alert created",
		"alert_id", alert.ID,
		"tx_id", alert.TransactionID,
		"account_id", alert.AccountID,
		"score", alert.Score,
		"severity", alert.Severity,
		"triggers", alert.Triggers,
	)
	return alert
}

// Resolve transitions an open alert to resolved, recording the resolution
// text and timestamp. Unknown IDs return ErrAlertNotFound; repeat
// resolutions return ErrAlertResolved.
func (m *Manager) Resolve(ctx context.Context, alertID, resolution string) error {
	m.mu.Lock()
	alert, ok := m.byID[alertID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlertNotFound, alertID)
	}
	if alert.Status == domain.AlertStatusResolved {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlertResolved, alertID)
	}

	resolvedAt := m.now().UTC()
	alert.Status = domain.AlertStatusResolved
	alert.Resolution = resolution
	alert.ResolvedAt = &resolvedAt
	cp := *alert
	m.mu.Unlock()

	if m.repo != nil {
		if err := m.repo.UpdateAlert(ctx, &cp); err != nil {
			m.logger.Error("failed to persist alert resolution",
				"alert_id", alertID,
				"error", err,
			)
		}
	}

	m.logger.Info("alert resolved", "alert_id", alertID, "resolution", resolution)
	return nil
}

// ByAccount returns every alert for an account, open and resolved, in
// creation order.
func (m *Manager) ByAccount(accountID string) []domain.FraudAlert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.byAccount[accountID]
	out := make([]domain.FraudAlert, 0, len(list))
	for _, a := range list {
		out = append(out, *a)
	}
	return out
}

// Get returns a copy of an alert by ID.
func (m *Manager) Get(alertID string) (*domain.FraudAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alert, ok := m.byID[alertID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, alertID)
	}
	cp := *alert
	return &cp, nil
}

// ActiveCountByUser counts open alerts across every account belonging to a
// user.
func (m *Manager) ActiveCountByUser(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, list := range m.byAccount {
		for _, a := range list {
			if a.UserID == userID && a.Status == domain.AlertStatusOpen {
				count++
			}
		}
	}
	return count
}

// SeverityForScore maps a composite score to an alert severity.
func SeverityForScore(score int) domain.Severity {
	switch {
	case score >= 90:
		return domain.SeverityCritical
	case score >= 80:
		return domain.SeverityHigh
	case score >= 60:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
