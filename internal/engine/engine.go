// Package engine is the facade over categorization, fraud scoring and
// alerting. Collaborators (API, worker) call it; it owns the wiring between
// the pure core packages and the I/O components.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/opensource-finance/harrier/internal/alerts"
	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/categorize"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/fraud"
	"github.com/opensource-finance/harrier/internal/history"
	"github.com/opensource-finance/harrier/internal/merchant"
	"github.com/opensource-finance/harrier/internal/profile"
)

// Engine composes the categorizer, scorer and alert manager behind one
// surface. Safe for concurrent use; per-transaction work is pure apart from
// the learning store, merchant directory and alert collections, which are
// internally synchronized.
type Engine struct {
	cfg domain.EngineConfig

	directory   merchant.Store
	fraudRules  *catalog.FraudCatalog
	catRules    *catalog.CategoryCatalog
	categorizer *categorize.Categorizer
	scorer      *fraud.Scorer
	alerts      *alerts.Manager
	history     *history.Service

	repo   domain.Repository
	bus    domain.EventBus
	logger *slog.Logger
}

// Options collects the engine's collaborators.
type Options struct {
	Config     domain.EngineConfig
	Directory  merchant.Store
	FraudRules *catalog.FraudCatalog
	CatRules   *catalog.CategoryCatalog
	Learning   *categorize.LearningStore
	Detector   fraud.Options
	Alerts     *alerts.Manager
	History    *history.Service
	Repo       domain.Repository
	Bus        domain.EventBus
	Logger     *slog.Logger
}

// New wires an engine from its collaborators. Repo and Bus may be nil for
// in-memory use; the scorer's alert and elevated hooks are bound here.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Learning == nil {
		opts.Learning = categorize.NewLearningStore()
	}

	e := &Engine{
		cfg:        opts.Config,
		directory:  opts.Directory,
		fraudRules: opts.FraudRules,
		catRules:   opts.CatRules,
		alerts:     opts.Alerts,
		history:    opts.History,
		repo:       opts.Repo,
		bus:        opts.Bus,
		logger:     opts.Logger,
	}
	e.categorizer = categorize.New(opts.Directory, opts.CatRules, opts.Learning, opts.Config.LearnThreshold)
	e.scorer = fraud.NewScorer(opts.FraudRules, opts.Detector, opts.Config, fraud.Hooks{
		OnAlert:    e.onAlert,
		OnElevated: e.onElevated,
	})
	return e
}

// Categorize assigns a category to a transaction.
func (e *Engine) Categorize(tx *domain.Transaction) domain.Category {
	return e.categorizer.Categorize(tx)
}

// Suggestions returns the top candidate categories for a transaction.
func (e *Engine) Suggestions(tx *domain.Transaction) []domain.CategoryResult {
	return e.categorizer.Suggestions(tx)
}

// LearnFromCorrection records a user correction. A merchant newly appended
// to the directory is also persisted when a repository is configured.
func (e *Engine) LearnFromCorrection(ctx context.Context, tx *domain.Transaction, correct domain.Category) {
	hadMerchant := tx.Merchant != nil && tx.Merchant.Name != "" && e.directory.Has(tx.Merchant.Name)

	e.categorizer.LearnFromCorrection(tx, correct)

	if e.repo == nil || hadMerchant || tx.Merchant == nil || tx.Merchant.Name == "" {
		return
	}
	if rec, ok := e.directory.Match(tx.Merchant.Name); ok {
		if err := e.repo.SaveMerchant(ctx, rec); err != nil {
			e.logger.Error("failed to persist learned merchant",
				"merchant", rec.Name,
				"error", err,
			)
		}
	}
}

// Analyze runs the full pipeline for one transaction: categorize, build the
// behavioral profile from recent history, score, persist and publish. Alert
// creation happens synchronously inside scoring when the score warrants it.
func (e *Engine) Analyze(ctx context.Context, tx *domain.Transaction, account *domain.Account) (domain.RiskResult, error) {
	if tx.Category == "" || tx.Category == domain.CategoryUnknown {
		tx.Category = e.Categorize(tx)
		e.publish(ctx, domain.TopicTransactionCategorized, TransactionCategorizedEvent{
			TransactionID: tx.ID,
			AccountID:     tx.AccountID,
			Category:      tx.Category,
		})
	}

	var recent []domain.Transaction
	if e.history != nil {
		var err error
		recent, err = e.history.Recent(ctx, tx.AccountID)
		if err != nil {
			return domain.RiskResult{}, err
		}
		e.history.CountAnalysis(ctx, tx.AccountID)
	}

	fc := &fraud.Context{
		Transaction: tx,
		Account:     account,
		Recent:      recent,
		Profile:     profile.Build(recent),
		HomeCountry: e.homeCountry(account),
		WindowDays:  e.windowDays(),
	}
	result := e.scorer.Score(ctx, fc)

	score := result.Score
	tx.FraudScore = &score
	if e.repo != nil {
		if err := e.repo.SaveTransaction(ctx, tx); err != nil {
			e.logger.Error("failed to persist analyzed transaction",
				"tx_id", tx.ID,
				"account_id", tx.AccountID,
				"error", err,
			)
		} else if e.history != nil {
			e.history.Invalidate(ctx, tx.AccountID)
		}
	}

	e.publish(ctx, domain.TopicRiskScored, RiskScoredEvent{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Score:         result.Score,
		Category:      tx.Category,
		Triggers:      result.Triggers,
		RuleScores:    result.RuleScores,
	})
	return result, nil
}

// ActiveAlertsCount counts open alerts across all of a user's accounts.
func (e *Engine) ActiveAlertsCount(userID string) int {
	return e.alerts.ActiveCountByUser(userID)
}

// AccountAlerts returns every alert for an account in creation order.
func (e *Engine) AccountAlerts(accountID string) []domain.FraudAlert {
	return e.alerts.ByAccount(accountID)
}

// ResolveAlert transitions an open alert to resolved.
func (e *Engine) ResolveAlert(ctx context.Context, alertID, resolution string) error {
	return e.alerts.Resolve(ctx, alertID, resolution)
}

// FraudRules returns a snapshot of the fraud catalog.
func (e *Engine) FraudRules() []*domain.FraudRule {
	return e.fraudRules.All()
}

// UpdateFraudRule applies a partial update and persists the result when a
// repository is configured.
func (e *Engine) UpdateFraudRule(ctx context.Context, id string, upd domain.FraudRuleUpdate) (*domain.FraudRule, error) {
	rule, err := e.fraudRules.Update(id, upd)
	if err != nil {
		return nil, err
	}
	if e.repo != nil {
		if err := e.repo.SaveFraudRule(ctx, rule); err != nil {
			e.logger.Error("failed to persist fraud rule update",
				"rule_id", id,
				"error", err,
			)
		}
	}
	e.logger.Info("fraud rule updated", "rule_id", id)
	return rule, nil
}

// ReloadFraudRules replaces the fraud catalog from the repository, falling
// back to the built-in defaults when the repository holds none.
func (e *Engine) ReloadFraudRules(ctx context.Context) (int, error) {
	rules := catalog.DefaultFraudRules()
	if e.repo != nil {
		stored, err := e.repo.ListFraudRules(ctx)
		if err != nil {
			return 0, err
		}
		if len(stored) > 0 {
			rules = stored
		}
	}
	e.fraudRules.Reload(rules)
	e.logger.Info("fraud rules reloaded", "count", len(rules))
	return len(rules), nil
}

// Stats reports the categorization counters.
func (e *Engine) Stats() domain.CategorizationStats {
	return e.categorizer.Stats(e.catRules.Count())
}

// onAlert runs synchronously from scoring, strictly above the alert
// threshold.
func (e *Engine) onAlert(ctx context.Context, fc *fraud.Context, result domain.RiskResult) {
	alert := e.alerts.Create(ctx, fc.Transaction, fc.Account, result)
	e.publish(ctx, domain.TopicAlertCreated, AlertCreatedEvent{
		AlertID:       alert.ID,
		TransactionID: alert.TransactionID,
		AccountID:     alert.AccountID,
		UserID:        alert.UserID,
		Score:         alert.Score,
		Severity:      alert.Severity,
		Triggers:      alert.Triggers,
	})
}

// onElevated publishes the observability event for scores between the
// elevated and alert thresholds. No alert is created.
func (e *Engine) onElevated(ctx context.Context, fc *fraud.Context, result domain.RiskResult) {
	e.publish(ctx, domain.TopicRiskElevated, RiskElevatedEvent{
		TransactionID: result.TransactionID,
		AccountID:     result.AccountID,
		Score:         result.Score,
		Triggers:      result.Triggers,
	})
}

// publish sends an event, logging failures. Event delivery is best-effort;
// scoring results never depend on it.
func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if e.bus == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("failed to marshal event", "topic", topic, "error", err)
		return
	}
	if err := e.bus.Publish(ctx, topic, payload); err != nil {
		e.logger.Error("failed to publish event", "topic", topic, "error", err)
	}
}

func (e *Engine) homeCountry(account *domain.Account) string {
	if account != nil && account.HomeCountry != "" {
		return account.HomeCountry
	}
	return e.cfg.HomeCountry
}

func (e *Engine) windowDays() int {
	if e.history != nil {
		return e.history.WindowDays()
	}
	if e.cfg.HistoryDays > 0 {
		return e.cfg.HistoryDays
	}
	return 30
}
