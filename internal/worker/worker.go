// Package worker provides async transaction processing from the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/engine"
	"github.com/opensource-finance/harrier/internal/repository"
)

// Worker consumes ingested transactions and drives them through the engine.
type Worker struct {
	bus    domain.EventBus
	repo   domain.Repository
	engine *engine.Engine
	logger *slog.Logger

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, eng *engine.Engine, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		engine: eng,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the ingestion topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicTransactionIngested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	w.logger.Info("worker started", "topic", domain.TopicTransactionIngested)
	return nil
}

// IngestMessage is the payload published to the ingestion topic. Account is
// optional; when absent the worker loads it from the repository.
type IngestMessage struct {
	Transaction domain.Transaction `json:"transaction"`
	Account     *domain.Account    `json:"account,omitempty"`
}

// handleMessage analyzes one ingested transaction. A bad message is logged
// and dropped; it never stops the subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var in IngestMessage
	if err := json.Unmarshal(msg.Payload, &in); err != nil {
		w.logger.Error("failed to parse ingest message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	tx := in.Transaction
	if tx.ID == "" || tx.AccountID == "" {
		w.logger.Error("ingest message missing transaction or account id",
			"message_id", msg.ID,
		)
		return nil
	}

	account := in.Account
	if account == nil && w.repo != nil {
		loaded, err := w.repo.GetAccount(ctx, tx.AccountID)
		switch {
		case err == nil:
			account = loaded
		case errors.Is(err, repository.ErrNotFound):
			// Score without account metadata; the engine falls back to the
			// configured home country.
		default:
			w.logger.Error("failed to load account",
				"account_id", tx.AccountID,
				"error", err,
			)
			return err
		}
	}

	result, err := w.engine.Analyze(ctx, &tx, account)
	if err != nil {
		w.logger.Error("analysis failed",
			"tx_id", tx.ID,
			"account_id", tx.AccountID,
			"error", err,
		)
		return err
	}

	w.logger.Info("transaction processed",
		"tx_id", tx.ID,
		"account_id", tx.AccountID,
		"category", tx.Category,
		"score", result.Score,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			w.logger.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	w.logger.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
