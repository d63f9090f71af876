package fraud

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/domain"
)

var tracer = otel.Tracer("harrier/fraud")

// Hooks are invoked synchronously from Score when the composite crosses the
// configured thresholds. Either hook may be nil.
type Hooks struct {
	// OnAlert fires when the composite score exceeds the alert threshold.
	OnAlert func(ctx context.Context, fc *Context, result domain.RiskResult)

	// OnElevated fires when the composite score exceeds the elevated
	// threshold but not the alert threshold. Observability only.
	OnElevated func(ctx context.Context, fc *Context, result domain.RiskResult)
}

// Scorer evaluates every enabled fraud rule against a context and combines
// the firing sub-scores into a weighted-average composite.
type Scorer struct {
	rules *catalog.FraudCatalog
	opts  Options
	hooks Hooks

	alertThreshold    int
	elevatedThreshold int
}

// NewScorer creates a scorer over the given catalog. Thresholds follow the
// engine configuration; hooks wire the alert and observability side effects.
func NewScorer(rules *catalog.FraudCatalog, opts Options, cfg domain.EngineConfig, hooks Hooks) *Scorer {
	return &Scorer{
		rules:             rules,
		opts:              opts,
		hooks:             hooks,
		alertThreshold:    cfg.AlertThreshold,
		elevatedThreshold: cfg.ElevatedThreshold,
	}
}

// Score runs every enabled rule and returns the composite risk result.
// The composite is the weighted average over firing rules only, so a single
// firing rule contributes its sub-score unweighted. Strictly above the alert
// threshold the alert hook runs synchronously before Score returns; strictly
// above the elevated threshold (but not alerting) the elevated hook runs.
func (s *Scorer) Score(ctx context.Context, fc *Context) domain.RiskResult {
	ctx, span := tracer.Start(ctx, "fraud.Score", trace.WithAttributes(
		attribute.String("transaction.id", fc.Transaction.ID),
		attribute.String("account.id", fc.Transaction.AccountID),
	))
	defer span.End()

	result := domain.RiskResult{
		TransactionID: fc.Transaction.ID,
		AccountID:     fc.Transaction.AccountID,
	}

	var weightedSum float64
	var weightTotal float64

	for _, rule := range s.rules.Enabled() {
		sub, reason := s.detect(rule, fc)
		if sub <= 0 {
			continue
		}

		weightedSum += sub * rule.Weight
		weightTotal += rule.Weight

		result.Triggers = append(result.Triggers, rule.ID)
		result.RuleScores = append(result.RuleScores, domain.RuleScore{
			RuleID:   rule.ID,
			SubScore: sub,
			Weight:   rule.Weight,
			Reason:   reason,
		})
	}

	if weightTotal > 0 {
		result.Score = int(math.Round(math.Min(100, weightedSum/weightTotal)))
	}
	span.SetAttributes(attribute.Int("fraud.score", result.Score))

	switch {
	case result.Score > s.alertThreshold:
		if s.hooks.OnAlert != nil {
			s.hooks.OnAlert(ctx, fc, result)
		}
	case result.Score > s.elevatedThreshold:
		if s.hooks.OnElevated != nil {
			s.hooks.OnElevated(ctx, fc, result)
		}
	}

	return result
}
