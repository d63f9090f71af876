package fraud

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/domain"
)

var testTime = time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

func testConfig() domain.EngineConfig {
	return domain.EngineConfig{
		AlertThreshold:    70,
		ElevatedThreshold: 50,
	}
}

func newTestScorer(rules []*domain.FraudRule, opts Options, hooks Hooks) *Scorer {
	return NewScorer(catalog.NewFraudCatalog(rules), opts, testConfig(), hooks)
}

func TestScoreWeightedAverage(t *testing.T) {
	t.Run("SingleRuleEqualsSubScore", func(t *testing.T) {
		// One firing rule contributes its sub-score unweighted, whatever
		// its weight.
		s := newTestScorer([]*domain.FraudRule{
			{ID: "blacklisted_merchant", Type: domain.RuleTypeMerchant, Enabled: true, Weight: 50},
		}, DefaultOptions(), Hooks{})

		fc := &Context{
			Transaction: &domain.Transaction{
				ID:          "tx-1",
				AccountID:   "acc-1",
				Type:        domain.TypeDebit,
				Amount:      250,
				Description: "DARKMARKET PURCHASE",
				Date:        testTime,
			},
			HomeCountry: "ZA",
		}

		result := s.Score(context.Background(), fc)
		if result.Score != 100 {
			t.Errorf("expected composite 100, got %d", result.Score)
		}
		if len(result.Triggers) != 1 || result.Triggers[0] != "blacklisted_merchant" {
			t.Errorf("expected single blacklisted_merchant trigger, got %v", result.Triggers)
		}
		if len(result.RuleScores) != 1 || result.RuleScores[0].SubScore != 100 {
			t.Errorf("expected sub-score 100, got %+v", result.RuleScores)
		}
	})

	t.Run("MultiRuleDilution", func(t *testing.T) {
		// Sub-scores 100 (weight 50) and 20 (weight 10):
		// round((100*50 + 20*10) / 60) = 87.
		opts := DefaultOptions()
		opts.HighRiskCountries = map[string]float64{"XX": 20}

		s := newTestScorer([]*domain.FraudRule{
			{ID: "blacklisted_merchant", Type: domain.RuleTypeMerchant, Enabled: true, Weight: 50},
			{ID: "foreign_location", Type: domain.RuleTypeLocation, Enabled: true, Weight: 10},
		}, opts, Hooks{})

		fc := &Context{
			Transaction: &domain.Transaction{
				ID:          "tx-2",
				AccountID:   "acc-1",
				Type:        domain.TypeDebit,
				Amount:      250,
				Description: "DARKMARKET PURCHASE",
				Location:    &domain.Location{Country: "XX"},
				Date:        testTime,
			},
			HomeCountry: "ZA",
		}

		result := s.Score(context.Background(), fc)
		if result.Score != 87 {
			t.Errorf("expected composite 87, got %d", result.Score)
		}
		if len(result.Triggers) != 2 {
			t.Errorf("expected 2 triggers, got %v", result.Triggers)
		}
	})

	t.Run("DisabledRulesSkipped", func(t *testing.T) {
		s := newTestScorer([]*domain.FraudRule{
			{ID: "blacklisted_merchant", Type: domain.RuleTypeMerchant, Enabled: false, Weight: 50},
		}, DefaultOptions(), Hooks{})

		fc := &Context{
			Transaction: &domain.Transaction{
				ID:          "tx-3",
				AccountID:   "acc-1",
				Description: "DARKMARKET PURCHASE",
				Date:        testTime,
			},
			HomeCountry: "ZA",
		}

		if result := s.Score(context.Background(), fc); result.Score != 0 {
			t.Errorf("expected 0 with rule disabled, got %d", result.Score)
		}
	})
}

func TestScoreZeroHistory(t *testing.T) {
	s := newTestScorer(catalog.DefaultFraudRules(), DefaultOptions(), Hooks{})

	fc := &Context{
		Transaction: &domain.Transaction{
			ID:          "tx-first",
			AccountID:   "acc-new",
			Type:        domain.TypeDebit,
			Amount:      500,
			Description: "coffee shop",
			Date:        testTime,
		},
		Profile:     &domain.BehavioralProfile{},
		HomeCountry: "ZA",
		WindowDays:  30,
	}

	result := s.Score(context.Background(), fc)
	if result.Score != 0 {
		t.Errorf("expected 0 for empty history, got %d (triggers %v)", result.Score, result.Triggers)
	}
	if len(result.Triggers) != 0 {
		t.Errorf("expected no triggers, got %v", result.Triggers)
	}
}

func TestScoreDuplicateTransaction(t *testing.T) {
	s := newTestScorer(catalog.DefaultFraudRules(), DefaultOptions(), Hooks{})

	first := domain.Transaction{
		ID:          "tx-a",
		AccountID:   "acc-1",
		Type:        domain.TypeDebit,
		Amount:      199.99,
		Description: "TAKEALOT ORDER",
		Merchant:    &domain.Merchant{Name: "Takealot"},
		Date:        testTime,
	}
	second := domain.Transaction{
		ID:          "tx-b",
		AccountID:   "acc-1",
		Type:        domain.TypeDebit,
		Amount:      200.49,
		Description: "TAKEALOT ORDER",
		Merchant:    &domain.Merchant{Name: "Takealot"},
		Date:        testTime.Add(10 * time.Minute),
	}

	fc := &Context{
		Transaction: &second,
		Recent:      []domain.Transaction{first},
		HomeCountry: "ZA",
		WindowDays:  30,
	}

	result := s.Score(context.Background(), fc)

	var dup *domain.RuleScore
	for i := range result.RuleScores {
		if result.RuleScores[i].RuleID == catalog.RuleDuplicateTransaction {
			dup = &result.RuleScores[i]
		}
	}
	if dup == nil {
		t.Fatalf("expected duplicate_transaction among rule scores, got %+v", result.RuleScores)
	}
	if dup.SubScore != 90 {
		t.Errorf("expected duplicate sub-score 90, got %0.1f", dup.SubScore)
	}
}

func TestScoreThresholdHooks(t *testing.T) {
	run := func(t *testing.T, rules []*domain.FraudRule, opts Options, fc *Context) (alerted, elevated bool) {
		t.Helper()
		s := newTestScorer(rules, opts, Hooks{
			OnAlert: func(ctx context.Context, fc *Context, r domain.RiskResult) {
				alerted = true
			},
			OnElevated: func(ctx context.Context, fc *Context, r domain.RiskResult) {
				elevated = true
			},
		})
		s.Score(context.Background(), fc)
		return
	}

	t.Run("ExactlySeventyDoesNotAlert", func(t *testing.T) {
		// Atypical early-morning hour scores exactly 70.
		rules := []*domain.FraudRule{
			{ID: "unusual_time", Type: domain.RuleTypeTime, Enabled: true, Threshold: 2, Weight: 10},
		}
		fc := &Context{
			Transaction: &domain.Transaction{
				ID:        "tx-70",
				AccountID: "acc-1",
				Date:      time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC),
			},
			Profile:     &domain.BehavioralProfile{TypicalTransactionTimes: []int{12}},
			HomeCountry: "ZA",
		}

		alerted, elevated := run(t, rules, DefaultOptions(), fc)
		if alerted {
			t.Error("score 70 must not alert")
		}
		if !elevated {
			t.Error("score 70 must fire the elevated hook")
		}
	})

	t.Run("SeventyOneAlerts", func(t *testing.T) {
		opts := DefaultOptions()
		opts.HighRiskCountries = map[string]float64{"KP": 71}
		rules := []*domain.FraudRule{
			{ID: "foreign_location", Type: domain.RuleTypeLocation, Enabled: true, Weight: 20},
		}
		fc := &Context{
			Transaction: &domain.Transaction{
				ID:        "tx-71",
				AccountID: "acc-1",
				Location:  &domain.Location{Country: "KP"},
				Date:      testTime,
			},
			HomeCountry: "ZA",
		}

		alerted, elevated := run(t, rules, opts, fc)
		if !alerted {
			t.Error("score 71 must alert")
		}
		if elevated {
			t.Error("alerting score must not also fire the elevated hook")
		}
	})

	t.Run("BelowElevatedFiresNothing", func(t *testing.T) {
		// Unfamiliar domestic location scores 40.
		rules := []*domain.FraudRule{
			{ID: "foreign_location", Type: domain.RuleTypeLocation, Enabled: true, Weight: 20},
		}
		fc := &Context{
			Transaction: &domain.Transaction{
				ID:        "tx-40",
				AccountID: "acc-1",
				Location:  &domain.Location{City: "Polokwane", Province: "Limpopo", Country: "ZA"},
				Date:      testTime,
			},
			Profile:     &domain.BehavioralProfile{CommonLocations: []string{"Johannesburg, Gauteng"}},
			HomeCountry: "ZA",
		}

		alerted, elevated := run(t, rules, DefaultOptions(), fc)
		if alerted || elevated {
			t.Errorf("score 40 must fire no hooks (alerted=%v elevated=%v)", alerted, elevated)
		}
	})
}

func TestDetectors(t *testing.T) {
	s := newTestScorer(nil, DefaultOptions(), Hooks{})

	t.Run("VelocityCount", func(t *testing.T) {
		tx := &domain.Transaction{ID: "tx-now", Amount: 100, Date: testTime}
		recent := make([]domain.Transaction, 0, 4)
		for i := 0; i < 4; i++ {
			recent = append(recent, domain.Transaction{
				ID:     string(rune('a' + i)),
				Amount: 100,
				Date:   testTime.Add(-time.Duration(i+1) * 10 * time.Minute),
			})
		}
		rule := &domain.FraudRule{Type: domain.RuleTypeVelocity, Threshold: 5}

		score, _ := s.detectVelocity(rule, &Context{Transaction: tx, Recent: recent})
		if score != 100 {
			t.Errorf("expected 100 for 5 transactions in an hour, got %0.1f", score)
		}

		// One transaction outside the window drops the count below the limit.
		recent[3].Date = testTime.Add(-2 * time.Hour)
		score, _ = s.detectVelocity(rule, &Context{Transaction: tx, Recent: recent})
		if score != 0 {
			t.Errorf("expected 0 with 4 in-window transactions, got %0.1f", score)
		}
	})

	t.Run("VelocitySum", func(t *testing.T) {
		tx := &domain.Transaction{ID: "tx-now", Amount: 6000, Date: testTime}
		recent := []domain.Transaction{
			{ID: "r1", Amount: 5000, Date: testTime.Add(-20 * time.Minute)},
		}
		rule := &domain.FraudRule{Type: domain.RuleTypeVelocity, Threshold: 5}

		score, _ := s.detectVelocity(rule, &Context{Transaction: tx, Recent: recent})
		if score != 80 {
			t.Errorf("expected 80 for 11000 in the trailing hour, got %0.1f", score)
		}
	})

	t.Run("TimeWithinTolerance", func(t *testing.T) {
		rule := &domain.FraudRule{Type: domain.RuleTypeTime, Threshold: 2}
		fc := &Context{
			Transaction: &domain.Transaction{Date: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)},
			Profile:     &domain.BehavioralProfile{TypicalTransactionTimes: []int{13}},
		}
		if score, _ := s.detectTime(rule, fc); score != 0 {
			t.Errorf("expected 0 within tolerance, got %0.1f", score)
		}
	})

	t.Run("TimeRingDistance", func(t *testing.T) {
		// 23:00 is two hours from 01:00 across midnight.
		rule := &domain.FraudRule{Type: domain.RuleTypeTime, Threshold: 2}
		fc := &Context{
			Transaction: &domain.Transaction{Date: time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC)},
			Profile:     &domain.BehavioralProfile{TypicalTransactionTimes: []int{1}},
		}
		if score, _ := s.detectTime(rule, fc); score != 0 {
			t.Errorf("expected 0 across the midnight boundary, got %0.1f", score)
		}
	})

	t.Run("TimeAtypicalDaytime", func(t *testing.T) {
		rule := &domain.FraudRule{Type: domain.RuleTypeTime, Threshold: 2}
		fc := &Context{
			Transaction: &domain.Transaction{Date: time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)},
			Profile:     &domain.BehavioralProfile{TypicalTransactionTimes: []int{9}},
		}
		if score, _ := s.detectTime(rule, fc); score != 30 {
			t.Errorf("expected 30 for atypical daytime hour, got %0.1f", score)
		}
	})

	t.Run("LocationForeignUnlisted", func(t *testing.T) {
		rule := &domain.FraudRule{Type: domain.RuleTypeLocation, Threshold: 50}
		fc := &Context{
			Transaction: &domain.Transaction{Location: &domain.Location{Country: "BR"}},
			HomeCountry: "ZA",
		}
		if score, _ := s.detectLocation(rule, fc); score != 50 {
			t.Errorf("expected rule threshold 50 for unlisted foreign country, got %0.1f", score)
		}
	})

	t.Run("LocationHomeCountryOverride", func(t *testing.T) {
		// An account based abroad must not flag its own country.
		rule := &domain.FraudRule{Type: domain.RuleTypeLocation, Threshold: 50}
		fc := &Context{
			Transaction: &domain.Transaction{Location: &domain.Location{City: "London", Country: "GB"}},
			HomeCountry: "GB",
		}
		if score, _ := s.detectLocation(rule, fc); score != 0 {
			t.Errorf("expected 0 for home-country transaction, got %0.1f", score)
		}
	})

	t.Run("LocationDomesticNoHistory", func(t *testing.T) {
		rule := &domain.FraudRule{Type: domain.RuleTypeLocation, Threshold: 50}
		fc := &Context{
			Transaction: &domain.Transaction{Location: &domain.Location{City: "Durban", Country: "ZA"}},
			Profile:     &domain.BehavioralProfile{},
			HomeCountry: "ZA",
		}
		if score, _ := s.detectLocation(rule, fc); score != 0 {
			t.Errorf("expected 0 without location history, got %0.1f", score)
		}
	})

	t.Run("RoundAmountsLastFiveOnly", func(t *testing.T) {
		recent := []domain.Transaction{
			{Amount: 300, Date: testTime.Add(-6 * time.Hour)}, // outside lookback
			{Amount: 100, Date: testTime.Add(-5 * time.Hour)},
			{Amount: 200, Date: testTime.Add(-4 * time.Hour)},
			{Amount: 157.30, Date: testTime.Add(-3 * time.Hour)},
			{Amount: 400, Date: testTime.Add(-2 * time.Hour)},
			{Amount: 89.99, Date: testTime.Add(-1 * time.Hour)},
		}
		fc := &Context{Transaction: &domain.Transaction{Date: testTime}, Recent: recent}
		if score, _ := s.detectRoundAmounts(fc); score != 50 {
			t.Errorf("expected 50 with 3 round amounts in the last 5, got %0.1f", score)
		}

		// Remove one round amount from the lookback window.
		recent[4].Amount = 401.50
		if score, _ := s.detectRoundAmounts(fc); score != 0 {
			t.Errorf("expected 0 with 2 round amounts, got %0.1f", score)
		}
	})

	t.Run("OnlineHighValue", func(t *testing.T) {
		rule := &domain.FraudRule{Type: domain.RuleTypePattern, ID: catalog.RuleOnlineHighValue, Threshold: 5000}

		fc := &Context{Transaction: &domain.Transaction{Amount: 6000, PaymentMethod: "Online", Date: testTime}}
		if score, _ := s.detectOnlineHighValue(rule, fc); score != 40 {
			t.Errorf("expected 40 for high-value online payment, got %0.1f", score)
		}

		fc = &Context{Transaction: &domain.Transaction{Amount: 6000, PaymentMethod: "card", Date: testTime}}
		if score, _ := s.detectOnlineHighValue(rule, fc); score != 0 {
			t.Errorf("expected 0 for card payment, got %0.1f", score)
		}
	})

	t.Run("SpendingSpike", func(t *testing.T) {
		// 30 days of modest spending, then a large purchase today.
		var recent []domain.Transaction
		for i := 1; i <= 30; i++ {
			recent = append(recent, domain.Transaction{
				ID:     string(rune('A' + i)),
				Type:   domain.TypeDebit,
				Amount: 100,
				Date:   testTime.AddDate(0, 0, -i),
			})
		}
		tx := &domain.Transaction{ID: "tx-spike", Type: domain.TypeDebit, Amount: 2000, Date: testTime}
		fc := &Context{Transaction: tx, Recent: recent, WindowDays: 30}

		if score, _ := s.detectSpendingSpike(fc); score != 80 {
			t.Errorf("expected 80 for spending spike, got %0.1f", score)
		}

		tx.Amount = 150
		if score, _ := s.detectSpendingSpike(fc); score != 0 {
			t.Errorf("expected 0 for ordinary spend, got %0.1f", score)
		}
	})

	t.Run("AmountZScore", func(t *testing.T) {
		rule := &domain.FraudRule{Type: domain.RuleTypeAmount, Threshold: 3}
		recent := []domain.Transaction{
			{Amount: 90, Date: testTime.AddDate(0, 0, -3)},
			{Amount: 100, Date: testTime.AddDate(0, 0, -2)},
			{Amount: 110, Date: testTime.AddDate(0, 0, -1)},
		}
		fc := &Context{
			Transaction: &domain.Transaction{Amount: 5000, Date: testTime},
			Recent:      recent,
			Profile:     &domain.BehavioralProfile{AverageTransactionAmount: 100},
		}
		if score, _ := s.detectAmount(rule, fc); score != 100 {
			t.Errorf("expected 100 for extreme outlier, got %0.1f", score)
		}

		fc.Transaction.Amount = 105
		if score, _ := s.detectAmount(rule, fc); score != 0 {
			t.Errorf("expected 0 inside the baseline, got %0.1f", score)
		}
	})

	t.Run("AmountFlatHistory", func(t *testing.T) {
		rule := &domain.FraudRule{Type: domain.RuleTypeAmount, Threshold: 3}
		recent := []domain.Transaction{
			{Amount: 100, Date: testTime.AddDate(0, 0, -2)},
			{Amount: 100, Date: testTime.AddDate(0, 0, -1)},
		}
		fc := &Context{
			Transaction: &domain.Transaction{Amount: 9999, Date: testTime},
			Recent:      recent,
			Profile:     &domain.BehavioralProfile{AverageTransactionAmount: 100},
		}
		if score, _ := s.detectAmount(rule, fc); score != 0 {
			t.Errorf("expected 0 for zero-stddev history, got %0.1f", score)
		}
	})

	t.Run("SuspiciousToken", func(t *testing.T) {
		rule := &domain.FraudRule{Type: domain.RuleTypeMerchant}
		fc := &Context{
			Transaction: &domain.Transaction{
				Description: "payment",
				Merchant:    &domain.Merchant{Name: "Totally Fake Store"},
			},
		}
		if score, _ := s.detectMerchant(rule, fc); score != 60 {
			t.Errorf("expected 60 for suspicious token, got %0.1f", score)
		}
	})
}
