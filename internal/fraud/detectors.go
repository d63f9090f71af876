package fraud

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/domain"
)

// velocityWindow is the trailing window for velocity and duplicate checks.
const velocityWindow = time.Hour

// roundAmountLookback is how many recent transactions the round-amount
// pattern inspects.
const roundAmountLookback = 5

// detect dispatches a rule to its detector and returns a sub-score in
// [0,100] plus a human-readable reason. Zero means no signal.
func (s *Scorer) detect(rule *domain.FraudRule, fc *Context) (float64, string) {
	switch rule.Type {
	case domain.RuleTypeAmount:
		return s.detectAmount(rule, fc)
	case domain.RuleTypeVelocity:
		return s.detectVelocity(rule, fc)
	case domain.RuleTypeTime:
		return s.detectTime(rule, fc)
	case domain.RuleTypeLocation:
		return s.detectLocation(rule, fc)
	case domain.RuleTypeMerchant:
		return s.detectMerchant(rule, fc)
	case domain.RuleTypePattern:
		return s.detectPattern(rule, fc)
	}
	return 0, ""
}

// detectAmount flags amounts that deviate from the account baseline. The
// z-score uses the profile mean and the recent window's standard deviation;
// a flat history (stddev 0) cannot signal.
func (s *Scorer) detectAmount(rule *domain.FraudRule, fc *Context) (float64, string) {
	if rule.Threshold <= 0 || fc.Profile == nil || len(fc.Recent) == 0 {
		return 0, ""
	}

	mean := fc.Profile.AverageTransactionAmount
	stddev := stdDev(fc.Recent, mean)
	if stddev == 0 {
		return 0, ""
	}

	z := math.Abs(fc.Transaction.Amount-mean) / stddev
	if z <= rule.Threshold {
		return 0, ""
	}

	score := math.Min(100, 100*z/rule.Threshold)
	return score, fmt.Sprintf("amount %.2f is %.1f standard deviations from mean %.2f", fc.Transaction.Amount, z, mean)
}

// detectVelocity counts activity in the trailing hour, the transaction under
// evaluation included.
func (s *Scorer) detectVelocity(rule *domain.FraudRule, fc *Context) (float64, string) {
	tx := fc.Transaction
	count := 1
	sum := tx.Amount

	for i := range fc.Recent {
		r := &fc.Recent[i]
		if r.ID == tx.ID {
			continue
		}
		if inTrailingWindow(r.Date, tx.Date, velocityWindow) {
			count++
			sum += r.Amount
		}
	}

	if rule.Threshold > 0 && count >= int(rule.Threshold) {
		return 100, fmt.Sprintf("%d transactions in the last hour", count)
	}
	if sum > s.opts.VelocitySumLimit {
		return 80, fmt.Sprintf("%.2f spent in the last hour", sum)
	}
	return 0, ""
}

// detectTime flags transactions outside the account's typical hours. Hours
// are compared on a 24h ring with the rule threshold as tolerance. Early
// morning (02:00-06:00) scores higher than other atypical hours.
func (s *Scorer) detectTime(rule *domain.FraudRule, fc *Context) (float64, string) {
	if fc.Profile == nil || len(fc.Profile.TypicalTransactionTimes) == 0 {
		return 0, ""
	}

	tolerance := int(rule.Threshold)
	if tolerance <= 0 {
		tolerance = 2
	}

	hour := fc.Transaction.Date.Hour()
	for _, typical := range fc.Profile.TypicalTransactionTimes {
		if hourDistance(hour, typical) <= tolerance {
			return 0, ""
		}
	}

	if hour >= 2 && hour <= 6 {
		return 70, fmt.Sprintf("transaction at %02d:00, outside typical hours", hour)
	}
	return 30, fmt.Sprintf("transaction at %02d:00, outside typical hours", hour)
}

// detectLocation scores foreign countries by the high-risk table and
// domestic transactions by whether the city matches the profile's common
// locations. Without location data or location history there is no signal.
func (s *Scorer) detectLocation(rule *domain.FraudRule, fc *Context) (float64, string) {
	loc := fc.Transaction.Location
	if loc == nil {
		return 0, ""
	}

	if loc.Country != "" && loc.Country != fc.HomeCountry {
		if score, ok := s.opts.HighRiskCountries[loc.Country]; ok {
			return score, fmt.Sprintf("transaction from high-risk country %s", loc.Country)
		}
		score := rule.Threshold
		if score <= 0 {
			score = 50
		}
		return score, fmt.Sprintf("transaction from foreign country %s", loc.Country)
	}

	if fc.Profile == nil || len(fc.Profile.CommonLocations) == 0 {
		return 0, ""
	}
	key := loc.Key()
	if key == "" {
		return 0, ""
	}
	for _, common := range fc.Profile.CommonLocations {
		if strings.EqualFold(common, key) {
			return 0, ""
		}
	}
	return 40, fmt.Sprintf("transaction from unfamiliar location %s", key)
}

// detectMerchant checks the merchant name (or description, failing that)
// against the blacklist and the suspicious-token list.
func (s *Scorer) detectMerchant(rule *domain.FraudRule, fc *Context) (float64, string) {
	name := fc.Transaction.Description
	if fc.Transaction.Merchant != nil && fc.Transaction.Merchant.Name != "" {
		name = fc.Transaction.Merchant.Name
	}
	lowered := strings.ToLower(name)

	for _, entry := range s.opts.Blacklist {
		if strings.Contains(lowered, strings.ToLower(entry)) {
			return 100, fmt.Sprintf("merchant %q is blacklisted", name)
		}
	}
	for _, token := range s.opts.SuspiciousTokens {
		if strings.Contains(lowered, token) {
			return 60, fmt.Sprintf("merchant %q contains suspicious token %q", name, token)
		}
	}
	return 0, ""
}

// detectPattern dispatches the pattern rules by well-known ID.
func (s *Scorer) detectPattern(rule *domain.FraudRule, fc *Context) (float64, string) {
	switch rule.ID {
	case catalog.RuleDuplicateTransaction:
		return s.detectDuplicate(fc)
	case catalog.RuleRoundAmountPattern:
		return s.detectRoundAmounts(fc)
	case catalog.RuleOnlineHighValue:
		return s.detectOnlineHighValue(rule, fc)
	case catalog.RuleSpendingSpike:
		return s.detectSpendingSpike(fc)
	}
	return 0, ""
}

// detectDuplicate looks for a near-identical transaction (same merchant,
// amount within one currency unit) inside the trailing hour.
func (s *Scorer) detectDuplicate(fc *Context) (float64, string) {
	tx := fc.Transaction

	for i := range fc.Recent {
		r := &fc.Recent[i]
		if r.ID == tx.ID {
			continue
		}
		if !inTrailingWindow(r.Date, tx.Date, velocityWindow) {
			continue
		}
		if math.Abs(r.Amount-tx.Amount) > 1 {
			continue
		}
		if sameMerchant(r, tx) {
			return 90, fmt.Sprintf("near-duplicate of transaction %s within the hour", r.ID)
		}
	}
	return 0, ""
}

// detectRoundAmounts fires when at least three of the last five transactions
// are round hundreds.
func (s *Scorer) detectRoundAmounts(fc *Context) (float64, string) {
	recent := fc.Recent
	if len(recent) > roundAmountLookback {
		recent = recent[len(recent)-roundAmountLookback:]
	}

	round := 0
	for i := range recent {
		amt := recent[i].Amount
		if amt > 0 && math.Mod(amt, 100) == 0 {
			round++
		}
	}
	if round >= 3 {
		return 50, fmt.Sprintf("%d of the last %d amounts are round hundreds", round, len(recent))
	}
	return 0, ""
}

// detectOnlineHighValue fires on online payments above the rule threshold.
func (s *Scorer) detectOnlineHighValue(rule *domain.FraudRule, fc *Context) (float64, string) {
	tx := fc.Transaction
	if !strings.EqualFold(tx.PaymentMethod, "online") {
		return 0, ""
	}
	if rule.Threshold > 0 && tx.Amount > rule.Threshold {
		return 40, fmt.Sprintf("online payment of %.2f exceeds %.0f", tx.Amount, rule.Threshold)
	}
	return 0, ""
}

// detectSpendingSpike compares today's debit total against the window's
// daily average. A first transaction has no baseline and cannot spike.
func (s *Scorer) detectSpendingSpike(fc *Context) (float64, string) {
	tx := fc.Transaction
	if len(fc.Recent) == 0 {
		return 0, ""
	}

	days := fc.WindowDays
	if days <= 0 {
		days = 30
	}

	var windowDebits float64
	var todayDebits float64
	counted := false
	for i := range fc.Recent {
		r := &fc.Recent[i]
		if r.Type != domain.TypeDebit {
			continue
		}
		windowDebits += r.Amount
		if sameDay(r.Date, tx.Date) {
			todayDebits += r.Amount
		}
		if r.ID == tx.ID {
			counted = true
		}
	}
	if tx.Type == domain.TypeDebit && !counted {
		windowDebits += tx.Amount
		todayDebits += tx.Amount
	}

	dailyAvg := windowDebits / float64(days)
	if dailyAvg <= 0 {
		return 0, ""
	}
	if todayDebits > 5*dailyAvg {
		return 80, fmt.Sprintf("today's spend %.2f exceeds 5x the daily average %.2f", todayDebits, dailyAvg)
	}
	return 0, ""
}

// stdDev is the population standard deviation of the recent amounts around
// the given mean.
func stdDev(recent []domain.Transaction, mean float64) float64 {
	if len(recent) == 0 {
		return 0
	}
	var sumSquares float64
	for i := range recent {
		d := recent[i].Amount - mean
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(recent)))
}

// inTrailingWindow reports whether t falls within the window ending at ref.
func inTrailingWindow(t, ref time.Time, window time.Duration) bool {
	return !t.After(ref) && ref.Sub(t) <= window
}

// hourDistance is the distance between two hours on the 24h ring.
func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 12 {
		d = 24 - d
	}
	return d
}

// sameMerchant compares merchant names case-insensitively, falling back to
// descriptions when either side has no merchant.
func sameMerchant(a, b *domain.Transaction) bool {
	if a.Merchant != nil && b.Merchant != nil && a.Merchant.Name != "" && b.Merchant.Name != "" {
		return strings.EqualFold(a.Merchant.Name, b.Merchant.Name)
	}
	return strings.EqualFold(a.Description, b.Description)
}

// sameDay reports whether two instants fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
