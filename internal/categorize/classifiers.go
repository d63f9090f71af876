package categorize

import (
	"strings"

	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/merchant"
)

// Classifier is one strategy in the categorization cascade. A zero-confidence
// result means the classifier has no opinion.
type Classifier interface {
	Name() string
	Evaluate(tx *domain.Transaction) domain.CategoryResult
}

// Classifier source names, reported in CategoryResult.Source.
const (
	SourceMerchant = "merchant_lookup"
	SourceRule     = "rule_based"
	SourceKeyword  = "keyword_match"
	SourceAmount   = "amount_heuristic"
)

// merchantClassifier matches the description against the merchant directory.
type merchantClassifier struct {
	dir merchant.Store
}

func (m *merchantClassifier) Name() string { return SourceMerchant }

func (m *merchantClassifier) Evaluate(tx *domain.Transaction) domain.CategoryResult {
	rec, ok := m.dir.Match(tx.Description)
	if !ok {
		return domain.CategoryResult{Source: SourceMerchant}
	}
	return domain.CategoryResult{
		Category:   rec.Category,
		Confidence: rec.Confidence,
		Source:     SourceMerchant,
	}
}

// ruleClassifier evaluates category rules in priority order. A rule's base
// confidence is scaled by the fraction of its applicable checks that matched;
// the first rule whose adjusted confidence clears 50 wins.
type ruleClassifier struct {
	rules *catalog.CategoryCatalog
}

func (r *ruleClassifier) Name() string { return SourceRule }

func (r *ruleClassifier) Evaluate(tx *domain.Transaction) domain.CategoryResult {
	desc := strings.ToLower(tx.Description)

	for _, rule := range r.rules.ByPriority() {
		applicable := 0
		matches := 0

		if len(rule.Patterns) > 0 {
			applicable++
			if matchesAny(desc, rule.Patterns) {
				matches++
			}
		}
		if len(rule.AmountRanges) > 0 {
			applicable++
			for _, rng := range rule.AmountRanges {
				if rng.Contains(tx.Amount) {
					matches++
					break
				}
			}
		}
		if len(rule.MerchantCategories) > 0 {
			applicable++
			if tx.Merchant != nil && containsString(rule.MerchantCategories, tx.Merchant.MCC) {
				matches++
			}
		}

		if applicable == 0 || matches == 0 {
			continue
		}

		adjusted := rule.Confidence * float64(matches) / float64(applicable)
		if adjusted > 50 {
			return domain.CategoryResult{
				Category:   rule.Category,
				Confidence: adjusted,
				Source:     SourceRule,
			}
		}
	}
	return domain.CategoryResult{Source: SourceRule}
}

// keywordClassifier is the looser pass over description+reference. A keyword
// hit never scores below 60 so diluted rules stay usable.
type keywordClassifier struct {
	rules *catalog.CategoryCatalog
}

func (k *keywordClassifier) Name() string { return SourceKeyword }

func (k *keywordClassifier) Evaluate(tx *domain.Transaction) domain.CategoryResult {
	haystack := strings.ToLower(tx.Description + " " + tx.Reference)

	for _, rule := range k.rules.ByPriority() {
		if len(rule.Keywords) == 0 {
			continue
		}
		if matchesAny(haystack, rule.Keywords) {
			confidence := rule.Confidence * 0.7
			if confidence < 60 {
				confidence = 60
			}
			return domain.CategoryResult{
				Category:   rule.Category,
				Confidence: confidence,
				Source:     SourceKeyword,
			}
		}
	}
	return domain.CategoryResult{Source: SourceKeyword}
}

// Amount heuristic bands. Coarse fallback tiers for transactions nothing
// else recognized.
const (
	salaryMin = 5000
	salaryMax = 150000
	rentMin   = 3000
	rentMax   = 30000
	fuelMin   = 100
	fuelMax   = 1200
)

// amountClassifier guesses from amount magnitude and direction alone.
// Lowest-confidence tier.
type amountClassifier struct{}

func (a *amountClassifier) Name() string { return SourceAmount }

func (a *amountClassifier) Evaluate(tx *domain.Transaction) domain.CategoryResult {
	res := domain.CategoryResult{Source: SourceAmount}

	switch tx.Type {
	case domain.TypeCredit:
		if tx.Amount >= salaryMin && tx.Amount <= salaryMax {
			res.Category = domain.CategorySalary
			res.Confidence = 60
		}
	case domain.TypeDebit:
		switch {
		case tx.Amount >= rentMin && tx.Amount <= rentMax:
			res.Category = domain.CategoryRent
			res.Confidence = 50
		case tx.Amount >= fuelMin && tx.Amount <= fuelMax:
			res.Category = domain.CategoryFuel
			res.Confidence = 40
		}
	}
	return res
}

func matchesAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
