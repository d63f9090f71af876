// Package categorize assigns semantic categories to transactions through a
// cascade of independent classifiers.
package categorize

import (
	"log/slog"
	"sort"

	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/merchant"
)

// learnedMerchantConfidence is assigned to merchants appended by the
// correction path.
const learnedMerchantConfidence = 85

// suggestionFloor filters suggestions below this confidence.
const suggestionFloor = 30

// maxSuggestions bounds the suggestion list.
const maxSuggestions = 3

// Categorizer runs the classifier pipeline and picks the most confident
// result. Side effects are confined to the learning store and, on
// corrections, the merchant directory.
type Categorizer struct {
	classifiers    []Classifier
	directory      merchant.Store
	learning       *LearningStore
	learnThreshold float64
}

// New creates a categorizer over the given directory and rule catalog.
// learnThreshold is the winning confidence above which results feed the
// learning store.
func New(dir merchant.Store, rules *catalog.CategoryCatalog, learning *LearningStore, learnThreshold float64) *Categorizer {
	return &Categorizer{
		classifiers: []Classifier{
			&merchantClassifier{dir: dir},
			&ruleClassifier{rules: rules},
			&keywordClassifier{rules: rules},
			&amountClassifier{},
		},
		directory:      dir,
		learning:       learning,
		learnThreshold: learnThreshold,
	}
}

// Categorize assigns a category to a transaction. Pure apart from the
// learning-store write above the learn threshold; UNKNOWN when no classifier
// fires. Never panics outward: a misbehaving classifier is logged and
// skipped so one bad transaction cannot abort a batch.
func (c *Categorizer) Categorize(tx *domain.Transaction) domain.Category {
	results := c.evaluate(tx)
	if len(results) == 0 {
		return domain.CategoryUnknown
	}

	best := results[0]
	if best.Confidence > c.learnThreshold {
		c.learning.Record(tx.Description, best.Category)
	}
	return best.Category
}

// Suggestions returns up to three candidate categories with confidence
// above 30, best first.
func (c *Categorizer) Suggestions(tx *domain.Transaction) []domain.CategoryResult {
	results := c.evaluate(tx)

	out := make([]domain.CategoryResult, 0, maxSuggestions)
	seen := make(map[domain.Category]bool)
	for _, r := range results {
		if r.Confidence <= suggestionFloor || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// LearnFromCorrection records a user-supplied category for a transaction.
// The learning store is always updated; an unknown merchant on the
// transaction is appended to the directory.
func (c *Categorizer) LearnFromCorrection(tx *domain.Transaction, correct domain.Category) {
	c.learning.Record(tx.Description, correct)

	if tx.Merchant == nil || tx.Merchant.Name == "" {
		return
	}
	if c.directory.Has(tx.Merchant.Name) {
		return
	}
	c.directory.Add(domain.MerchantRecord{
		Name:       tx.Merchant.Name,
		Category:   correct,
		Confidence: learnedMerchantConfidence,
	})
}

// Stats reports the categorization counters.
func (c *Categorizer) Stats(ruleCount int) domain.CategorizationStats {
	return domain.CategorizationStats{
		TotalRules:       ruleCount,
		TotalMerchants:   c.directory.Count(),
		LearningDataSize: c.learning.Size(),
		TopCategories:    c.learning.CategoryTotals(),
	}
}

// Learning exposes the underlying learning store.
func (c *Categorizer) Learning() *LearningStore {
	return c.learning
}

// evaluate runs every classifier, drops zero-confidence results and sorts
// the rest by descending confidence. The sort is stable so classifier order
// breaks ties.
func (c *Categorizer) evaluate(tx *domain.Transaction) []domain.CategoryResult {
	results := make([]domain.CategoryResult, 0, len(c.classifiers))
	for _, cl := range c.classifiers {
		res := c.safeEvaluate(cl, tx)
		if res.Confidence > 0 && res.Category != "" {
			results = append(results, res)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// safeEvaluate isolates classifier failures to the transaction at hand.
func (c *Categorizer) safeEvaluate(cl Classifier, tx *domain.Transaction) (res domain.CategoryResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("classifier panicked",
				"classifier", cl.Name(),
				"tx_id", tx.ID,
				"account_id", tx.AccountID,
				"error", r,
			)
			res = domain.CategoryResult{Source: cl.Name()}
		}
	}()
	return cl.Evaluate(tx)
}
