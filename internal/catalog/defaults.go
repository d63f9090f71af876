package catalog

import "github.com/opensource-finance/harrier/internal/domain"

// Well-known pattern rule IDs. The pattern detector dispatches on these.
const (
	RuleDuplicateTransaction = "duplicate_transaction"
	RuleRoundAmountPattern   = "round_amount_pattern"
	RuleOnlineHighValue      = "online_high_value"
	RuleSpendingSpike        = "spending_spike"
)

// DefaultFraudRules returns the seed fraud catalog. Thresholds and weights
// are hot-updatable via the catalog.
func DefaultFraudRules() []*domain.FraudRule {
	return []*domain.FraudRule{
		{
			ID:          "unusual_amount",
			Type:        domain.RuleTypeAmount,
			Enabled:     true,
			Threshold:   3, // z-score
			Severity:    domain.SeverityHigh,
			Weight:      30,
			Description: "Transaction amount deviates from the account baseline",
		},
		{
			ID:          "high_velocity",
			Type:        domain.RuleTypeVelocity,
			Enabled:     true,
			Threshold:   5, // transactions in the trailing hour
			Severity:    domain.SeverityHigh,
			Weight:      25,
			Description: "Unusually many transactions in a short window",
		},
		{
			ID:          "unusual_time",
			Type:        domain.RuleTypeTime,
			Enabled:     true,
			Threshold:   2, // tolerance in hours around typical times
			Severity:    domain.SeverityMedium,
			Weight:      10,
			Description: "Transaction outside the account's typical hours",
		},
		{
			ID:          "foreign_location",
			Type:        domain.RuleTypeLocation,
			Enabled:     true,
			Threshold:   50, // default sub-score for an unlisted foreign country
			Severity:    domain.SeverityHigh,
			Weight:      20,
			Description: "Transaction from an unexpected location",
		},
		{
			ID:          "blacklisted_merchant",
			Type:        domain.RuleTypeMerchant,
			Enabled:     true,
			Severity:    domain.SeverityCritical,
			Weight:      50,
			Description: "Merchant is blacklisted or looks suspicious",
		},
		{
			ID:          RuleDuplicateTransaction,
			Type:        domain.RuleTypePattern,
			Enabled:     true,
			Severity:    domain.SeverityHigh,
			Weight:      35,
			Description: "Near-identical transaction within the last hour",
		},
		{
			ID:          RuleRoundAmountPattern,
			Type:        domain.RuleTypePattern,
			Enabled:     true,
			Severity:    domain.SeverityMedium,
			Weight:      15,
			Description: "Run of round-hundred amounts",
		},
		{
			ID:          RuleOnlineHighValue,
			Type:        domain.RuleTypePattern,
			Enabled:     true,
			Threshold:   5000,
			Severity:    domain.SeverityMedium,
			Weight:      10,
			Description: "High-value online payment",
		},
		{
			ID:          RuleSpendingSpike,
			Type:        domain.RuleTypePattern,
			Enabled:     true,
			Severity:    domain.SeverityHigh,
			Weight:      25,
			Description: "Daily spend far above the 30-day average",
		},
	}
}

// DefaultCategoryRules returns the seed categorization catalog.
func DefaultCategoryRules() []*domain.CategoryRule {
	return []*domain.CategoryRule{
		{
			ID:         "cat-salary",
			Category:   domain.CategorySalary,
			Patterns:   []string{"salary", "salaris", "wages"},
			Keywords:   []string{"payroll", "remuneration", "income"},
			Confidence: 90,
			Priority:   10,
		},
		{
			ID:         "cat-bank-fees",
			Category:   domain.CategoryBankFees,
			Patterns:   []string{"monthly fee", "admin fee", "service charge", "bank charges"},
			Keywords:   []string{"fee", "charges"},
			Confidence: 85,
			Priority:   20,
		},
		{
			ID:                 "cat-fuel",
			Category:           domain.CategoryFuel,
			Patterns:           []string{"fuel", "petrol", "diesel"},
			Keywords:           []string{"garage", "filling station"},
			MerchantCategories: []string{"5541", "5542"},
			Confidence:         85,
			Priority:           30,
		},
		{
			ID:                 "cat-groceries",
			Category:           domain.CategoryGroceries,
			Patterns:           []string{"supermarket", "grocer"},
			Keywords:           []string{"groceries", "food store"},
			MerchantCategories: []string{"5411", "5422", "5451"},
			Confidence:         80,
			Priority:           30,
		},
		{
			ID:         "cat-utilities",
			Category:   domain.CategoryUtilities,
			Patterns:   []string{"electricity", "prepaid elec", "municipal", "rates & taxes"},
			Keywords:   []string{"water", "utility", "airtime", "data bundle"},
			Confidence: 85,
			Priority:   40,
		},
		{
			ID:         "cat-insurance",
			Category:   domain.CategoryInsurance,
			Patterns:   []string{"insurance", "assurance"},
			Keywords:   []string{"premium", "cover", "policy"},
			Confidence: 85,
			Priority:   40,
		},
		{
			ID:       "cat-rent",
			Category: domain.CategoryRent,
			Patterns: []string{"rent", "rental", "lease"},
			Keywords: []string{"landlord", "letting"},
			AmountRanges: []domain.AmountRange{
				{Min: 2000, Max: 50000},
			},
			Confidence: 80,
			Priority:   50,
		},
		{
			ID:                 "cat-dining",
			Category:           domain.CategoryDining,
			Patterns:           []string{"restaurant", "takeaway"},
			Keywords:           []string{"cafe", "coffee", "grill", "pizzeria"},
			MerchantCategories: []string{"5812", "5813", "5814"},
			Confidence:         75,
			Priority:           60,
		},
		{
			ID:                 "cat-entertainment",
			Category:           domain.CategoryEntertainment,
			Patterns:           []string{"cinema", "theatre"},
			Keywords:           []string{"movies", "streaming", "tickets"},
			MerchantCategories: []string{"7832", "7922"},
			Confidence:         70,
			Priority:           60,
		},
		{
			ID:                 "cat-healthcare",
			Category:           domain.CategoryHealthcare,
			Patterns:           []string{"pharmacy", "medical"},
			Keywords:           []string{"doctor", "dental", "clinic"},
			MerchantCategories: []string{"5912", "8011", "8021"},
			Confidence:         80,
			Priority:           60,
		},
		{
			ID:         "cat-education",
			Category:   domain.CategoryEducation,
			Patterns:   []string{"tuition", "school fees"},
			Keywords:   []string{"university", "college", "course"},
			Confidence: 80,
			Priority:   70,
		},
		{
			ID:         "cat-transport",
			Category:   domain.CategoryTransport,
			Patterns:   []string{"taxi", "shuttle", "parking"},
			Keywords:   []string{"toll", "commute"},
			Confidence: 70,
			Priority:   70,
		},
		{
			ID:         "cat-transfer",
			Category:   domain.CategoryTransfer,
			Patterns:   []string{"transfer to", "transfer from", "eft payment", "immediate payment"},
			Keywords:   []string{"transfer", "eft"},
			Confidence: 65,
			Priority:   90,
		},
	}
}
