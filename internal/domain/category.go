package domain

// Category is a semantic spending/income category assigned to a transaction.
type Category string

const (
	CategoryGroceries     Category = "GROCERIES"
	CategoryFuel          Category = "FUEL"
	CategoryDining        Category = "DINING"
	CategoryUtilities     Category = "UTILITIES"
	CategoryTransport     Category = "TRANSPORT"
	CategoryShopping      Category = "SHOPPING"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryHealthcare    Category = "HEALTHCARE"
	CategoryInsurance     Category = "INSURANCE"
	CategoryEducation     Category = "EDUCATION"
	CategoryRent          Category = "RENT"
	CategorySalary        Category = "SALARY"
	CategoryTransfer      Category = "TRANSFER"
	CategoryBankFees      Category = "BANK_FEES"
	CategoryUnknown       Category = "UNKNOWN"
)

// CategoryRule is a data-driven categorization rule. Rules are evaluated in
// ascending Priority order; only the non-empty check groups (patterns, amount
// ranges, merchant category codes) count toward the match ratio.
type CategoryRule struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`

	// Patterns are case-insensitive substrings matched against the
	// transaction description.
	Patterns []string `json:"patterns,omitempty"`

	// Keywords are looser substrings matched against description+reference
	// by the keyword classifier.
	Keywords []string `json:"keywords,omitempty"`

	// MerchantCategories holds MCC codes this rule applies to.
	MerchantCategories []string `json:"merchantCategories,omitempty"`

	AmountRanges []AmountRange `json:"amountRanges,omitempty"`

	// Confidence is the base confidence (0-100) before match-ratio scaling.
	Confidence float64 `json:"confidence"`

	// Priority orders evaluation; lower values are evaluated first.
	Priority int `json:"priority"`
}

// AmountRange bounds a transaction amount magnitude, inclusive.
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether amount falls within the range.
func (r AmountRange) Contains(amount float64) bool {
	return amount >= r.Min && amount <= r.Max
}

// MerchantRecord maps a canonical merchant name (and alternate spellings) to
// a category. Matching is case-insensitive substring containment of the name
// or an alias within the transaction description.
type MerchantRecord struct {
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases,omitempty"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// LearningRecord counts repeated confident categorizations of the same
// description. Telemetry only: frequencies never feed back into classifier
// confidence.
type LearningRecord struct {
	Description string   `json:"description"` // lower-cased, trimmed key
	Category    Category `json:"category"`
	Frequency   int      `json:"frequency"`
}

// CategoryResult is the output of one classifier.
type CategoryResult struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Source     string   `json:"source"` // which classifier produced it
}

// CategorizationStats summarizes the categorization subsystem.
type CategorizationStats struct {
	TotalRules       int              `json:"totalRules"`
	TotalMerchants   int              `json:"totalMerchants"`
	LearningDataSize int              `json:"learningDataSize"`
	TopCategories    map[Category]int `json:"topCategories"`
}
