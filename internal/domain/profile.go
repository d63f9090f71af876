package domain

// BehavioralProfile is a short-lived, derived baseline of an account's
// recent behavior. It is recomputed from a bounded window each time an
// analysis is requested and never cached across calls. A zero-valued profile
// means "insufficient history", not "no risk".
type BehavioralProfile struct {
	AverageTransactionAmount float64 `json:"averageTransactionAmount"`

	// CommonMerchants holds the top-N merchant names by frequency.
	CommonMerchants []string `json:"commonMerchants,omitempty"`

	// CommonLocations holds the top-N "city, province" strings by frequency.
	CommonLocations []string `json:"commonLocations,omitempty"`

	// TypicalTransactionTimes holds hours of day seen at least twice.
	TypicalTransactionTimes []int `json:"typicalTransactionTimes,omitempty"`

	// MonthlySpendingPattern sums debit amounts per category.
	MonthlySpendingPattern map[Category]float64 `json:"monthlySpendingPattern,omitempty"`
}

// IsZero reports whether the profile was built from an empty history.
func (p *BehavioralProfile) IsZero() bool {
	return p.AverageTransactionAmount == 0 &&
		len(p.CommonMerchants) == 0 &&
		len(p.CommonLocations) == 0 &&
		len(p.TypicalTransactionTimes) == 0 &&
		len(p.MonthlySpendingPattern) == 0
}
