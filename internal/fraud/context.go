// Package fraud evaluates fraud rules against transactions and produces
// composite risk scores.
package fraud

import (
	"github.com/opensource-finance/harrier/internal/domain"
)

// Context carries everything a detector may inspect for one evaluation.
// Recent is the bounded history window, ordered by date ascending; it may
// include the transaction under evaluation.
type Context struct {
	Transaction *domain.Transaction
	Account     *domain.Account
	Recent      []domain.Transaction
	Profile     *domain.BehavioralProfile

	// HomeCountry is the effective home country for location checks
	// (account override or engine default).
	HomeCountry string

	// WindowDays is the length of the Recent window in days, used for
	// daily-average computations.
	WindowDays int
}

// Options configures the detectors.
type Options struct {
	// HighRiskCountries maps country codes to sub-scores for foreign
	// transactions. Unlisted foreign countries fall back to the rule's
	// threshold (or 50).
	HighRiskCountries map[string]float64

	// Blacklist holds merchant substrings that score 100 outright.
	Blacklist []string

	// SuspiciousTokens holds merchant substrings that score 60.
	SuspiciousTokens []string

	// VelocitySumLimit is the trailing-hour spend above which the velocity
	// detector fires at 80.
	VelocitySumLimit float64
}

// DefaultOptions returns the reference detector configuration.
func DefaultOptions() Options {
	return Options{
		HighRiskCountries: map[string]float64{
			"KP": 95,
			"IR": 90,
			"MM": 85,
		},
		Blacklist: []string{
			"darkmarket",
			"quickcash loans",
			"fastmoney 4u",
		},
		SuspiciousTokens: []string{
			"test",
			"fake",
			"scam",
			"fraud",
		},
		VelocitySumLimit: 10000,
	}
}
