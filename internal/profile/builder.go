// Package profile derives rolling behavioral baselines from recent
// transaction history.
package profile

import (
	"sort"

	"github.com/opensource-finance/harrier/internal/domain"
)

// topN bounds the common-merchant and common-location lists.
const topN = 5

// minHourCount is how often an hour must be seen to count as typical.
const minHourCount = 2

// Build aggregates a recent-transaction window into a behavioral profile.
// Pure: no caching, no I/O. An empty window yields a zero-valued profile,
// which callers must treat as "insufficient history", not "no risk".
func Build(recent []domain.Transaction) *domain.BehavioralProfile {
	p := &domain.BehavioralProfile{}
	if len(recent) == 0 {
		return p
	}

	merchants := make(map[string]int)
	locations := make(map[string]int)
	hours := make(map[int]int)
	spending := make(map[domain.Category]float64)

	var total float64
	for i := range recent {
		tx := &recent[i]
		total += tx.Amount

		if tx.Merchant != nil && tx.Merchant.Name != "" {
			merchants[tx.Merchant.Name]++
		}
		if key := tx.Location.Key(); key != "" {
			locations[key]++
		}
		hours[tx.Date.Hour()]++

		if tx.Type == domain.TypeDebit && tx.Category != "" && tx.Category != domain.CategoryUnknown {
			spending[tx.Category] += tx.Amount
		}
	}

	p.AverageTransactionAmount = total / float64(len(recent))
	p.CommonMerchants = topKeys(merchants, topN)
	p.CommonLocations = topKeys(locations, topN)
	p.TypicalTransactionTimes = typicalHours(hours)
	if len(spending) > 0 {
		p.MonthlySpendingPattern = spending
	}

	return p
}

// topKeys ranks keys by descending frequency, breaking ties alphabetically
// so output is deterministic.
func topKeys(freq map[string]int, n int) []string {
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// typicalHours keeps hours seen at least minHourCount times, sorted
// ascending.
func typicalHours(hours map[int]int) []int {
	var out []int
	for h, count := range hours {
		if count >= minHourCount {
			out = append(out, h)
		}
	}
	sort.Ints(out)
	return out
}
