package categorize

import (
	"strings"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
)

// LearningStore counts confident categorizations per normalized description.
// Telemetry only: frequencies are exported in stats but never feed back into
// classifier confidence.
type LearningStore struct {
	mu      sync.RWMutex
	records map[string]*domain.LearningRecord
}

// NewLearningStore creates an empty learning store.
func NewLearningStore() *LearningStore {
	return &LearningStore{
		records: make(map[string]*domain.LearningRecord),
	}
}

// Key normalizes a description to its learning-store key.
func Key(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Record increments the counter for a description/category observation.
// A correction for a known description overwrites its category.
func (s *LearningStore) Record(description string, category domain.Category) {
	key := Key(description)
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[key]; ok {
		rec.Frequency++
		rec.Category = category
		return
	}
	s.records[key] = &domain.LearningRecord{
		Description: key,
		Category:    category,
		Frequency:   1,
	}
}

// Get returns a copy of the record for a description, if present.
func (s *LearningStore) Get(description string) (*domain.LearningRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[Key(description)]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// Size returns the number of distinct descriptions seen.
func (s *LearningStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// CategoryTotals sums observation frequencies per category.
func (s *LearningStore) CategoryTotals() map[domain.Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[domain.Category]int)
	for _, rec := range s.records {
		totals[rec.Category] += rec.Frequency
	}
	return totals
}
