// Package merchant provides the known-merchant directory used by the
// categorization pipeline.
package merchant

import (
	"sort"
	"strings"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Store is the read/write merchant directory the categorizer and the
// learning path depend on. Implementations must be safe for concurrent use.
type Store interface {
	// Match returns the first record whose name or alias is contained
	// (case-insensitive) in the description.
	Match(description string) (*domain.MerchantRecord, bool)

	// Has reports whether a merchant with the given name is already known.
	Has(name string) bool

	// Add appends a record. Returns false if the name is already known.
	Add(rec domain.MerchantRecord) bool

	// All returns a snapshot of every record.
	All() []*domain.MerchantRecord

	// Count returns the number of records.
	Count() int
}

// Directory is an in-memory merchant store.
type Directory struct {
	mu      sync.RWMutex
	records []domain.MerchantRecord
	byName  map[string]int // lower-cased name -> index into records
}

// NewDirectory creates a directory seeded with the given records.
// Records with empty names are dropped.
func NewDirectory(seed []domain.MerchantRecord) *Directory {
	d := &Directory{
		byName: make(map[string]int),
	}
	for _, rec := range seed {
		d.Add(rec)
	}
	return d
}

// Match scans records in insertion order and returns the first whose name or
// alias appears in the description, case-insensitively.
func (d *Directory) Match(description string) (*domain.MerchantRecord, bool) {
	desc := strings.ToLower(description)
	if desc == "" {
		return nil, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for i := range d.records {
		rec := &d.records[i]
		if strings.Contains(desc, strings.ToLower(rec.Name)) {
			out := *rec
			return &out, true
		}
		for _, alias := range rec.Aliases {
			if alias != "" && strings.Contains(desc, strings.ToLower(alias)) {
				out := *rec
				return &out, true
			}
		}
	}
	return nil, false
}

// Has reports whether the merchant name is already in the directory.
func (d *Directory) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byName[strings.ToLower(name)]
	return ok
}

// Add appends a new record. Duplicate names (case-insensitive) are rejected.
func (d *Directory) Add(rec domain.MerchantRecord) bool {
	if rec.Name == "" {
		return false
	}

	key := strings.ToLower(rec.Name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byName[key]; ok {
		return false
	}
	d.byName[key] = len(d.records)
	d.records = append(d.records, rec)
	return true
}

// All returns a copy of every record, sorted by name for stable output.
func (d *Directory) All() []*domain.MerchantRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*domain.MerchantRecord, 0, len(d.records))
	for i := range d.records {
		rec := d.records[i]
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of records.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}
