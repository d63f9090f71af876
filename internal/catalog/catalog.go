// Package catalog holds the data-driven rule catalogs for categorization and
// fraud detection. Rules are plain data; hot updates replace the backing map
// under a lock, never generate code.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
)

// ErrRuleNotFound is returned when an update names an unknown rule.
var ErrRuleNotFound = errors.New("rule not found")

// FraudCatalog holds the fraud rules, keyed by ID.
type FraudCatalog struct {
	mu    sync.RWMutex
	rules map[string]*domain.FraudRule
	order []string // insertion order, for stable listing
}

// NewFraudCatalog creates a catalog loaded with the given rules.
func NewFraudCatalog(rules []*domain.FraudRule) *FraudCatalog {
	c := &FraudCatalog{
		rules: make(map[string]*domain.FraudRule),
	}
	c.Reload(rules)
	return c
}

// Reload replaces all rules (hot reload).
func (c *FraudCatalog) Reload(rules []*domain.FraudRule) {
	newRules := make(map[string]*domain.FraudRule, len(rules))
	order := make([]string, 0, len(rules))
	for _, r := range rules {
		if r == nil || r.ID == "" {
			continue
		}
		cp := *r
		if _, dup := newRules[cp.ID]; !dup {
			order = append(order, cp.ID)
		}
		newRules[cp.ID] = &cp
	}

	c.mu.Lock()
	c.rules = newRules
	c.order = order
	c.mu.Unlock()
}

// Enabled returns a snapshot of all enabled rules in insertion order.
func (c *FraudCatalog) Enabled() []*domain.FraudRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.FraudRule, 0, len(c.order))
	for _, id := range c.order {
		r := c.rules[id]
		if r.Enabled {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// All returns a snapshot of every rule in insertion order.
func (c *FraudCatalog) All() []*domain.FraudRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.FraudRule, 0, len(c.order))
	for _, id := range c.order {
		cp := *c.rules[id]
		out = append(out, &cp)
	}
	return out
}

// Get returns a copy of a rule by ID.
func (c *FraudCatalog) Get(id string) (*domain.FraudRule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.rules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	cp := *r
	return &cp, nil
}

// Update applies a partial update to a rule. Unknown IDs return
// ErrRuleNotFound.
func (c *FraudCatalog) Update(id string, upd domain.FraudRuleUpdate) (*domain.FraudRule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	cp := *r
	if upd.Enabled != nil {
		cp.Enabled = *upd.Enabled
	}
	if upd.Threshold != nil {
		cp.Threshold = *upd.Threshold
	}
	if upd.Weight != nil {
		cp.Weight = *upd.Weight
	}
	if upd.Severity != nil {
		cp.Severity = *upd.Severity
	}
	c.rules[id] = &cp

	out := cp
	return &out, nil
}

// Count returns the number of loaded rules.
func (c *FraudCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rules)
}

// CategoryCatalog holds the categorization rules, kept sorted by priority.
type CategoryCatalog struct {
	mu    sync.RWMutex
	rules []*domain.CategoryRule
}

// NewCategoryCatalog creates a catalog loaded with the given rules.
func NewCategoryCatalog(rules []*domain.CategoryRule) *CategoryCatalog {
	c := &CategoryCatalog{}
	c.Reload(rules)
	return c
}

// Reload replaces all rules (hot reload). Rules are re-sorted by ascending
// priority so evaluation order is deterministic.
func (c *CategoryCatalog) Reload(rules []*domain.CategoryRule) {
	sorted := make([]*domain.CategoryRule, 0, len(rules))
	for _, r := range rules {
		if r == nil || r.ID == "" {
			continue
		}
		cp := *r
		sorted = append(sorted, &cp)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	c.mu.Lock()
	c.rules = sorted
	c.mu.Unlock()
}

// Add appends a single rule, preserving priority order. Used by the learning
// path to extend the catalog at runtime.
func (c *CategoryCatalog) Add(rule *domain.CategoryRule) {
	if rule == nil || rule.ID == "" {
		return
	}
	cp := *rule

	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules = append(c.rules, &cp)
	sort.SliceStable(c.rules, func(i, j int) bool {
		return c.rules[i].Priority < c.rules[j].Priority
	})
}

// ByPriority returns a snapshot of the rules in ascending priority order.
func (c *CategoryCatalog) ByPriority() []*domain.CategoryRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.CategoryRule, 0, len(c.rules))
	for _, r := range c.rules {
		cp := *r
		out = append(out, &cp)
	}
	return out
}

// Count returns the number of loaded rules.
func (c *CategoryCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rules)
}
