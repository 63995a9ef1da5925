package service

import (
	"sync"

	"pump_screener/internal/models"
)

// Coverage считает, сколько символов видели и сколько прошло фильтры.
type Coverage struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	eligible map[string]struct{}
}

func NewCoverage() *Coverage {
	return &Coverage{
		seen:     make(map[string]struct{}),
		eligible: make(map[string]struct{}),
	}
}

func (c *Coverage) RecordSeen(sym string) {
	c.mu.Lock()
	c.seen[sym] = struct{}{}
	c.mu.Unlock()
}

func (c *Coverage) RecordEligible(sym string) {
	c.mu.Lock()
	c.eligible[sym] = struct{}{}
	c.mu.Unlock()
}

func (c *Coverage) Snapshot() models.CoverageSnapshot {
	c.mu.Lock()
	seen, eligible := len(c.seen), len(c.eligible)
	c.mu.Unlock()

	return models.CoverageSnapshot{
		SeenTotal:     seen,
		EligibleTotal: eligible,
		FilteredTotal: max(seen-eligible, 0),
	}
}

func (c *Coverage) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.seen)
	clear(c.eligible)
}
