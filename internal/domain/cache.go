package domain

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// PredictionCache holds the per-quadrant prediction tables for one flood-risk
// run. Entries are computed at most once and are only visible when complete;
// concurrent first requests for the same quadrant share one computation.
type PredictionCache struct {
	mu     sync.RWMutex
	tables map[Quadrant]PredictionTable
	group  singleflight.Group
}

// NewPredictionCache returns an empty cache for a single run.
func NewPredictionCache() *PredictionCache {
	return &PredictionCache{tables: make(map[Quadrant]PredictionTable, len(Quadrants))}
}

// Get returns the cached table for q, if present.
func (c *PredictionCache) Get(q Quadrant) (PredictionTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[q]
	return t, ok
}

// Len reports how many quadrants have been computed.
func (c *PredictionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// GetOrCompute returns the table for q, calling compute only if no other
// caller has stored one. Failed computations are not cached.
func (c *PredictionCache) GetOrCompute(q Quadrant, compute func() (PredictionTable, error)) (PredictionTable, error) {
	if t, ok := c.Get(q); ok {
		return t, nil
	}
	v, err, _ := c.group.Do(q.String(), func() (any, error) {
		if t, ok := c.Get(q); ok {
			return t, nil
		}
		t, err := compute()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tables[q] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(PredictionTable), nil
}
