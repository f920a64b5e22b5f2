// Package cache stores total spectrum intensities so that normalisation does
// not re-read the same spectrum twice.
package cache

import (
	"context"
	"sync"
)

// Store caches total intensities keyed by spectrum id. Backend failures are
// logged and reported as misses.
type Store interface {
	Get(ctx context.Context, spectrumID int64) (float64, bool)
	Set(ctx context.Context, spectrumID int64, total float64)
}

// Memory is a process-local cache, created fresh for each aggregation run.
type Memory struct {
	mu     sync.RWMutex
	values map[int64]float64
}

// NewMemory returns an empty memory cache.
func NewMemory() *Memory {
	return &Memory{values: make(map[int64]float64)}
}

func (m *Memory) Get(_ context.Context, spectrumID int64) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[spectrumID]
	return v, ok
}

func (m *Memory) Set(_ context.Context, spectrumID int64, total float64) {
	m.mu.Lock()
	m.values[spectrumID] = total
	m.mu.Unlock()
}

// Len returns the number of cached spectra.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Tiered reads a local cache first and falls back to a shared one, copying
// shared hits into the local tier.
type Tiered struct {
	local  Store
	shared Store
}

// NewTiered layers local over shared. A nil shared store makes Tiered behave
// like local alone.
func NewTiered(local, shared Store) *Tiered {
	return &Tiered{local: local, shared: shared}
}

func (t *Tiered) Get(ctx context.Context, spectrumID int64) (float64, bool) {
	if v, ok := t.local.Get(ctx, spectrumID); ok {
		return v, true
	}
	if t.shared == nil {
		return 0, false
	}
	v, ok := t.shared.Get(ctx, spectrumID)
	if ok {
		t.local.Set(ctx, spectrumID, v)
	}
	return v, ok
}

func (t *Tiered) Set(ctx context.Context, spectrumID int64, total float64) {
	t.local.Set(ctx, spectrumID, total)
	if t.shared != nil {
		t.shared.Set(ctx, spectrumID, total)
	}
}
