package tilerecord

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is a mutex-guarded map satisfying Repository. It backs
// tests and the no-database mode; staleness state then lives only as long
// as the process, like the chunks themselves.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[Key]time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		m: make(map[Key]time.Time),
	}
}

func (r *MemoryRepository) Find(_ context.Context, k Key) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	at, ok := r.m[k]
	return at, ok, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, k Key, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.m[k] = at
	return nil
}
