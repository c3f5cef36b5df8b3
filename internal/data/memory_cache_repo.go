package data

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/target/jobmatch/internal/core"
)

// DefaultMemoryCacheSize bounds MemoryCacheRepo when no capacity is given.
const DefaultMemoryCacheSize = 4096

// MemoryCacheRepo implements core.CacheRepository with a process-local LRU.
// It stands in for Redis when Redis is disabled; entries are not shared
// between instances.
type MemoryCacheRepo struct {
	entries *lru.Cache
	now     func() time.Time
}

type memoryEntry struct {
	value  []byte
	expiry time.Time // zero means no expiry
}

var _ core.CacheRepository = (*MemoryCacheRepo)(nil)

// MemoryCacheConfig groups MemoryCacheRepo options.
type MemoryCacheConfig struct {
	Capacity int
	Now      func() time.Time // injectable clock for tests
}

// NewMemoryCacheRepo creates a bounded in-memory cache.
func NewMemoryCacheRepo(cfg MemoryCacheConfig) (*MemoryCacheRepo, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultMemoryCacheSize
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryCacheRepo{entries: entries, now: now}, nil
}

// Set stores a copy of value. ttl <= 0 means the entry lives until evicted.
func (r *MemoryCacheRepo) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errEmptyKey
	}
	ent := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		ent.expiry = r.now().Add(ttl)
	}
	r.entries.Add(key, ent)
	return nil
}

// Get returns the live value for key, or nil, nil on a miss.
func (r *MemoryCacheRepo) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	ent, ok := r.lookup(key)
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), ent.value...), nil
}

// Delete removes key and reports whether a live entry was present.
func (r *MemoryCacheRepo) Delete(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	_, live := r.lookup(key)
	r.entries.Remove(key)
	return live, nil
}

// Exists reports whether key holds a live entry.
func (r *MemoryCacheRepo) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	_, ok := r.lookup(key)
	return ok, nil
}

// Health always succeeds; there is no connection to lose.
func (r *MemoryCacheRepo) Health(context.Context) error { return nil }

// Len returns the number of entries held, expired ones included until touched.
func (r *MemoryCacheRepo) Len() int { return r.entries.Len() }

func (r *MemoryCacheRepo) lookup(key string) (memoryEntry, bool) {
	raw, ok := r.entries.Get(key)
	if !ok {
		return memoryEntry{}, false
	}
	ent, ok := raw.(memoryEntry)
	if !ok {
		r.entries.Remove(key)
		return memoryEntry{}, false
	}
	if !ent.expiry.IsZero() && r.now().After(ent.expiry) {
		r.entries.Remove(key)
		return memoryEntry{}, false
	}
	return ent, true
}
