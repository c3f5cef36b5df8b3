package geo

import (
	"context"
	"sort"
	"sync"
)

// Hit is a single radius lookup result.
type Hit struct {
	ID         string
	Point      Point
	DistanceKm float64
}

// Index answers radius queries over identified points.
type Index interface {
	// WithinRadius returns every entry within radiusKm of center ordered by ascending distance.
	WithinRadius(ctx context.Context, center Point, radiusKm float64) ([]Hit, error)
	// Distance returns the distance in kilometres between a and b.
	Distance(a, b Point) float64
}

// MemoryIndex is an in-process Index that prefilters by bounding box and
// confirms with haversine. Safe for concurrent use.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[string]Point
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[string]Point)}
}

// Put inserts or moves id to p.
func (m *MemoryIndex) Put(id string, p Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[id] = p
}

// Remove deletes id from the index. Missing ids are ignored.
func (m *MemoryIndex) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.points, id)
}

// Len returns the number of indexed points.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

// WithinRadius implements Index.
func (m *MemoryIndex) WithinRadius(ctx context.Context, center Point, radiusKm float64) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if radiusKm < 0 {
		return nil, nil
	}
	box := BoundingBoxFor(center, radiusKm)

	m.mu.RLock()
	hits := make([]Hit, 0)
	for id, p := range m.points {
		if !box.Contains(p) {
			continue
		}
		d := Haversine(center, p)
		if d <= radiusKm {
			hits = append(hits, Hit{ID: id, Point: p, DistanceKm: d})
		}
	}
	m.mu.RUnlock()

	SortHits(hits)
	return hits, nil
}

// Distance implements Index.
func (m *MemoryIndex) Distance(a, b Point) float64 {
	return Haversine(a, b)
}

// SortHits orders hits by distance, breaking ties by id.
func SortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].ID < hits[j].ID
	})
}
