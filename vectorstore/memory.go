package vectorstore

import (
	"context"
	"sort"
	"sync"

	"leaveflow-backend/models"
)

// Memory is an in-memory policy chunk index using brute-force cosine
// distance. Rebuilds follow a copy-and-swap discipline: a replacement is
// assembled off to the side and the snapshot pointer is swapped in one step,
// so concurrent searches always observe a single consistent index.
type Memory struct {
	mu       sync.RWMutex
	snapshot []models.PolicyChunk
}

// NewMemory creates an empty in-memory index
func NewMemory() *Memory {
	return &Memory{}
}

// ReplaceAll atomically replaces the entire index with the given chunks
func (m *Memory) ReplaceAll(ctx context.Context, chunks []models.PolicyChunk) error {
	next := make([]models.PolicyChunk, len(chunks))
	copy(next, chunks)

	m.mu.Lock()
	m.snapshot = next
	m.mu.Unlock()
	return nil
}

// Search returns up to k chunks ordered by ascending cosine distance to the
// query embedding, ties broken by chunk insertion order
func (m *Memory) Search(ctx context.Context, embedding []float64, k int) ([]models.PolicyChunk, error) {
	m.mu.RLock()
	snapshot := m.snapshot
	m.mu.RUnlock()

	if k <= 0 {
		k = 1
	}

	results := make([]models.PolicyChunk, len(snapshot))
	copy(results, snapshot)
	for i := range results {
		results[i].Distance = 1 - dot(results[i].Embedding, embedding)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count returns the number of chunks in the current snapshot
func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshot), nil
}

// dot assumes both vectors are L2-normalized, so the dot product equals the
// cosine similarity
func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
