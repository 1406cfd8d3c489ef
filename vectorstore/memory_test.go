package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaveflow-backend/models"
)

func chunk(index int, source string, embedding []float64) models.PolicyChunk {
	return models.PolicyChunk{
		SourceDocument: source,
		ChunkIndex:     index,
		Text:           fmt.Sprintf("%s chunk %d", source, index),
		Embedding:      embedding,
	}
}

func TestMemorySearchOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.ReplaceAll(ctx, []models.PolicyChunk{
		chunk(0, "policy.pdf", []float64{0, 1, 0}),
		chunk(1, "policy.pdf", []float64{1, 0, 0}),
		chunk(2, "policy.pdf", []float64{0.6, 0.8, 0}),
	}))

	results, err := store.Search(ctx, []float64{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].ChunkIndex)
	assert.Equal(t, 2, results[1].ChunkIndex)
	assert.Equal(t, 0, results[2].ChunkIndex)

	assert.InDelta(t, 0.0, results[0].Distance, 1e-9)
	assert.InDelta(t, 0.4, results[1].Distance, 1e-9)
	assert.InDelta(t, 1.0, results[2].Distance, 1e-9)
}

func TestMemorySearchStableTies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.ReplaceAll(ctx, []models.PolicyChunk{
		chunk(0, "policy.pdf", []float64{1, 0}),
		chunk(1, "policy.pdf", []float64{1, 0}),
		chunk(2, "policy.pdf", []float64{1, 0}),
	}))

	results, err := store.Search(ctx, []float64{1, 0}, 3)
	require.NoError(t, err)
	for i, r := range results {
		assert.Equal(t, i, r.ChunkIndex)
	}
}

func TestMemorySearchClampsK(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.ReplaceAll(ctx, []models.PolicyChunk{
		chunk(0, "policy.pdf", []float64{1, 0}),
		chunk(1, "policy.pdf", []float64{0, 1}),
	}))

	results, err := store.Search(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = store.Search(ctx, []float64{1, 0}, 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMemorySearchEmptyIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	results, err := store.Search(ctx, []float64{1, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryReplaceAllDiscardsOldIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.ReplaceAll(ctx, []models.PolicyChunk{
		chunk(0, "v1.pdf", []float64{1, 0}),
		chunk(1, "v1.pdf", []float64{0, 1}),
	}))
	require.NoError(t, store.ReplaceAll(ctx, []models.PolicyChunk{
		chunk(0, "v2.pdf", []float64{1, 0}),
	}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := store.Search(ctx, []float64{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "v2.pdf", results[0].SourceDocument)
}

// Searches racing a rebuild must see either the old index or the new one in
// full, never a mix.
func TestMemoryRebuildIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	build := func(source string) []models.PolicyChunk {
		chunks := make([]models.PolicyChunk, 16)
		for i := range chunks {
			chunks[i] = chunk(i, source, []float64{1, 0})
		}
		return chunks
	}
	require.NoError(t, store.ReplaceAll(ctx, build("old.pdf")))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				results, err := store.Search(ctx, []float64{1, 0}, 16)
				if err != nil {
					errs <- err
					return
				}
				source := results[0].SourceDocument
				for _, r := range results {
					if r.SourceDocument != source {
						errs <- fmt.Errorf("torn snapshot: %s and %s", source, r.SourceDocument)
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		source := "old.pdf"
		if i%2 == 1 {
			source = "new.pdf"
		}
		require.NoError(t, store.ReplaceAll(ctx, build(source)))
	}
	close(stop)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
