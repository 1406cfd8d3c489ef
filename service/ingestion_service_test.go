package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaveflow-backend/rag"
	"leaveflow-backend/vectorstore"
)

type fakeArchive struct {
	stored   []string
	storedID uuid.UUID
	storeErr error
}

func (f *fakeArchive) Store(ctx context.Context, docID uuid.UUID, filename string, data io.Reader) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	f.stored = append(f.stored, filename)
	f.storedID = docID
	return "archive/" + filename, nil
}

func (f *fakeArchive) Retrieve(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeArchive) Delete(ctx context.Context, storagePath string) error {
	return nil
}

const policyText = "Sick leave requires a medical certificate for absences longer than two days.\n\n" +
	"Casual leave must be requested at least one working day in advance.\n\n" +
	"Annual leave is capped at fourteen days per calendar year."

func TestIngestTextBuildsIndex(t *testing.T) {
	index := vectorstore.NewMemory()
	archive := &fakeArchive{}
	svc := NewIngestionService(
		IngestionWithEmbedder(&fakeEmbedder{vec: []float64{1, 0}}),
		IngestionWithIndex(index),
		IngestionWithArchive(archive),
		IngestionWithChunker(rag.NewChunker(80, 0)),
	)

	result, err := svc.ingestText(context.Background(), policyText, []byte(policyText), "policy.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunkCount)

	n, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	chunks, err := index.Search(context.Background(), []float64{1, 0}, 3)
	require.NoError(t, err)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "policy.pdf", chunk.SourceDocument)
	}

	assert.Equal(t, []string{"policy.pdf"}, archive.stored)
	// The reported document ID is the one the archive path was keyed with.
	assert.Equal(t, archive.storedID, result.DocumentID)
}

func TestIngestTextEmptyDocument(t *testing.T) {
	svc := NewIngestionService(
		IngestionWithEmbedder(&fakeEmbedder{vec: []float64{1, 0}}),
		IngestionWithIndex(vectorstore.NewMemory()),
	)

	result, err := svc.ingestText(context.Background(), "   \n\n  ", nil, "empty.pdf")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

// A failed embedding aborts the whole build and leaves the old index intact.
func TestIngestTextEmbeddingFailureKeepsOldIndex(t *testing.T) {
	index := vectorstore.NewMemory()
	good := NewIngestionService(
		IngestionWithEmbedder(&fakeEmbedder{vec: []float64{1, 0}}),
		IngestionWithIndex(index),
	)
	_, err := good.ingestText(context.Background(), policyText, nil, "v1.pdf")
	require.NoError(t, err)

	before, err := index.Count(context.Background())
	require.NoError(t, err)

	bad := NewIngestionService(
		IngestionWithEmbedder(&fakeEmbedder{err: errors.New("quota exceeded")}),
		IngestionWithIndex(index),
	)
	result, err := bad.ingestText(context.Background(), policyText, nil, "v2.pdf")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrEmbeddingService)

	after, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	chunks, err := index.Search(context.Background(), []float64{1, 0}, 1)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "v1.pdf", chunks[0].SourceDocument)
}

// Archive failures are logged, not fatal: the index is already live.
func TestIngestTextArchiveFailureNotFatal(t *testing.T) {
	svc := NewIngestionService(
		IngestionWithEmbedder(&fakeEmbedder{vec: []float64{1, 0}}),
		IngestionWithIndex(vectorstore.NewMemory()),
		IngestionWithArchive(&fakeArchive{storeErr: errors.New("disk full")}),
		IngestionWithChunker(rag.NewChunker(80, 0)),
	)

	result, err := svc.ingestText(context.Background(), policyText, []byte(policyText), "policy.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunkCount)
}

func TestIngestPolicyDocumentRejectsNonPDF(t *testing.T) {
	svc := NewIngestionService(
		IngestionWithEmbedder(&fakeEmbedder{vec: []float64{1, 0}}),
		IngestionWithIndex(vectorstore.NewMemory()),
	)

	result, err := svc.IngestPolicyDocument(context.Background(), []byte("just some text"), "notes.txt")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
