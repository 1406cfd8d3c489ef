package repository

import (
	"context"
	"fmt"
	"strings"

	"leaveflow-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PolicyChunkRepository handles database operations for policy chunks. It is
// the durable knowledge base behind adjudication: chunk text plus pgvector
// embeddings, replaced wholesale on each policy ingestion.
type PolicyChunkRepository struct {
	db *pgxpool.Pool
}

// NewPolicyChunkRepository creates a new policy chunk repository
func NewPolicyChunkRepository(db *pgxpool.Pool) *PolicyChunkRepository {
	return &PolicyChunkRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ReplaceAll swaps the entire index for the given chunks in one transaction.
// In-flight searches keep reading the pre-replacement rows until the commit,
// so they never observe a half-swapped index.
func (r *PolicyChunkRepository) ReplaceAll(ctx context.Context, chunks []models.PolicyChunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM policy_chunks"); err != nil {
		return fmt.Errorf("failed to clear policy chunks: %w", err)
	}

	query := `
		INSERT INTO policy_chunks (source_document, chunk_index, chunk_text, embedding)
		VALUES ($1, $2, $3, $4::vector)`

	for _, chunk := range chunks {
		_, err := tx.Exec(ctx, query,
			chunk.SourceDocument,
			chunk.ChunkIndex,
			chunk.Text,
			formatVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert policy chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit policy chunks: %w", err)
	}

	return nil
}

// Search performs a vector similarity search over the policy chunks.
// Results are ordered by ascending cosine distance, ties broken by chunk
// insertion order. If fewer than k chunks exist, all are returned.
func (r *PolicyChunkRepository) Search(ctx context.Context, embedding []float64, k int) ([]models.PolicyChunk, error) {
	if k < 1 {
		k = 1
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id,
			source_document,
			chunk_index,
			chunk_text,
			embedding <=> $1::vector AS distance,
			created_at
		FROM policy_chunks
		ORDER BY
			embedding <=> $1::vector,
			chunk_index
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, vectorStr, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.PolicyChunk
	for rows.Next() {
		var chunk models.PolicyChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.SourceDocument,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.Distance,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policy chunks: %w", err)
	}

	return chunks, nil
}

// Count returns the number of chunks in the index
func (r *PolicyChunkRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM policy_chunks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count policy chunks: %w", err)
	}
	return count, nil
}
