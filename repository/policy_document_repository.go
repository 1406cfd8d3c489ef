package repository

import (
	"context"
	"errors"

	"leaveflow-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PolicyDocumentRepository records ingested policy documents
type PolicyDocumentRepository struct {
	db *pgxpool.Pool
}

// NewPolicyDocumentRepository creates a new policy document repository
func NewPolicyDocumentRepository(db *pgxpool.Pool) *PolicyDocumentRepository {
	return &PolicyDocumentRepository{db: db}
}

// Create records a successfully ingested policy document. The caller
// assigns the ID so it can match the document's archive path.
func (r *PolicyDocumentRepository) Create(ctx context.Context, doc *models.PolicyDocument) error {
	query := `
		INSERT INTO policy_documents (id, filename, size, chunk_count, storage_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ingested_at`

	return r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.Filename,
		doc.Size,
		doc.ChunkCount,
		doc.StoragePath,
	).Scan(&doc.IngestedAt)
}

// GetLatest returns the most recently ingested policy document
func (r *PolicyDocumentRepository) GetLatest(ctx context.Context) (*models.PolicyDocument, error) {
	doc := &models.PolicyDocument{}
	query := `
		SELECT id, filename, size, chunk_count, storage_path, ingested_at
		FROM policy_documents
		ORDER BY ingested_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query).Scan(
		&doc.ID,
		&doc.Filename,
		&doc.Size,
		&doc.ChunkCount,
		&doc.StoragePath,
		&doc.IngestedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return doc, nil
}
