package models

import (
	"time"

	"github.com/google/uuid"
)

// PolicyChunk represents a segment of the company policy document stored in
// the knowledge base together with its embedding
type PolicyChunk struct {
	ID             uuid.UUID `json:"id"`
	SourceDocument string    `json:"source_document"`
	ChunkIndex     int       `json:"chunk_index"`
	Text           string    `json:"text"`
	Embedding      []float64 `json:"-"`
	Distance       float64   `json:"distance,omitempty"` // Vector similarity distance
	CreatedAt      time.Time `json:"created_at"`
}
