package models

import (
	"time"

	"github.com/google/uuid"
)

// PolicyDocument records an uploaded policy file and where its original
// bytes are archived. Only derived chunks are used for retrieval; the raw
// document is kept for audit.
type PolicyDocument struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ChunkCount  int       `json:"chunk_count"`
	StoragePath string    `json:"storage_path"`
	IngestedAt  time.Time `json:"ingested_at"`
}
