package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Archive keeps the original bytes of ingested policy documents. Retrieval
// runs entirely off the derived chunks; the archive exists so the canonical
// upload can be audited or re-ingested later.
type Archive interface {
	// Store saves a document and returns the storage path
	Store(ctx context.Context, docID uuid.UUID, filename string, data io.Reader) (string, error)

	// Retrieve opens an archived document by storage path
	Retrieve(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an archived document by storage path
	Delete(ctx context.Context, storagePath string) error
}

// ArchiveType represents the archive backend type
type ArchiveType string

const (
	ArchiveTypeLocal ArchiveType = "local"
	ArchiveTypeS3    ArchiveType = "s3"
)

// ArchiveConfig holds configuration for the archive
type ArchiveConfig struct {
	Type         ArchiveType
	LocalPath    string // For local archive
	S3Bucket     string // For S3 archive
	S3Region     string // For S3 archive
	AWSAccessKey string
	AWSSecretKey string
}

// NewArchiveFromEnv creates an archive instance from environment variables
func NewArchiveFromEnv() (Archive, error) {
	archiveType := os.Getenv("POLICY_ARCHIVE_TYPE")
	if archiveType == "" {
		archiveType = "local" // Default to local for development
	}

	cfg := ArchiveConfig{
		Type: ArchiveType(archiveType),
	}

	switch ArchiveType(archiveType) {
	case ArchiveTypeLocal:
		localPath := os.Getenv("POLICY_ARCHIVE_PATH")
		if localPath == "" {
			localPath = "./storage/policies"
		}
		cfg.LocalPath = localPath
		return NewLocalArchive(cfg.LocalPath)

	case ArchiveTypeS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1" // Default region
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 archive")
		}

		return NewS3Archive(cfg)

	default:
		return nil, fmt.Errorf("unknown archive type: %s", archiveType)
	}
}

// archivePath generates a unique storage path for a document
func archivePath(docID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	baseName := strings.TrimSuffix(filename, ext)
	// Sanitize filename
	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = strings.ReplaceAll(baseName, "/", "_")
	baseName = strings.ReplaceAll(baseName, "\\", "_")

	// Use docID to ensure uniqueness
	return fmt.Sprintf("%s/%s_%s%s", docID.String()[:2], docID.String(), baseName, ext)
}
