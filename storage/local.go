package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalArchive implements Archive on the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a new local archive instance
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &LocalArchive{
		basePath: basePath,
	}, nil
}

// Store saves a document locally
func (a *LocalArchive) Store(ctx context.Context, docID uuid.UUID, filename string, data io.Reader) (string, error) {
	storagePath := archivePath(docID, filename)
	fullPath := filepath.Join(a.basePath, storagePath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath) // Clean up on error
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return storagePath, nil
}

// Retrieve opens an archived document
func (a *LocalArchive) Retrieve(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath := filepath.Join(a.basePath, storagePath)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document not found: %s", storagePath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes an archived document
func (a *LocalArchive) Delete(ctx context.Context, storagePath string) error {
	fullPath := filepath.Join(a.basePath, storagePath)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
