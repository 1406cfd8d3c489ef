package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"leaveflow-backend/llm"
	"leaveflow-backend/models"
	"leaveflow-backend/rag"
	"leaveflow-backend/repository"
	"leaveflow-backend/storage"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

var (
	ErrEmptyDocument     = errors.New("policy document contains no extractable text")
	ErrUnsupportedFormat = errors.New("unsupported policy document format")
)

// IngestionService turns an uploaded policy document into the searchable
// knowledge base: extract text, chunk, embed, and replace the index
// wholesale. The original upload is archived for audit.
type IngestionService struct {
	embedder llm.Embedder
	chunker  *rag.Chunker
	index    PolicyIndex
	archive  storage.Archive
	docRepo  *repository.PolicyDocumentRepository
}

// IngestionServiceOption is a functional option for IngestionService
type IngestionServiceOption func(*IngestionService)

// IngestionWithEmbedder sets the embedding client
func IngestionWithEmbedder(e llm.Embedder) IngestionServiceOption {
	return func(s *IngestionService) {
		s.embedder = e
	}
}

// IngestionWithChunker sets the document chunker
func IngestionWithChunker(c *rag.Chunker) IngestionServiceOption {
	return func(s *IngestionService) {
		s.chunker = c
	}
}

// IngestionWithIndex sets the policy knowledge base
func IngestionWithIndex(index PolicyIndex) IngestionServiceOption {
	return func(s *IngestionService) {
		s.index = index
	}
}

// IngestionWithArchive sets the document archive
func IngestionWithArchive(a storage.Archive) IngestionServiceOption {
	return func(s *IngestionService) {
		s.archive = a
	}
}

// IngestionWithDocumentRepository sets the policy document repository
func IngestionWithDocumentRepository(repo *repository.PolicyDocumentRepository) IngestionServiceOption {
	return func(s *IngestionService) {
		s.docRepo = repo
	}
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(opts ...IngestionServiceOption) *IngestionService {
	s := &IngestionService{
		chunker: rag.NewChunker(rag.DefaultChunkSize, rag.DefaultChunkOverlap),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestResult reports the outcome of a policy ingestion
type IngestResult struct {
	DocumentID uuid.UUID
	ChunkCount int
}

// IngestPolicyDocument ingests a policy PDF. The whole build fails if any
// chunk cannot be embedded; a partial index degrades retrieval quality in
// ways that are hard to detect later, so nothing is committed on error.
func (s *IngestionService) IngestPolicyDocument(ctx context.Context, data []byte, filename string) (*IngestResult, error) {
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if s.index == nil {
		return nil, errors.New("policy index not set")
	}

	text, err := extractPDFText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	return s.ingestText(ctx, text, data, filename)
}

// ingestText runs the chunk, embed, and index-replacement stages on already
// extracted text
func (s *IngestionService) ingestText(ctx context.Context, text string, data []byte, filename string) (*IngestResult, error) {
	segments := s.chunker.Split(text)
	if len(segments) == 0 {
		return nil, ErrEmptyDocument
	}

	docID := uuid.New()

	chunks := make([]models.PolicyChunk, 0, len(segments))
	for i, segment := range segments {
		embedding, err := s.embedder.Embed(ctx, segment)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", ErrEmbeddingService, i, err)
		}
		chunks = append(chunks, models.PolicyChunk{
			ID:             uuid.New(),
			SourceDocument: filename,
			ChunkIndex:     i,
			Text:           segment,
			Embedding:      embedding,
		})
	}

	if err := s.index.ReplaceAll(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to replace policy index: %w", err)
	}

	// Archive the original upload. The index is already live at this point,
	// so archive failures are logged rather than failing the ingestion.
	storagePath := ""
	if s.archive != nil {
		path, err := s.archive.Store(ctx, docID, filename, bytes.NewReader(data))
		if err != nil {
			log.Printf("Warning: Failed to archive policy document %s: %v", filename, err)
		} else {
			storagePath = path
		}
	}

	if s.docRepo != nil {
		previous, prevErr := s.docRepo.GetLatest(ctx)

		doc := &models.PolicyDocument{
			ID:          docID,
			Filename:    filename,
			Size:        int64(len(data)),
			ChunkCount:  len(chunks),
			StoragePath: storagePath,
		}
		if err := s.docRepo.Create(ctx, doc); err != nil {
			log.Printf("Warning: Failed to record policy document %s: %v", filename, err)
		} else {
			// Only the current policy is kept in the archive.
			if prevErr == nil && previous.StoragePath != "" && previous.StoragePath != storagePath && s.archive != nil {
				if err := s.archive.Delete(ctx, previous.StoragePath); err != nil {
					log.Printf("Warning: Failed to remove superseded policy archive %s: %v", previous.StoragePath, err)
				}
			}
		}
	}

	return &IngestResult{
		DocumentID: docID,
		ChunkCount: len(chunks),
	}, nil
}

// extractPDFText extracts plain text from a PDF byte stream
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("Warning: Failed to extract text from page %d: %v", pageNum, err)
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n\n")
	}

	return builder.String(), nil
}
