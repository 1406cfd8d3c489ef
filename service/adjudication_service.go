package service

import (
	"context"
	"errors"
	"fmt"

	"leaveflow-backend/llm"
	"leaveflow-backend/models"
	"leaveflow-backend/rag"
)

var (
	ErrEmbeddingService = errors.New("embedding service call failed")
	ErrNoPolicy         = errors.New("policy knowledge base is empty")
	ErrModelInvocation  = errors.New("language model call failed")
)

// defaultTopK is the number of policy chunks retrieved per adjudication
const defaultTopK = 4

// PolicyIndex is the searchable knowledge base over policy chunks. The
// pgvector repository implements it for production; the in-memory store
// backs tests and development.
type PolicyIndex interface {
	ReplaceAll(ctx context.Context, chunks []models.PolicyChunk) error
	Search(ctx context.Context, embedding []float64, k int) ([]models.PolicyChunk, error)
	Count(ctx context.Context) (int, error)
}

// AdjudicationService evaluates a leave justification against the ingested
// company policy: retrieve similar chunks, build the decision prompt, invoke
// the model, parse the reply into a verdict.
type AdjudicationService struct {
	embedder  llm.Embedder
	completer llm.Completer
	index     PolicyIndex
	topK      int
}

// AdjudicationServiceOption is a functional option for AdjudicationService
type AdjudicationServiceOption func(*AdjudicationService)

// AdjudicationWithEmbedder sets the embedding client
func AdjudicationWithEmbedder(e llm.Embedder) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.embedder = e
	}
}

// AdjudicationWithCompleter sets the completion client
func AdjudicationWithCompleter(c llm.Completer) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.completer = c
	}
}

// AdjudicationWithIndex sets the policy knowledge base
func AdjudicationWithIndex(index PolicyIndex) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.index = index
	}
}

// AdjudicationWithTopK sets the number of chunks retrieved per request
func AdjudicationWithTopK(k int) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		if k >= 1 {
			s.topK = k
		}
	}
}

// NewAdjudicationService creates a new adjudication service
func NewAdjudicationService(opts ...AdjudicationServiceOption) *AdjudicationService {
	s := &AdjudicationService{topK: defaultTopK}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Adjudicate runs the full pipeline for one justification. The stages are
// strictly sequential; each depends on the previous stage's output. Typed
// errors propagate unchanged, and a model reply that cannot be parsed comes
// back as VerdictUnparseable rather than an error -- no failure path ever
// resolves to an approval.
func (s *AdjudicationService) Adjudicate(ctx context.Context, justification string) (*rag.Decision, error) {
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if s.completer == nil {
		return nil, errors.New("completer not set")
	}
	if s.index == nil {
		return nil, errors.New("policy index not set")
	}

	chunks, err := s.retrieve(ctx, justification)
	if err != nil {
		return nil, err
	}

	prompt := rag.BuildDecisionPrompt(chunks, justification)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}

	decision := rag.ParseDecision(raw)
	return &decision, nil
}

// retrieve embeds the justification and returns the top-K most similar
// policy chunk texts, most similar first. An empty knowledge base is an
// error, not an empty context: adjudicating without policy context would
// silently change the decision semantics.
func (s *AdjudicationService) retrieve(ctx context.Context, query string) ([]string, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPolicy, err)
	}
	if count == 0 {
		return nil, ErrNoPolicy
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}

	chunks, err := s.index.Search(ctx, embedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search policy index: %w", err)
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	return texts, nil
}
