package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultEmbeddingModel  = "text-embedding-004"
	defaultGenerationModel = "gemini-2.0-flash"
	defaultTimeout         = 60 * time.Second
)

// GeminiClient implements Embedder and Completer on top of the Gemini API
type GeminiClient struct {
	client          *genai.Client
	embeddingModel  string
	generationModel string
	timeout         time.Duration
}

// GeminiOption is a functional option for GeminiClient
type GeminiOption func(*GeminiClient)

// WithEmbeddingModel overrides the embedding model name
func WithEmbeddingModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		c.embeddingModel = model
	}
}

// WithGenerationModel overrides the generation model name
func WithGenerationModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		c.generationModel = model
	}
}

// WithTimeout bounds each upstream call
func WithTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClient) {
		c.timeout = d
	}
}

// NewGeminiClient creates a Gemini client using the GEMINI_API_KEY
// environment variable
func NewGeminiClient(ctx context.Context, opts ...GeminiOption) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{
		client:          client,
		embeddingModel:  defaultEmbeddingModel,
		generationModel: defaultGenerationModel,
		timeout:         defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Embed generates an L2-normalized embedding vector for text
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding call failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("embedding call returned no values")
	}

	embedding := make([]float64, len(res.Embedding.Values))
	norm := 0.0
	for i, v := range res.Embedding.Values {
		embedding[i] = float64(v)
		norm += embedding[i] * embedding[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}

	return embedding, nil
}

// Complete invokes the generation model with temperature 0 and returns the
// concatenated text parts of the first candidate
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	gm := c.client.GenerativeModel(c.generationModel)
	gm.SetTemperature(0)

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("generation call returned no candidates")
	}

	var out string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	if out == "" {
		return "", errors.New("generation call returned empty content")
	}

	return out, nil
}

// Close releases the underlying API client
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
