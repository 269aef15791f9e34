package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/config"
)

// Client turns text into fixed-size vectors.
type Client struct {
	embedder embeddings.Embedder
	dims     int
}

// NewEmbedder builds the langchaingo embedder for an OpenAI-compatible endpoint.
func NewEmbedder(cfg *config.EmbeddingConfig, httpClient *http.Client) (*embeddings.EmbedderImpl, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.Config("embedding.NewEmbedder", errors.New("embedding api key is not set"))
	}

	log.Debug().Interface("config", map[string]any{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
		"dimensions":      cfg.Dimensions,
	}).Msg("Loaded embedding config")

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(httpClient))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init embedding llm: %w", err)
	}
	// keep newlines: chunk text is embedded exactly as stored
	return embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(false))
}

// NewClient wraps any embedder and enforces the vector dimension.
func NewClient(embedder embeddings.Embedder, dims int) *Client {
	return &Client{embedder: embedder, dims: dims}
}

// Dimensions returns the enforced vector size.
func (c *Client) Dimensions() int {
	return c.dims
}

// Embed returns the vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, apperr.Embedding("embedding.Embed", err)
	}
	if err := c.checkDims(vec, 0); err != nil {
		return nil, apperr.Embedding("embedding.Embed", err)
	}
	return vec, nil
}

// EmbedBatch returns one vector per input, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vecs, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, apperr.Embedding("embedding.EmbedBatch", err)
	}
	if len(vecs) != len(texts) {
		return nil, apperr.Embedding("embedding.EmbedBatch",
			fmt.Errorf("provider returned %d vectors for %d inputs", len(vecs), len(texts)))
	}
	for i, v := range vecs {
		if err := c.checkDims(v, i); err != nil {
			return nil, apperr.Embedding("embedding.EmbedBatch", err)
		}
	}
	log.Debug().Int("count", len(vecs)).Msg("Generated embeddings")
	return vecs, nil
}

func (c *Client) checkDims(vec []float32, i int) error {
	if c.dims > 0 && len(vec) != c.dims {
		return fmt.Errorf("vector %d has %d dimensions, want %d", i, len(vec), c.dims)
	}
	return nil
}
