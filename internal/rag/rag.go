// Package rag wires the chunker, embedder, vector store and generator into
// the two flows the service offers: rebuilding the index and answering chat
// questions about the CV.
package rag

import (
	"context"

	"portfolio-rag/internal/llmservice"
	"portfolio-rag/internal/models"
)

// VectorStore is implemented by db.Store and chromemdb.VectorDBManager.
type VectorStore interface {
	SimilaritySearch(ctx context.Context, vec []float32, k int) ([]models.MatchResult, error)
	InsertAll(ctx context.Context, chunks []models.Chunk) error
	DeleteAll(ctx context.Context) error
}

// Embedder is implemented by embedding.Client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Responder is implemented by llmservice.Generator.
type Responder interface {
	GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error)
	GenerateStreamingResponse(ctx context.Context, systemPrompt, userMessage string) *llmservice.Stream
}
