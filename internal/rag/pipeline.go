package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"portfolio-rag/internal/metrics"
	"portfolio-rag/internal/models"
	"portfolio-rag/internal/parser"
)

// ResumeLoader returns the CV to index.
type ResumeLoader func() (*models.Resume, error)

// Pipeline rebuilds the vector index from the CV: delete everything, embed
// every chunk, insert everything. Re-running it converges to the same rows.
type Pipeline struct {
	mu       sync.Mutex
	load     ResumeLoader
	embedder Embedder
	store    VectorStore
	metrics  *metrics.Metrics
}

func NewPipeline(load ResumeLoader, embedder Embedder, store VectorStore, m *metrics.Metrics) *Pipeline {
	return &Pipeline{load: load, embedder: embedder, store: store, metrics: m}
}

// FileLoader loads the CV from path on every call, so edits are picked up
// without a restart.
func FileLoader(path string) ResumeLoader {
	return func() (*models.Resume, error) {
		return parser.LoadResume(path)
	}
}

// Run indexes the CV once. Runs in the same process are serialized.
func (p *Pipeline) Run(ctx context.Context) models.EmbedSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	chunks, err := p.run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Embed pipeline failed")
		p.metrics.EmbedRun(false, 0)
		return models.EmbedSummary{
			Success:        false,
			ChunksEmbedded: 0,
			Sections:       []string{},
			Error:          err.Error(),
		}
	}

	sections := parser.SectionNames(chunks)
	p.metrics.EmbedRun(true, len(chunks))
	log.Info().
		Int("chunks", len(chunks)).
		Strs("sections", sections).
		Dur("took", time.Since(start)).
		Msg("Embed pipeline finished")
	return models.EmbedSummary{
		Success:        true,
		ChunksEmbedded: len(chunks),
		Sections:       sections,
	}
}

func (p *Pipeline) run(ctx context.Context) ([]models.Chunk, error) {
	resume, err := p.load()
	if err != nil {
		return nil, fmt.Errorf("load resume: %w", err)
	}

	chunks := parser.ChunkResume(resume)
	if len(chunks) == 0 {
		return nil, errors.New("resume produced no chunks")
	}
	log.Debug().Int("chunks", len(chunks)).Msg("Chunked resume")

	if err := p.store.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("clear store: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embedStart := time.Now()
	vecs, err := p.embedder.EmbedBatch(ctx, texts)
	p.metrics.ObserveStage("embed_batch", embedStart)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}

	if err := p.store.InsertAll(ctx, chunks); err != nil {
		return nil, fmt.Errorf("insert chunks: %w", err)
	}
	return chunks, nil
}
