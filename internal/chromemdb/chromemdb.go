package chromemdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/config"
	"portfolio-rag/internal/helper"
	"portfolio-rag/internal/models"
)

// chromem metadata is string-only, so the chunk metadata travels as JSON
const (
	metaSection = "section"
	metaIndex   = "index"
	metaJSON    = "metadata"
)

// VectorDBManager is the chromem-go vector store, used when no Postgres is around.
type VectorDBManager struct {
	mu            sync.RWMutex
	db            *chromem.DB
	collection    *chromem.Collection
	name          string
	compress      bool
	encryptionKey string
	exportPath    string
}

// NewVectorDBManager opens an in-memory or on-disk chromem database. An
// in-memory database is seeded from the export snapshot when one exists.
func NewVectorDBManager(cfg *config.ChromemConfig) (*VectorDBManager, error) {
	var db *chromem.DB
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		if err := helper.CreateFolder(cfg.Path); err != nil {
			return nil, err
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	m := &VectorDBManager{
		db:            db,
		name:          cfg.Collection,
		compress:      cfg.Compress,
		encryptionKey: cfg.EncryptionKey,
		exportPath:    cfg.ExportPath,
	}

	if cfg.InMemory && m.exportPath != "" {
		if _, err := os.Stat(m.exportPath); err == nil {
			if err := db.ImportFromFile(m.exportPath, m.encryptionKey, m.name); err != nil {
				return nil, fmt.Errorf("failed to import snapshot: %w", err)
			}
			log.Info().Str("path", m.exportPath).Msg("Imported vector snapshot")
		}
	}

	if _, err := m.getOrCreateCollection(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *VectorDBManager) getOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.mu.Lock()
	m.collection = c
	m.mu.Unlock()
	return c, nil
}

func (m *VectorDBManager) current() *chromem.Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collection
}

// Count returns the number of stored chunks.
func (m *VectorDBManager) Count() int {
	return m.current().Count()
}

// SimilaritySearch returns at most k chunks ranked by cosine similarity.
func (m *VectorDBManager) SimilaritySearch(ctx context.Context, vec []float32, k int) ([]models.MatchResult, error) {
	c := m.current()
	// chromem rejects nResults above the collection size
	n := min(k, c.Count())
	if n <= 0 {
		return []models.MatchResult{}, nil
	}

	results, err := c.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, apperr.StoreQuery("chromemdb.SimilaritySearch", err)
	}

	matches := make([]models.MatchResult, 0, len(results))
	for _, r := range results {
		meta := map[string]any{}
		if raw := r.Metadata[metaJSON]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &meta); err != nil {
				return nil, apperr.StoreQuery("chromemdb.SimilaritySearch", fmt.Errorf("decode metadata of %s: %w", r.ID, err))
			}
		}
		matches = append(matches, models.MatchResult{
			ID:         r.ID,
			Content:    r.Content,
			Section:    models.Section(r.Metadata[metaSection]),
			Metadata:   meta,
			Similarity: float64(r.Similarity),
		})
	}
	models.SortMatches(matches)
	return matches, nil
}

// InsertAll adds every chunk, then refreshes the export snapshot if one is configured.
func (m *VectorDBManager) InsertAll(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return apperr.StoreWrite("chromemdb.InsertAll", fmt.Errorf("chunk %d has no embedding", i))
		}
		id, err := helper.GenerateUUID()
		if err != nil {
			return apperr.StoreWrite("chromemdb.InsertAll", err)
		}
		metaJSONBytes, err := json.Marshal(c.Metadata)
		if err != nil {
			return apperr.StoreWrite("chromemdb.InsertAll", err)
		}
		docs = append(docs, chromem.Document{
			ID:      id,
			Content: c.Content,
			Metadata: map[string]string{
				metaSection: string(c.Section),
				metaIndex:   strconv.Itoa(c.Index()),
				metaJSON:    string(metaJSONBytes),
			},
			Embedding: c.Embedding,
		})
	}

	log.Info().Msgf("Adding %d documents to vector database", len(docs))
	if err := m.current().AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return apperr.StoreWrite("chromemdb.InsertAll", err)
	}

	if m.exportPath != "" {
		if err := m.Export(); err != nil {
			return apperr.StoreWrite("chromemdb.InsertAll", err)
		}
	}
	return nil
}

// DeleteAll drops the collection and starts an empty one under the same name.
func (m *VectorDBManager) DeleteAll(_ context.Context) error {
	if err := m.db.DeleteCollection(m.name); err != nil {
		return apperr.StoreWrite("chromemdb.DeleteAll", fmt.Errorf("failed to drop collection: %w", err))
	}
	if _, err := m.getOrCreateCollection(); err != nil {
		return apperr.StoreWrite("chromemdb.DeleteAll", err)
	}
	return nil
}

// Export writes the collection to the snapshot file, encrypted when a key is set.
func (m *VectorDBManager) Export() error {
	if m.exportPath == "" {
		return errors.New("export path is required")
	}
	log.Debug().
		Str("collection", m.name).
		Str("path", m.exportPath).
		Bool("compress", m.compress).
		Bool("encrypted", m.encryptionKey != "").
		Msg("Exporting collection")
	if err := m.db.ExportToFile(m.exportPath, m.compress, m.encryptionKey, m.name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}
