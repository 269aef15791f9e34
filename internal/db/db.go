package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/config"
	"portfolio-rag/internal/models"
)

// CVEmbedding is one stored chunk. Schema is owned by the migrations.
type CVEmbedding struct {
	bun.BaseModel `bun:"table:cv_embeddings,alias:e"`
	ID            string          `bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	Content       string          `bun:"content,notnull"`
	Section       string          `bun:"section,notnull"`
	Metadata      map[string]any  `bun:"metadata,type:jsonb"`
	Embedding     pgvector.Vector `bun:"embedding,type:vector(1536)"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type matchRow struct {
	ID         string         `bun:"id"`
	Content    string         `bun:"content"`
	Section    string         `bun:"section"`
	Metadata   map[string]any `bun:"metadata"`
	Similarity float64        `bun:"similarity"`
}

// Store is the Postgres (Supabase) vector store.
type Store struct {
	db *bun.DB
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database with pgdriver, or lib/pq when configured.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, apperr.Config("db.ConnectDB", errors.New("database url is not set"))
	}
	if cfg.Driver == config.DriverPq {
		dsn, err := DSNWithPassword(cfg.URL, cfg.Password)
		if err != nil {
			return nil, err
		}
		return sql.Open("postgres", dsn)
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.URL)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

// DSNWithPassword injects password into a postgres:// URL that lacks one.
func DSNWithPassword(dsn, password string) (string, error) {
	if password == "" {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	if u.User == nil {
		return dsn, nil
	}
	if _, ok := u.User.Password(); ok {
		return dsn, nil
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String(), nil
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SimilaritySearch runs match_cv_embeddings and returns at most k rows.
func (s *Store) SimilaritySearch(ctx context.Context, vec []float32, k int) ([]models.MatchResult, error) {
	var rows []matchRow
	err := s.db.NewRaw(
		"SELECT id, content, section, metadata, similarity FROM match_cv_embeddings(?::vector, ?)",
		pgvector.NewVector(vec), k,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, apperr.StoreQuery("db.SimilaritySearch", err)
	}

	results := make([]models.MatchResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, models.MatchResult{
			ID:         r.ID,
			Content:    r.Content,
			Section:    models.Section(r.Section),
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}
	models.SortMatches(results)
	log.Debug().Int("matches", len(results)).Int("k", k).Msg("Similarity search")
	return results, nil
}

// InsertAll writes every chunk in a single statement.
func (s *Store) InsertAll(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	records := make([]CVEmbedding, 0, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return apperr.StoreWrite("db.InsertAll", fmt.Errorf("chunk %d has no embedding", i))
		}
		records = append(records, CVEmbedding{
			Content:   c.Content,
			Section:   string(c.Section),
			Metadata:  c.Metadata,
			Embedding: pgvector.NewVector(c.Embedding),
		})
	}
	if _, err := s.db.NewInsert().Model(&records).Returning("NULL").Exec(ctx); err != nil {
		return apperr.StoreWrite("db.InsertAll", err)
	}
	log.Info().Int("rows", len(records)).Msg("Stored CV embeddings")
	return nil
}

// DeleteAll removes every stored chunk.
func (s *Store) DeleteAll(ctx context.Context) error {
	res, err := s.db.NewDelete().Model((*CVEmbedding)(nil)).Where("id IS NOT NULL").Exec(ctx)
	if err != nil {
		return apperr.StoreWrite("db.DeleteAll", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Debug().Int64("rows", n).Msg("Cleared CV embeddings")
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*CVEmbedding)(nil)).Count(ctx)
	if err != nil {
		return 0, apperr.StoreQuery("db.Count", err)
	}
	return n, nil
}
