package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"portfolio-rag/internal/chromemdb"
	"portfolio-rag/internal/config"
	"portfolio-rag/internal/db"
	"portfolio-rag/internal/embedding"
	"portfolio-rag/internal/parser"
	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/ratelimit"
)

func noopClose() error { return nil }

// openStore connects the configured vector store backend.
func openStore(ctx context.Context, cfg *config.Config) (rag.VectorStore, func() error, error) {
	switch cfg.VectorStore.Backend {
	case config.BackendChromem:
		m, err := chromemdb.NewVectorDBManager(&cfg.Chromem)
		if err != nil {
			return nil, nil, fmt.Errorf("open chromem store: %w", err)
		}
		log.Info().Str("collection", cfg.Chromem.Collection).Int("documents", m.Count()).Msg("Using chromem vector store")
		return m, noopClose, nil
	default:
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		bunDB := db.NewDB(sqldb, cfg.Database.Debug)
		if err := bunDB.PingContext(ctx); err != nil {
			_ = bunDB.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("Using postgres vector store")
		store := db.NewStore(bunDB)
		return store, store.Close, nil
	}
}

func newEmbedder(cfg *config.Config) (*embedding.Client, error) {
	e, err := embedding.NewEmbedder(&cfg.Embedding, nil)
	if err != nil {
		return nil, err
	}
	return embedding.NewClient(e, cfg.Embedding.Dimensions), nil
}

// newLimiter builds the chat rate limiter on the configured store.
func newLimiter(ctx context.Context, cfg *config.Config) (*ratelimit.Limiter, func() error, error) {
	var store ratelimit.Store
	closer := noopClose
	switch cfg.RateLimit.Backend {
	case config.LimiterRedis:
		rdb, err := ratelimit.Conn(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		store = ratelimit.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
		closer = rdb.Close
	default:
		store = ratelimit.NewMemoryStore(cfg.RateLimit.MaxEntries)
	}

	limiter, err := ratelimit.New(store, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	log.Info().
		Str("backend", cfg.RateLimit.Backend).
		Int("limit", cfg.RateLimit.Limit).
		Dur("window", cfg.RateLimit.Window).
		Msg("Rate limiter ready")
	return limiter, closer, nil
}

// chatOptions falls back to the CV's own name when no owner is configured.
func chatOptions(cfg *config.Config) (rag.ChatOptions, error) {
	owner := cfg.Chat.OwnerName
	if owner == "" {
		resume, err := parser.LoadResume(cfg.ResumePath)
		if err != nil {
			return rag.ChatOptions{}, fmt.Errorf("resolve owner name: %w", err)
		}
		owner = resume.Contact.Name
	}
	return rag.ChatOptions{
		OwnerName:   owner,
		TopK:        cfg.Chat.TopK,
		PromptWords: cfg.Chat.PromptWords,
		MaxLength:   cfg.Chat.MaxLength,
	}, nil
}
