package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"portfolio-rag/internal/llmservice"
	"portfolio-rag/internal/metrics"
	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/server"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat and embed HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			embedder, err := newEmbedder(cfg)
			if err != nil {
				return err
			}
			generator, err := llmservice.NewGenerator(&cfg.LLM, cfg.Chat.WordBudget, nil)
			if err != nil {
				return err
			}
			limiter, closeLimiter, err := newLimiter(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeLimiter()
			opts, err := chatOptions(cfg)
			if err != nil {
				return err
			}

			m := metrics.New()
			chat := rag.NewChat(embedder, store, generator, limiter, opts, m)
			pipeline := rag.NewPipeline(rag.FileLoader(cfg.ResumePath), embedder, store, m)
			return server.New(cfg, chat, pipeline, m).Run(ctx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return serve
}
