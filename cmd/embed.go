package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"portfolio-rag/internal/helper"
	"portfolio-rag/internal/parser"
	"portfolio-rag/internal/rag"
)

func embedCMD(cfgPath *string) *cobra.Command {
	var dryRun bool
	var resumePath string
	embed := &cobra.Command{
		Use:   "embed",
		Short: "Rebuild the vector index from the CV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if resumePath != "" {
				cfg.ResumePath = resumePath
			}

			if dryRun {
				resume, err := parser.LoadResume(cfg.ResumePath)
				if err != nil {
					return err
				}
				chunks := parser.ChunkResume(resume)
				log.Info().Int("chunks", len(chunks)).Strs("sections", parser.SectionNames(chunks)).Msg("Parsed resume")
				helper.PrettyPrint(chunks)
				return nil
			}

			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			embedder, err := newEmbedder(cfg)
			if err != nil {
				return err
			}

			summary := rag.NewPipeline(rag.FileLoader(cfg.ResumePath), embedder, store, nil).Run(ctx)
			helper.PrettyPrint(summary)
			if !summary.Success {
				return errors.New(summary.Error)
			}
			return nil
		},
	}
	embed.Flags().BoolVar(&dryRun, "dry-run", false, "print the chunks without embedding or storing them")
	embed.Flags().StringVar(&resumePath, "file", "", "resume file (overrides resume_path)")
	return embed
}
