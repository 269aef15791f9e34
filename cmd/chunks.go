package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"portfolio-rag/internal/parser"
)

func chunksCMD(cfgPath *string) *cobra.Command {
	var full bool
	chunks := &cobra.Command{
		Use:   "chunks",
		Short: "Show how the CV is split into retrievable chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			resume, err := parser.LoadResume(cfg.ResumePath)
			if err != nil {
				return err
			}

			out := parser.ChunkResume(resume)
			log.Info().Int("chunks", len(out)).Strs("sections", parser.SectionNames(out)).Msg("Chunked resume")
			for _, c := range out {
				if full {
					fmt.Printf("#%d [%s]\n%s\n\n", c.Index(), c.Section, c.Content)
					continue
				}
				first, _, _ := strings.Cut(c.Content, "\n")
				fmt.Printf("#%-3d %-22s %5d  %s\n", c.Index(), c.Section, len([]rune(c.Content)), first)
			}
			return nil
		},
	}
	chunks.Flags().BoolVar(&full, "full", false, "print the full chunk text")
	return chunks
}
