package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"portfolio-rag/internal/llmservice"
	"portfolio-rag/internal/rag"
)

func askCMD(cfgPath *string) *cobra.Command {
	var stream bool
	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the CV a question from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			query := strings.Join(args, " ")

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
			opts, err := chatOptions(cfg)
			if err != nil {
				return err
			}
			chat := rag.NewChat(embedder, store, generator, nil, opts, nil)

			if !stream {
				response, err := chat.Ask(ctx, query)
				if err != nil {
					return err
				}
				log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
				fmt.Printf("%s\n\n", response.Query)
				log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
				fmt.Printf("%s\n\n", response.Source)
				log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
				fmt.Printf("%s\n\n", response.Content)
				return nil
			}

			sess, err := chat.Prepare(ctx, "cli", query)
			if err != nil {
				return err
			}
			s := chat.Stream(ctx, sess)
			defer s.Close()
			log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
			for s.Next() {
				fmt.Print(s.Text())
			}
			fmt.Println()
			if err := s.Err(); err != nil {
				sess.Fail(err)
				return err
			}
			sess.Done()
			return nil
		},
	}
	ask.Flags().BoolVar(&stream, "stream", false, "print the answer as it is generated")
	return ask
}
