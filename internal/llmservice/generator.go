package llmservice

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog/log"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/config"
)

// Generator answers questions through an OpenAI-compatible chat endpoint
// (OpenRouter by default).
type Generator struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
	wordBudget  int
}

// NewGenerator builds the chat client. SDK retries are off: a failed call is
// reported to the visitor straight away.
func NewGenerator(cfg *config.LLMConfig, wordBudget int, httpClient *http.Client) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.Config("llmservice.NewGenerator", errors.New("llm api key is not set"))
	}

	log.Debug().Interface("llmConfig", map[string]any{
		"base_url":   cfg.BaseURL,
		"model":      cfg.Model,
		"max_tokens": cfg.MaxTokens,
		"timeout":    cfg.Timeout.String(),
	}).Msg("Loaded llm config")

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteTitle != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteTitle))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	temperature := config.DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	return &Generator{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: temperature,
		wordBudget:  wordBudget,
	}, nil
}

func (g *Generator) params(systemPrompt, userMessage string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
		MaxTokens:   openai.Int(g.maxTokens),
		Temperature: openai.Float(g.temperature),
	}
}

// GenerateResponse makes one completion call and returns the cleaned answer.
func (g *Generator) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, g.params(systemPrompt, userMessage))
	if err != nil {
		return "", apperr.Generation("llmservice.GenerateResponse", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperr.Generation("llmservice.GenerateResponse", errors.New("no response content from llm"))
	}

	log.Debug().
		Str("model", resp.Model).
		Int64("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Generated response")
	return PostProcess(resp.Choices[0].Message.Content, g.wordBudget), nil
}

// GenerateStreamingResponse starts a streamed completion. Cancelling ctx
// stops production; the caller must Close the stream.
func (g *Generator) GenerateStreamingResponse(ctx context.Context, systemPrompt, userMessage string) *Stream {
	stream := g.client.Chat.Completions.NewStreaming(ctx, g.params(systemPrompt, userMessage))
	return NewStream(chunkSource{stream: stream}, g.wordBudget)
}
