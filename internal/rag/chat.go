package rag

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/llmservice"
	"portfolio-rag/internal/metrics"
	"portfolio-rag/internal/models"
	"portfolio-rag/internal/ratelimit"
)

// ChatState is where a chat request is in its lifecycle. Errored absorbs.
type ChatState int

const (
	StateReceived ChatState = iota
	StateRateChecked
	StateValidated
	StateSanitized
	StateEmbedded
	StateRetrieved
	StatePromptBuilt
	StateGenerated
	StateResponded
	StateErrored
)

var chatStateNames = [...]string{
	"received", "rate_checked", "validated", "sanitized", "embedded",
	"retrieved", "prompt_built", "generated", "responded", "errored",
}

func (s ChatState) String() string {
	if s < 0 || int(s) >= len(chatStateNames) {
		return fmt.Sprintf("ChatState(%d)", int(s))
	}
	return chatStateNames[s]
}

type ChatOptions struct {
	OwnerName   string
	TopK        int
	PromptWords int
	MaxLength   int
}

// Chat answers visitor questions from the indexed CV.
type Chat struct {
	embedder  Embedder
	store     VectorStore
	responder Responder
	limiter   *ratelimit.Limiter
	opts      ChatOptions
	metrics   *metrics.Metrics
}

// NewChat builds the chat service. A nil limiter disables rate limiting,
// which the CLI relies on.
func NewChat(embedder Embedder, store VectorStore, responder Responder, limiter *ratelimit.Limiter, opts ChatOptions, m *metrics.Metrics) *Chat {
	if opts.TopK <= 0 {
		opts.TopK = models.TopK
	}
	if opts.PromptWords <= 0 {
		opts.PromptWords = llmservice.DefaultPromptWords
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = models.MaxMessageLength
	}
	return &Chat{
		embedder:  embedder,
		store:     store,
		responder: responder,
		limiter:   limiter,
		opts:      opts,
		metrics:   m,
	}
}

// Session carries one request through its states.
type Session struct {
	ClientID     string
	State        ChatState
	Message      string
	Matches      []models.MatchResult
	Context      string
	SystemPrompt string
	started      time.Time
}

func (s *Session) advance(next ChatState) {
	if s.State == StateErrored {
		return
	}
	log.Debug().
		Str("client", s.ClientID).
		Stringer("from", s.State).
		Stringer("to", next).
		Msg("Chat state")
	s.State = next
}

// Fail moves the session to Errored.
func (s *Session) Fail(err error) {
	if s.State == StateErrored {
		return
	}
	log.Error().
		Err(err).
		Str("client", s.ClientID).
		Stringer("state", s.State).
		Str("code", string(apperr.CodeOf(err))).
		Msg("Chat request failed")
	s.State = StateErrored
}

// Done marks the answer as delivered.
func (s *Session) Done() {
	s.advance(StateResponded)
	log.Info().
		Str("client", s.ClientID).
		Int("matches", len(s.Matches)).
		Dur("took", time.Since(s.started)).
		Msg("Chat answered")
}

// Prepare takes a request from Received to PromptBuilt: rate check,
// validation, sanitization, question embedding, retrieval and prompt.
func (c *Chat) Prepare(ctx context.Context, clientID string, message any) (*Session, error) {
	s := &Session{ClientID: clientID, State: StateReceived, started: time.Now()}

	if c.limiter != nil {
		d, err := c.limiter.Allow(ctx, clientID)
		if err != nil {
			s.Fail(err)
			return s, err
		}
		if !d.Allowed {
			log.Info().Str("client", clientID).Int("count", d.Count).Msg("Rate limit exceeded")
			err := apperr.New(apperr.KindRateLimited, apperr.CodeRateLimited, "rag.Prepare", nil)
			s.Fail(err)
			return s, err
		}
	}
	s.advance(StateRateChecked)

	msg, ok := ValidateMessage(message)
	if !ok {
		log.Warn().Str("client", clientID).Msg("Invalid message received")
		err := apperr.New(apperr.KindValidation, apperr.CodeInvalidMessage, "rag.Prepare", nil)
		s.Fail(err)
		return s, err
	}
	s.advance(StateValidated)

	s.Message = SanitizeInput(msg, c.opts.MaxLength)
	if strings.TrimFunc(s.Message, isTrimSpace) == "" {
		log.Warn().Str("client", clientID).Msg("Message empty after sanitizing")
		err := apperr.New(apperr.KindValidation, apperr.CodeInvalidMessage, "rag.Prepare", nil)
		s.Fail(err)
		return s, err
	}
	s.advance(StateSanitized)

	start := time.Now()
	vec, err := c.embedder.Embed(ctx, s.Message)
	c.metrics.ObserveStage("embed", start)
	if err != nil {
		err = upstream(err, apperr.Embedding, "rag.Prepare")
		s.Fail(err)
		return s, err
	}
	s.advance(StateEmbedded)

	start = time.Now()
	matches, err := c.store.SimilaritySearch(ctx, vec, c.opts.TopK)
	c.metrics.ObserveStage("retrieve", start)
	if err != nil {
		err = upstream(err, apperr.StoreQuery, "rag.Prepare")
		s.Fail(err)
		return s, err
	}
	s.Matches = matches
	s.advance(StateRetrieved)

	s.Context = BuildContext(matches)
	s.SystemPrompt = llmservice.BuildSystemPromptWords(c.opts.OwnerName, s.Context, c.opts.PromptWords)
	s.advance(StatePromptBuilt)
	return s, nil
}

// Answer generates the complete reply for a prepared session.
func (c *Chat) Answer(ctx context.Context, s *Session) (string, error) {
	start := time.Now()
	answer, err := c.responder.GenerateResponse(ctx, s.SystemPrompt, s.Message)
	c.metrics.ObserveStage("generate", start)
	if err != nil {
		err = upstream(err, apperr.Generation, "rag.Answer")
		s.Fail(err)
		return "", err
	}
	s.advance(StateGenerated)
	return answer, nil
}

// Stream starts a streamed reply for a prepared session. The caller drains
// and closes it, then calls Done or Fail.
func (c *Chat) Stream(ctx context.Context, s *Session) *llmservice.Stream {
	stream := c.responder.GenerateStreamingResponse(ctx, s.SystemPrompt, s.Message)
	s.advance(StateGenerated)
	return stream
}

// Ask runs one question end to end, for the command line.
func (c *Chat) Ask(ctx context.Context, question string) (*models.PromptResponse, error) {
	s, err := c.Prepare(ctx, "cli", question)
	if err != nil {
		return nil, err
	}
	answer, err := c.Answer(ctx, s)
	if err != nil {
		return nil, err
	}
	s.Done()
	return &models.PromptResponse{Query: s.Message, Source: s.Context, Content: answer}, nil
}

func upstream(err error, wrap func(string, error) error, op string) error {
	if apperr.KindOf(err) == apperr.KindUnclassified {
		return wrap(op, err)
	}
	return err
}

// ValidateMessage accepts only a string with visible content and returns it
// trimmed.
func ValidateMessage(message any) (string, bool) {
	s, ok := message.(string)
	if !ok {
		return "", false
	}
	trimmed := strings.TrimFunc(s, isTrimSpace)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func isTrimSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// SanitizeInput drops control characters other than tab, newline and
// carriage return, then keeps at most maxLen characters.
func SanitizeInput(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r <= 0x1F || r == 0x7F:
			return -1
		}
		return r
	}, input)

	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

// BuildContext renders retrieved chunks for the system prompt.
func BuildContext(matches []models.MatchResult) string {
	if len(matches) == 0 {
		return models.NoContext
	}
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, "["+strings.ToUpper(string(m.Section))+"]\n"+m.Content)
	}
	return strings.Join(blocks, models.ContextSeparator)
}
