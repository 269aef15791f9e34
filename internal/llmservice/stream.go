package llmservice

import (
	"strings"
	"unicode"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/models"
)

// TokenSource yields raw text fragments from a completion stream.
type TokenSource interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// ThinkFilter strips think blocks from text that arrives in pieces. It holds
// back any tail that could still turn into a tag, drops leading whitespace and
// keeps trailing whitespace pending until more visible text follows.
type ThinkFilter struct {
	buf     string
	inThink bool
	started bool
	pending string
}

// Push feeds one fragment and returns the text that is now safe to show.
func (f *ThinkFilter) Push(fragment string) string {
	f.buf += fragment
	var out strings.Builder
	for {
		if f.inThink {
			i := indexFold(f.buf, closeTag)
			if i < 0 {
				f.buf = f.buf[len(f.buf)-partialSuffix(f.buf, closeTag):]
				break
			}
			f.buf = f.buf[i+len(closeTag):]
			f.inThink = false
			continue
		}
		if i := indexFold(f.buf, openTag); i >= 0 {
			out.WriteString(f.buf[:i])
			f.buf = f.buf[i+len(openTag):]
			f.inThink = true
			continue
		}
		hold := partialSuffix(f.buf, openTag)
		out.WriteString(f.buf[:len(f.buf)-hold])
		f.buf = f.buf[len(f.buf)-hold:]
		break
	}
	return f.visible(out.String())
}

// Flush ends the input. An unclosed think block is discarded.
func (f *ThinkFilter) Flush() string {
	rest := f.buf
	f.buf = ""
	if f.inThink {
		return ""
	}
	return f.visible(rest)
}

func (f *ThinkFilter) visible(s string) string {
	if !f.started {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return ""
		}
		f.started = true
	} else {
		s = f.pending + s
	}
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	f.pending = s[len(trimmed):]
	return trimmed
}

// wordBudget counts words across fragments and cuts the stream once the
// limit is reached.
type wordBudget struct {
	limit  int
	count  int
	inWord bool
	spent  bool
}

func (b *wordBudget) apply(s string) string {
	if b.spent {
		return ""
	}
	if b.limit <= 0 {
		return s
	}
	for i, r := range s {
		if unicode.IsSpace(r) {
			b.inWord = false
			continue
		}
		if b.inWord {
			continue
		}
		b.inWord = true
		if b.count == b.limit {
			b.spent = true
			return strings.TrimRightFunc(s[:i], unicode.IsSpace) + ellipsis
		}
		b.count++
	}
	return s
}

// Stream is a pull iterator over visible answer fragments.
//
//	for s.Next() {
//		fmt.Print(s.Text())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	src     TokenSource
	filter  ThinkFilter
	budget  wordBudget
	text    string
	err     error
	emitted bool
	done    bool
}

// NewStream wraps a token source with think filtering and a word budget.
func NewStream(src TokenSource, wordBudget int) *Stream {
	s := &Stream{src: src}
	s.budget.limit = wordBudget
	return s
}

// Next advances to the next visible fragment. It returns false when the
// stream is finished or failed.
func (s *Stream) Next() bool {
	for !s.done {
		if s.src.Next() {
			if s.emit(s.filter.Push(s.src.Current())) {
				return true
			}
			continue
		}

		s.done = true
		if err := s.src.Err(); err != nil {
			s.err = apperr.Generation("llmservice.Stream", err)
			return false
		}
		out := s.budget.apply(s.filter.Flush())
		if out == "" && !s.emitted {
			out = models.FallbackAnswer
		}
		if out == "" {
			return false
		}
		s.text = out
		s.emitted = true
		return true
	}
	return false
}

func (s *Stream) emit(visible string) bool {
	out := s.budget.apply(visible)
	if s.budget.spent {
		s.done = true
	}
	if out == "" {
		return false
	}
	s.text = out
	s.emitted = true
	return true
}

// Text returns the current fragment.
func (s *Stream) Text() string {
	return s.text
}

// Err returns the failure that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying transport.
func (s *Stream) Close() error {
	s.done = true
	return s.src.Close()
}

type chunkSource struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (c chunkSource) Next() bool {
	return c.stream.Next()
}

func (c chunkSource) Current() string {
	chunk := c.stream.Current()
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}

func (c chunkSource) Err() error {
	return c.stream.Err()
}

func (c chunkSource) Close() error {
	return c.stream.Close()
}
