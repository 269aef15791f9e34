package llmservice

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"portfolio-rag/internal/models"
)

var (
	thinkBlockRe = regexp.MustCompile(models.ThinkTag)
	openThinkRe  = regexp.MustCompile(models.OpenThinkTag)
)

const (
	openTag  = "<think>"
	closeTag = "</think>"
	ellipsis = "..."
)

// DefaultPromptWords is the answer length the persona prompt asks for.
const DefaultPromptWords = 50

// BuildSystemPrompt renders the persona prompt around the retrieved context.
func BuildSystemPrompt(ownerName, context string) string {
	return BuildSystemPromptWords(ownerName, context, DefaultPromptWords)
}

// BuildSystemPromptWords is BuildSystemPrompt with an explicit word target.
func BuildSystemPromptWords(ownerName, context string, words int) string {
	return fmt.Sprintf(models.SystemPromptTemplate, ownerName, words, context)
}

// StripThinking removes closed think blocks, then an unclosed trailing one,
// and trims the rest.
func StripThinking(s string) string {
	s = thinkBlockRe.ReplaceAllString(s, "")
	s = openThinkRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// PostProcess turns raw model output into the answer shown to the visitor.
func PostProcess(raw string, wordBudget int) string {
	cleaned := StripThinking(raw)
	if cleaned == "" {
		return models.FallbackAnswer
	}
	return TruncateWords(cleaned, wordBudget)
}

// TruncateWords keeps at most budget words. Over budget, it cuts after the
// last sentence end inside the budget, or hard-cuts and appends "...".
func TruncateWords(s string, budget int) string {
	if budget <= 0 {
		return s
	}
	end, over := wordCutoff(s, budget)
	if !over {
		return s
	}
	cut := s[:end]
	if i := lastSentenceEnd(cut); i >= 0 {
		return cut[:i+1]
	}
	return strings.TrimRightFunc(cut, unicode.IsSpace) + ellipsis
}

// lastSentenceEnd returns the offset of the last '.', '!' or '?' that is
// followed by whitespace or ends s, or -1. Dots inside tokens such as
// "Node.js" or "3.5" do not end a sentence.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			if i+1 == len(s) {
				return i
			}
			if r, _ := utf8.DecodeRuneInString(s[i+1:]); unicode.IsSpace(r) {
				return i
			}
		}
	}
	return -1
}

// wordCutoff returns the byte offset just past word n and whether s has more
// than n words.
func wordCutoff(s string, n int) (int, bool) {
	words := 0
	inWord := false
	end := len(s)
	for i, r := range s {
		if unicode.IsSpace(r) {
			if inWord && words == n {
				end = i
			}
			inWord = false
			continue
		}
		if !inWord {
			inWord = true
			words++
			if words > n {
				return end, true
			}
		}
	}
	return len(s), false
}

// indexFold is strings.Index with ASCII case folding. Offsets stay valid for
// the original string, which strings.ToLower does not guarantee.
func indexFold(s, tag string) int {
	for i := 0; i+len(tag) <= len(s); i++ {
		if equalFoldASCII(s[i:i+len(tag)], tag) {
			return i
		}
	}
	return -1
}

// partialSuffix returns the length of the longest tail of s that is a proper
// prefix of tag.
func partialSuffix(s, tag string) int {
	for k := min(len(tag)-1, len(s)); k > 0; k-- {
		if equalFoldASCII(s[len(s)-k:], tag[:k]) {
			return k
		}
	}
	return 0
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
