package llmservice

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/models"
)

type fakeSource struct {
	fragments []string
	pos       int
	err       error
	closed    bool
	pulled    int
}

func (f *fakeSource) Next() bool {
	if f.pos >= len(f.fragments) {
		return false
	}
	f.pos++
	f.pulled++
	return true
}

func (f *fakeSource) Current() string { return f.fragments[f.pos-1] }
func (f *fakeSource) Err() error      { return f.err }
func (f *fakeSource) Close() error    { f.closed = true; return nil }

func drain(s *Stream) []string {
	var out []string
	for s.Next() {
		out = append(out, s.Text())
	}
	return out
}

func TestStreamStripsThinkAcrossFragments(t *testing.T) {
	src := &fakeSource{fragments: []string{"<thi", "nk>reason", "ing</th", "ink>Hello", " there!"}}
	s := NewStream(src, 75)

	got := drain(s)
	require.NoError(t, s.Err())
	assert.Equal(t, "Hello there!", strings.Join(got, ""))
	assert.Equal(t, []string{"Hello", " there!"}, got)
}

func TestStreamMatchesPostProcess(t *testing.T) {
	raw := "  <think>plan the answer</think>\nI'm Jordan. I build backend services in Go!  \n"
	for size := 1; size <= 8; size++ {
		var frags []string
		for i := 0; i < len(raw); i += size {
			frags = append(frags, raw[i:min(i+size, len(raw))])
		}
		got := strings.Join(drain(NewStream(&fakeSource{fragments: frags}, 75)), "")
		assert.Equal(t, PostProcess(raw, 75), got, "fragment size %d", size)
	}
}

func TestStreamUnclosedThinkGivesFallback(t *testing.T) {
	s := NewStream(&fakeSource{fragments: []string{"<think>", "still going"}}, 75)
	assert.Equal(t, []string{models.FallbackAnswer}, drain(s))
	assert.NoError(t, s.Err())
}

func TestStreamEmptyGivesFallback(t *testing.T) {
	s := NewStream(&fakeSource{}, 75)
	assert.Equal(t, []string{models.FallbackAnswer}, drain(s))
}

func TestStreamWordBudgetStopsProduction(t *testing.T) {
	src := &fakeSource{fragments: []string{"one two ", "three four five", " six", " seven"}}
	s := NewStream(src, 3)

	got := drain(s)
	assert.Equal(t, "one two three...", strings.Join(got, ""))
	assert.Equal(t, 2, src.pulled, "no fragments are read after the budget is spent")

	require.NoError(t, s.Close())
	assert.True(t, src.closed)
}

func TestStreamHoldsPossibleTagStart(t *testing.T) {
	s := NewStream(&fakeSource{fragments: []string{"x <", "b"}}, 75)
	assert.Equal(t, "x <b", strings.Join(drain(s), ""))
}

func TestStreamDropsSurroundingWhitespace(t *testing.T) {
	s := NewStream(&fakeSource{fragments: []string{"\n\n", "Hey", "  \n"}}, 75)
	assert.Equal(t, []string{"Hey"}, drain(s))
}

func TestStreamFailureMidway(t *testing.T) {
	boom := errors.New("stream reset")
	s := NewStream(&fakeSource{fragments: []string{"Hi"}, err: boom}, 75)

	require.True(t, s.Next())
	assert.Equal(t, "Hi", s.Text())
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), boom)
	assert.Equal(t, apperr.CodeGeneration, apperr.CodeOf(s.Err()))
	assert.False(t, s.Next())
}

func TestThinkFilterState(t *testing.T) {
	var f ThinkFilter
	assert.Equal(t, "Before", f.Push("Before<think>hidden"))
	assert.True(t, f.inThink)
	assert.Equal(t, "", f.Push(" still hidden</thi"))
	assert.Equal(t, " after", f.Push("nk> after"))
	assert.False(t, f.inThink)
	assert.Equal(t, "", f.Flush())
}
