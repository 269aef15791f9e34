package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/config"
)

type fakeEmbedder struct {
	dims      int
	calls     int
	drop      bool
	err       error
	lastBatch []string
}

func (f *fakeEmbedder) vec(seed int) []float32 {
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(seed+1) / float32(i+1)
	}
	return v
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.lastBatch = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for i := range texts {
		out = append(out, f.vec(i))
	}
	if f.drop {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec(0), nil
}

func TestEmbedReturnsConfiguredDimensions(t *testing.T) {
	c := NewClient(&fakeEmbedder{dims: 1536}, 1536)
	v, err := c.Embed(context.Background(), "what do you build?")
	require.NoError(t, err)
	assert.Len(t, v, 1536)
}

func TestEmbedRejectsWrongDimensions(t *testing.T) {
	c := NewClient(&fakeEmbedder{dims: 8}, 1536)
	_, err := c.Embed(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeEmbedding, apperr.CodeOf(err))
}

func TestEmbedBatchEmptyMakesNoCall(t *testing.T) {
	f := &fakeEmbedder{dims: 4}
	c := NewClient(f, 4)
	out, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, f.calls)
}

func TestEmbedBatchPreservesOrderAndCount(t *testing.T) {
	f := &fakeEmbedder{dims: 4}
	c := NewClient(f, 4)
	texts := []string{"a", "b\nc", "d"}
	out, err := c.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, f.vec(2), out[2])
	assert.Equal(t, texts, f.lastBatch)
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	c := NewClient(&fakeEmbedder{dims: 4, drop: true}, 4)
	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestEmbedProviderError(t *testing.T) {
	boom := errors.New("429 from provider")
	c := NewClient(&fakeEmbedder{dims: 4, err: boom}, 4)
	_, err := c.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, apperr.CodeEmbedding, apperr.CodeOf(err))
}

func TestNewEmbedderRequiresKey(t *testing.T) {
	_, err := NewEmbedder(&config.EmbeddingConfig{Model: "text-embedding-3-small"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestNewEmbedderAgainstOpenAICompatibleServer(t *testing.T) {
	var gotAuth string
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotInput = req.Input

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string `json:"object"`
			Data   []item `json:"data"`
			Model  string `json:"model"`
		}{Object: "list", Model: "text-embedding-3-small"}
		for i := range req.Input {
			resp.Data = append(resp.Data, item{Object: "embedding", Embedding: []float32{0.1, 0.2, 0.3}, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	emb, err := NewEmbedder(&config.EmbeddingConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "text-embedding-3-small",
	}, srv.Client())
	require.NoError(t, err)

	c := NewClient(emb, 3)
	out, err := c.EmbedBatch(context.Background(), []string{"Name: Jordan\nTagline: hi", "Skills"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, []string{"Name: Jordan\nTagline: hi", "Skills"}, gotInput)
}
