package chromemdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/config"
	"portfolio-rag/internal/models"
)

func chunk(section models.Section, index int, vec ...float32) models.Chunk {
	return models.Chunk{
		Content:   string(section) + " chunk",
		Section:   section,
		Metadata:  map[string]any{models.MetaSource: models.MetadataSource, models.MetaIndex: index},
		Embedding: vec,
	}
}

func newMemoryStore(t *testing.T) *VectorDBManager {
	t.Helper()
	m, err := NewVectorDBManager(&config.ChromemConfig{InMemory: true, Collection: "cv_embeddings"})
	require.NoError(t, err)
	return m
}

func TestSearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	m := newMemoryStore(t)

	require.NoError(t, m.InsertAll(ctx, []models.Chunk{
		chunk(models.SectionContact, 0, 1, 0, 0),
		chunk(models.SectionSkills, 1, 0, 1, 0),
		chunk(models.SectionProjects, 2, 0.9, 0.1, 0),
	}))
	assert.Equal(t, 3, m.Count())

	got, err := m.SimilaritySearch(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.SectionContact, got[0].Section)
	assert.Equal(t, models.SectionProjects, got[1].Section)
	assert.GreaterOrEqual(t, got[0].Similarity, got[1].Similarity)
	assert.Equal(t, 0, models.MetadataIndex(got[0].Metadata))
	assert.Equal(t, models.MetadataSource, got[0].Metadata[models.MetaSource])
}

func TestSearchTiesBreakByIndex(t *testing.T) {
	ctx := context.Background()
	m := newMemoryStore(t)

	require.NoError(t, m.InsertAll(ctx, []models.Chunk{
		chunk(models.SectionExperience, 5, 0, 1, 0),
		chunk(models.SectionExperience, 4, 0, 1, 0),
		chunk(models.SectionEducation, 1, 0, 1, 0),
	}))

	got, err := m.SimilaritySearch(ctx, []float32{0, 1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 4, 5}, []int{
		models.MetadataIndex(got[0].Metadata),
		models.MetadataIndex(got[1].Metadata),
		models.MetadataIndex(got[2].Metadata),
	})
}

func TestSearchEmptyCollection(t *testing.T) {
	m := newMemoryStore(t)
	got, err := m.SimilaritySearch(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteAllThenInsertReplaces(t *testing.T) {
	ctx := context.Background()
	m := newMemoryStore(t)

	require.NoError(t, m.InsertAll(ctx, []models.Chunk{chunk(models.SectionContact, 0, 1, 0)}))
	require.NoError(t, m.DeleteAll(ctx))
	assert.Equal(t, 0, m.Count())

	require.NoError(t, m.InsertAll(ctx, []models.Chunk{
		chunk(models.SectionContact, 0, 1, 0),
		chunk(models.SectionSkills, 1, 0, 1),
	}))
	assert.Equal(t, 2, m.Count())
}

func TestInsertAllRequiresEmbedding(t *testing.T) {
	m := newMemoryStore(t)
	err := m.InsertAll(context.Background(), []models.Chunk{chunk(models.SectionContact, 0)})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeStoreWrite, apperr.CodeOf(err))
}

func TestExportSnapshotSeedsNewStore(t *testing.T) {
	ctx := context.Background()
	snapshot := filepath.Join(t.TempDir(), "cv.gob.enc")
	cfg := &config.ChromemConfig{
		InMemory:      true,
		Collection:    "cv_embeddings",
		ExportPath:    snapshot,
		EncryptionKey: "0123456789abcdef0123456789abcdef",
	}

	first, err := NewVectorDBManager(cfg)
	require.NoError(t, err)
	require.NoError(t, first.InsertAll(ctx, []models.Chunk{
		chunk(models.SectionContact, 0, 1, 0),
		chunk(models.SectionSkills, 1, 0, 1),
	}))
	assert.FileExists(t, snapshot)

	second, err := NewVectorDBManager(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Count())
}

func TestPersistentStoreCreatesFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "chromemdb")
	m, err := NewVectorDBManager(&config.ChromemConfig{Path: dir, Collection: "cv_embeddings"})
	require.NoError(t, err)
	require.NoError(t, m.InsertAll(context.Background(), []models.Chunk{chunk(models.SectionContact, 0, 1, 0)}))
	assert.DirExists(t, dir)
}
