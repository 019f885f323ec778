package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-assistant/internal/model"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory Store; failAll makes every call error.
type fakeStore struct {
	embeddings map[string]model.VectorEmbedding
	failAll    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{embeddings: make(map[string]model.VectorEmbedding)}
}

func (s *fakeStore) Put(_ context.Context, emb *model.VectorEmbedding) error {
	if s.failAll {
		return errStoreDown
	}
	s.embeddings[emb.ID] = *emb
	return nil
}

func (s *fakeStore) GetAll(_ context.Context) ([]model.VectorEmbedding, error) {
	if s.failAll {
		return nil, errStoreDown
	}
	// map iteration order is random; key-sort for determinism is overkill,
	// tests that care about order ingest in a known sequence instead.
	var list []model.VectorEmbedding
	for _, e := range s.embeddings {
		list = append(list, e)
	}
	return list, nil
}

func (s *fakeStore) GetByCategory(ctx context.Context, category string) ([]model.VectorEmbedding, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.VectorEmbedding
	for _, e := range all {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetByMinImportance(ctx context.Context, threshold int) ([]model.VectorEmbedding, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.VectorEmbedding
	for _, e := range all {
		if e.Importance >= threshold {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteByDocument(_ context.Context, documentID string) error {
	if s.failAll {
		return errStoreDown
	}
	for id, e := range s.embeddings {
		if e.DocumentID == documentID {
			delete(s.embeddings, id)
		}
	}
	return nil
}

func addEmbedding(s *fakeStore, docID, chunkID, content string, importance int, keywords []string) {
	emb := model.VectorEmbedding{
		ID:         model.EmbeddingID(docID, chunkID),
		DocumentID: docID,
		ChunkID:    chunkID,
		Content:    content,
		Section:    DetectSection(content),
		Importance: importance,
		Category:   model.CategoryExperience,
	}
	emb.SetVector(Embed(content))
	emb.SetKeywords(keywords)
	_ = s.Put(context.Background(), &emb)
}

func TestSearchSimilar_RankedAndFloored(t *testing.T) {
	store := newFakeStore()
	addEmbedding(store, "doc1", "chunk_0", "react typescript frontend development experience", 7, nil)
	addEmbedding(store, "doc1", "chunk_1", "kubernetes docker terraform infrastructure", 5, nil)
	addEmbedding(store, "doc2", "chunk_0", "gardening and cooking notes", 3, nil)

	engine := NewEngine(store)
	results, err := engine.SearchSimilar(context.Background(), "react typescript experience", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "doc1", results[0].DocumentID)
	assert.Equal(t, "chunk_0", results[0].ChunkID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	for _, r := range results {
		assert.Greater(t, r.Similarity, 0.1)
		assert.NotEqual(t, "gardening and cooking notes", r.Content)
	}
}

func TestSearchSimilar_TopK(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 8; i++ {
		addEmbedding(store, "doc1", "chunk_"+string(rune('0'+i)), "react developer experience", 5, nil)
	}
	engine := NewEngine(store)
	results, err := engine.SearchSimilar(context.Background(), "react experience", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchSimilar_EmptyCorpus(t *testing.T) {
	engine := NewEngine(newFakeStore())
	results, err := engine.SearchSimilar(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSimilar_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	engine := NewEngine(store)
	_, err := engine.SearchSimilar(context.Background(), "react", 5)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestSearchByKeyword_MatchesWithoutVocabulary(t *testing.T) {
	store := newFakeStore()
	// "quasar" is out of vocabulary: similarity search cannot find it,
	// keyword search can.
	addEmbedding(store, "doc1", "chunk_0", "quasar framework dashboard", 8, []string{"quasar", "framework", "dashboard"})
	addEmbedding(store, "doc2", "chunk_0", "unrelated writing sample", 5, []string{"writing"})

	engine := NewEngine(store)
	results, err := engine.SearchByKeyword(context.Background(), "quasar dashboard", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc1", results[0].DocumentID)
	for _, r := range results {
		assert.LessOrEqual(t, r.Similarity, 1.0)
	}
}

func TestSearchByKeyword_NoUsableTokens(t *testing.T) {
	engine := NewEngine(newFakeStore())
	results, err := engine.SearchByKeyword(context.Background(), "a an to", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEnhancedSearch_DeduplicatesAndBoosts(t *testing.T) {
	store := newFakeStore()
	addEmbedding(store, "doc1", "chunk_0",
		"react typescript experience building frontend projects", 8,
		[]string{"react", "typescript", "experience", "frontend"})

	engine := NewEngine(store)
	results, err := engine.EnhancedSearch(context.Background(), "react experience", 5)
	require.NoError(t, err)
	require.Len(t, results, 1, "same chunk found by both searches must merge")

	// Found by both: 0.7*sim + 0.3 boost, never above 1.
	assert.Greater(t, results[0].Similarity, 0.3)
	assert.LessOrEqual(t, results[0].Similarity, 1.0)
}

func TestEnhancedSearch_TopKApplied(t *testing.T) {
	store := newFakeStore()
	contents := []string{
		"react frontend experience",
		"typescript react projects",
		"react developer work",
		"frontend react skill",
	}
	for i, content := range contents {
		addEmbedding(store, "doc1", "chunk_"+string(rune('0'+i)), content, 5, ExtractKeywords(content))
	}
	engine := NewEngine(store)
	results, err := engine.EnhancedSearch(context.Background(), "react", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestEnhancedSearch_StoreFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	engine := NewEngine(store)
	_, err := engine.EnhancedSearch(context.Background(), "react", 5)
	assert.Error(t, err)
}
