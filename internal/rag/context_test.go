package rag

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevantContext_EndToEnd(t *testing.T) {
	store := newFakeStore()
	content := "Gaurav has 5 years of React and TypeScript experience building full-stack projects."
	chunks := ChunkText(content, 500, 50)
	require.Len(t, chunks, 1)
	addEmbedding(store, "doc1", chunks[0].ID, chunks[0].Content,
		chunks[0].Metadata.Importance, chunks[0].Metadata.Keywords)

	engine := NewEngine(store)
	got := engine.RelevantContext(context.Background(), "What is Gaurav's React experience?")

	require.Len(t, got.Sources, 1)
	assert.Equal(t, "doc1", got.Sources[0].DocumentID)
	assert.Greater(t, got.Sources[0].Similarity, 0.1)
	assert.Greater(t, got.Confidence, 0.3)
	assert.Contains(t, got.Context, "[EXPERIENCE]")
	assert.Contains(t, got.Context, "React and TypeScript")
}

func TestRelevantContext_EmptyCorpus(t *testing.T) {
	engine := NewEngine(newFakeStore())
	got := engine.RelevantContext(context.Background(), "tell me about the projects")
	assert.Empty(t, got.Context)
	assert.Empty(t, got.Sources)
	assert.Zero(t, got.Confidence)
}

func TestRelevantContext_BlankQuery(t *testing.T) {
	engine := NewEngine(newFakeStore())
	got := engine.RelevantContext(context.Background(), "   \t ")
	assert.Empty(t, got.Context)
	assert.Empty(t, got.Sources)
	assert.Zero(t, got.Confidence)
}

func TestRelevantContext_StoreDownNeverFails(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	engine := NewEngine(store)

	got := engine.RelevantContext(context.Background(), "any query at all")
	assert.Empty(t, got.Context)
	assert.Empty(t, got.Sources)
	assert.Zero(t, got.Confidence)
}

func TestRelevantContext_BudgetRespected(t *testing.T) {
	store := newFakeStore()
	// Each chunk is far larger than the budget on its own.
	big := strings.Repeat("react typescript experience project portfolio ", 80)
	for i := 0; i < 4; i++ {
		addEmbedding(store, "doc1", "chunk_"+string(rune('0'+i)), big, 8,
			[]string{"react", "typescript", "experience"})
	}
	engine := NewEngine(store)
	got := engine.RelevantContext(context.Background(), "react typescript experience")

	require.NotEmpty(t, got.Context)
	assert.LessOrEqual(t, len(got.Context), MaxContextChars)
	assert.True(t, strings.HasSuffix(got.Context, "..."), "oversized block must be truncated with a marker")
}

func TestTruncateBlock_RuneSafe(t *testing.T) {
	block := strings.Repeat("héllo wörld ", 40)
	for budget := 10; budget <= 50; budget++ {
		got := truncateBlock(block, budget)
		assert.True(t, utf8.ValidString(got), "budget %d", budget)
		assert.True(t, strings.HasSuffix(got, "..."), "budget %d", budget)
		assert.LessOrEqual(t, len(got), budget, "budget %d", budget)
	}
}

func TestRelevantContext_ConfidenceCapped(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 6; i++ {
		addEmbedding(store, "doc1", "chunk_"+string(rune('0'+i)),
			"react typescript experience", 10, []string{"react", "typescript", "experience"})
	}
	engine := NewEngine(store)
	got := engine.RelevantContext(context.Background(), "react typescript experience")
	assert.LessOrEqual(t, got.Confidence, 1.0)
	assert.Greater(t, got.Confidence, 0.0)
}
