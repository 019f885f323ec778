package rag

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func l2Norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func TestEmbed_UnitNorm(t *testing.T) {
	texts := []string{
		"Senior React and TypeScript developer",
		"Built microservices with golang and kubernetes",
		"experience experience experience",
	}
	for _, text := range texts {
		vec := Embed(text)
		require.Len(t, vec, EmbeddingDim)
		assert.InDelta(t, 1.0, l2Norm(vec), 1e-6, "text %q", text)
	}
}

func TestEmbed_NoVocabularyHits(t *testing.T) {
	vec := Embed("zzz qqq xyzzy plugh")
	require.Len(t, vec, EmbeddingDim)
	assert.Zero(t, l2Norm(vec))
}

func TestEmbed_NonNegativeEntries(t *testing.T) {
	vec := Embed("react typescript python react")
	for i, v := range vec {
		assert.GreaterOrEqual(t, v, float32(0), "slot %d", i)
	}
}

func TestEmbed_DropsShortTokens(t *testing.T) {
	// "go" is two characters and must not count, even though golang does.
	assert.Zero(t, l2Norm(Embed("go go go")))
	assert.NotZero(t, l2Norm(Embed("golang")))
}

func TestCosineSimilarity_SelfSimilarity(t *testing.T) {
	vec := Embed("fullstack engineer with react experience")
	assert.InDelta(t, 1.0, CosineSimilarity(vec, vec), 1e-6)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	zero := make([]float32, EmbeddingDim)
	other := Embed("react developer")

	assert.Zero(t, CosineSimilarity(zero, other))
	assert.Zero(t, CosineSimilarity(other, zero))
	assert.Zero(t, CosineSimilarity(zero, zero))
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"react frontend developer", "react frontend developer"},
		{"react frontend developer", "kubernetes devops pipeline"},
		{"education degree university", "contact email phone"},
	}
	for _, p := range pairs {
		sim := CosineSimilarity(Embed(p[0]), Embed(p[1]))
		assert.GreaterOrEqual(t, sim, -1.0)
		assert.LessOrEqual(t, sim, 1.0+1e-9)
	}
}

func TestCosineSimilarity_LengthMismatch(t *testing.T) {
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Zero(t, CosineSimilarity(nil, []float32{1}))
}
