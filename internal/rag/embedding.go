package rag

import (
	"math"
	"regexp"
	"strings"
)

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// tokenize lower-cases, strips non-word characters, splits on whitespace and
// drops tokens of length <= 2. Shared by the embedder, the chunker's keyword
// extraction and keyword search so all three agree on what a token is.
func tokenize(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Embed maps text to a fixed-length term-frequency vector over the static
// vocabulary, L2-normalized. Text with no vocabulary hits yields the zero
// vector; CosineSimilarity treats that as similarity 0 everywhere.
//
// This is deliberately not a learned embedding: it only distinguishes texts
// by vocabulary overlap. Swapping in a model API behind the same signature
// requires no changes elsewhere.
func Embed(text string) []float32 {
	vec := make([]float32, EmbeddingDim)
	for _, token := range tokenize(text) {
		if idx, ok := vocabularyIndex[token]; ok {
			vec[idx]++
		}
	}

	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// CosineSimilarity returns dot(a,b)/(|a|*|b|) in [-1,1], defined as 0 when
// either vector has zero norm or the lengths disagree.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
