package rag

import (
	"context"
	"log"
	"sort"
	"strings"

	"portfolio-assistant/internal/model"
)

const (
	// noiseFloor drops results whose score carries no signal. Raw
	// term-frequency vectors give small positive similarities to almost
	// anything sharing a vocabulary term.
	noiseFloor = 0.1

	DefaultTopK = 5

	similarityWeight  = 0.7
	keywordOnlyWeight = 0.5
	bothFoundBoost    = 0.3
)

// Store is the document-store boundary for embeddings. Implementations may
// fail on any call (network, store down); the search layer degrades, the
// assembler absorbs.
type Store interface {
	Put(ctx context.Context, emb *model.VectorEmbedding) error
	GetAll(ctx context.Context) ([]model.VectorEmbedding, error)
	GetByCategory(ctx context.Context, category string) ([]model.VectorEmbedding, error)
	GetByMinImportance(ctx context.Context, threshold int) ([]model.VectorEmbedding, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Engine runs retrieval over a Store. It keeps no state between queries:
// every search re-reads the full collection, which is fine at portfolio
// corpus sizes and the first thing to replace with an ANN index beyond them.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// SearchSimilar embeds the query and linearly scans every stored embedding,
// returning the topK cosine matches above the noise floor in non-increasing
// similarity order (ties keep store order).
func (e *Engine) SearchSimilar(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	queryVec := Embed(query)

	stored, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(stored))
	for i := range stored {
		sim := CosineSimilarity(queryVec, stored[i].Vector())
		if sim <= noiseFloor {
			continue
		}
		results = append(results, toSearchResult(&stored[i], sim))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SearchByKeyword scores stored chunks by token overlap with the query plus
// keyword membership and an importance nudge, independent of embeddings.
// Score = avg token overlap + 0.2*matched keywords + 0.1*importance/10,
// clamped to 1.
func (e *Engine) SearchByKeyword(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	queryTokens := keywordTokens(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	stored, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(stored))
	for i := range stored {
		score := keywordScore(queryTokens, &stored[i])
		if score <= noiseFloor {
			continue
		}
		results = append(results, toSearchResult(&stored[i], score))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// EnhancedSearch fuses similarity search (2*topK candidates, weighted 0.7)
// with keyword search (topK candidates): hits found by both get +0.3 (capped
// at 1), keyword-only hits enter at 0.5 weight. Any internal failure after
// similarity search succeeded degrades to the plain similarity results.
func (e *Engine) EnhancedSearch(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	simResults, err := e.SearchSimilar(ctx, query, 2*topK)
	if err != nil {
		return nil, err
	}

	kwResults, err := e.SearchByKeyword(ctx, query, topK)
	if err != nil {
		log.Printf("keyword search failed, using similarity only: %v", err)
		if len(simResults) > topK {
			simResults = simResults[:topK]
		}
		return simResults, nil
	}

	type key struct{ doc, chunk string }
	merged := make(map[key]model.SearchResult, len(simResults)+len(kwResults))
	order := make([]key, 0, len(simResults)+len(kwResults))

	for _, r := range simResults {
		k := key{r.DocumentID, r.ChunkID}
		r.Similarity *= similarityWeight
		merged[k] = r
		order = append(order, k)
	}
	for _, r := range kwResults {
		k := key{r.DocumentID, r.ChunkID}
		if existing, ok := merged[k]; ok {
			existing.Similarity += bothFoundBoost
			if existing.Similarity > 1 {
				existing.Similarity = 1
			}
			merged[k] = existing
			continue
		}
		r.Similarity *= keywordOnlyWeight
		merged[k] = r
		order = append(order, k)
	}

	results := make([]model.SearchResult, 0, len(merged))
	for _, k := range order {
		results = append(results, merged[k])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// keywordTokens tokenizes the query and strips stopwords.
func keywordTokens(query string) []string {
	tokens := tokenize(query)
	filtered := tokens[:0]
	for _, t := range tokens {
		if _, stop := stopwords[t]; !stop {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func keywordScore(queryTokens []string, emb *model.VectorEmbedding) float64 {
	contentWords := tokenize(emb.Content)

	var overlapSum float64
	for _, qt := range queryTokens {
		matched := 0
		for _, cw := range contentWords {
			if strings.Contains(cw, qt) || strings.Contains(qt, cw) {
				matched++
			}
		}
		if len(contentWords) > 0 {
			overlapSum += float64(matched) / float64(len(contentWords))
		}
	}
	score := overlapSum / float64(len(queryTokens))

	matchedKeywords := 0
	for _, kw := range emb.KeywordList() {
		for _, qt := range queryTokens {
			if strings.Contains(kw, qt) || strings.Contains(qt, kw) {
				matchedKeywords++
				break
			}
		}
	}
	score += 0.2 * float64(matchedKeywords)
	score += 0.1 * float64(emb.Importance) / 10

	if score > 1 {
		score = 1
	}
	return score
}

func toSearchResult(emb *model.VectorEmbedding, score float64) model.SearchResult {
	return model.SearchResult{
		DocumentID: emb.DocumentID,
		ChunkID:    emb.ChunkID,
		Content:    emb.Content,
		Similarity: score,
		Section:    emb.Section,
		Importance: emb.Importance,
		DocTitle:   emb.DocTitle,
		Category:   emb.Category,
	}
}
