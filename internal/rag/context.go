package rag

import (
	"context"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"portfolio-assistant/internal/model"
)

const (
	contextCandidates = 8

	// relevanceFloor is stricter than the search noise floor: context fed to
	// the LLM must actually be about the query.
	relevanceFloor = 0.2

	// MaxContextChars bounds the assembled context block handed to the
	// prompt generator.
	MaxContextChars = 2000

	// minTruncateBudget is the smallest leftover budget worth filling with a
	// truncated block; below it the block is skipped entirely.
	minTruncateBudget = 100

	blendSimilarityWeight = 0.7
	blendImportanceWeight = 0.3

	sourceCountBonusCap = 0.2
)

// RelevantContext retrieves, ranks and packs chunks into a bounded context
// string with an aggregate confidence. It is the trust boundary for the chat
// flow: it never returns an error — every failure underneath (store down,
// search failure) collapses to the zero-value result so the caller can fall
// back to the base prompt.
func (e *Engine) RelevantContext(ctx context.Context, query string) model.RetrievedContext {
	empty := model.RetrievedContext{Sources: []model.SearchResult{}}
	if strings.TrimSpace(query) == "" {
		return empty
	}

	results, err := e.EnhancedSearch(ctx, query, contextCandidates)
	if err != nil {
		log.Printf("context retrieval failed for query %q: %v", query, err)
		return empty
	}

	relevant := results[:0]
	for _, r := range results {
		if r.Similarity >= relevanceFloor {
			relevant = append(relevant, r)
		}
	}
	if len(relevant) == 0 {
		return empty
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return blendedScore(relevant[i]) > blendedScore(relevant[j])
	})

	var (
		builder strings.Builder
		used    []model.SearchResult
	)
	for _, r := range relevant {
		block := "[" + strings.ToUpper(r.Section) + "] " + r.Content + "\n\n"
		if builder.Len()+len(block) <= MaxContextChars {
			builder.WriteString(block)
			used = append(used, r)
			continue
		}
		remaining := MaxContextChars - builder.Len()
		if remaining > minTruncateBudget {
			builder.WriteString(truncateBlock(block, remaining))
			used = append(used, r)
		}
		break
	}
	if len(used) == 0 {
		return empty
	}

	return model.RetrievedContext{
		Context:    strings.TrimRight(builder.String(), "\n"),
		Sources:    used,
		Confidence: confidence(used),
	}
}

func blendedScore(r model.SearchResult) float64 {
	return blendSimilarityWeight*r.Similarity + blendImportanceWeight*float64(r.Importance)/10
}

// truncateBlock cuts the block to the budget, marking the cut with an
// ellipsis so a partial chunk is never mistaken for a complete one. The cut
// backs off to a rune boundary so the context stays valid UTF-8.
func truncateBlock(block string, budget int) string {
	const marker = "..."
	if budget <= len(marker) {
		return marker
	}
	cut := block
	if len(cut) > budget-len(marker) {
		cut = cut[:budget-len(marker)]
		for len(cut) > 0 {
			r, size := utf8.DecodeLastRuneInString(cut)
			if r == utf8.RuneError && size <= 1 {
				cut = cut[:len(cut)-1]
				continue
			}
			break
		}
	}
	return strings.TrimRight(cut, "\n ") + marker
}

// confidence is the importance-weighted mean similarity of the packed
// sources plus a small bonus for source count, capped at 1.
func confidence(sources []model.SearchResult) float64 {
	var weightedSum, weightTotal float64
	for _, s := range sources {
		w := float64(s.Importance) / 10
		weightedSum += s.Similarity * w
		weightTotal += w
	}
	var conf float64
	if weightTotal > 0 {
		conf = weightedSum / weightTotal
	}
	bonus := float64(len(sources)) / 5
	if bonus > sourceCountBonusCap {
		bonus = sourceCountBonusCap
	}
	conf += bonus
	if conf > 1 {
		conf = 1
	}
	return conf
}
