package rag

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"portfolio-assistant/internal/model"
)

const (
	DefaultChunkSize    = 500 // words per chunk
	DefaultChunkOverlap = 50  // words shared between adjacent chunks

	maxKeywordsPerChunk = 10
	baseImportance      = 5
	maxImportance       = 10
	minImportance       = 1
)

var achievementPattern = regexp.MustCompile(`\d+\+?\s*(years?|months?|projects?|users?)`)

// ChunkText slides a window of size words (advancing size-overlap each step)
// over the whitespace-split word sequence and annotates every window with its
// retrieval metadata. Returns nil for blank input.
func ChunkText(fullText string, size, overlap int) []model.Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}

	words := strings.Fields(fullText)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []model.Chunk
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		content := strings.Join(words[start:end], " ")
		idx := len(chunks)
		section := DetectSection(content)
		chunks = append(chunks, model.Chunk{
			ID:        fmt.Sprintf("chunk_%d", idx),
			Content:   content,
			StartWord: start,
			EndWord:   end,
			Metadata: model.ChunkMetadata{
				Section:    section,
				Importance: CalculateImportance(content),
				Keywords:   ExtractKeywords(content),
				Context:    describeChunk(section, idx),
			},
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}

// DetectSection labels text with the first section whose keyword set has a
// substring match. First match wins; the test order in sectionKeywords is
// fixed for label stability across re-ingests.
func DetectSection(text string) string {
	lower := strings.ToLower(text)
	for _, set := range sectionKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.label
			}
		}
	}
	return SectionGeneral
}

// CalculateImportance scores text from a base of 5: +1 per importance keyword
// present, +2 for a numeric achievement ("5 years", "200+ users"), clamped
// to [1,10].
func CalculateImportance(text string) int {
	lower := strings.ToLower(text)
	score := baseImportance
	for _, kw := range importanceKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	if achievementPattern.MatchString(lower) {
		score += 2
	}
	if score > maxImportance {
		score = maxImportance
	}
	if score < minImportance {
		score = minImportance
	}
	return score
}

// ExtractKeywords returns the up-to-10 most frequent non-stopword tokens,
// ties broken by first encounter order.
func ExtractKeywords(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, token := range tokenize(text) {
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, seen := counts[token]; !seen {
			order = append(order, token)
		}
		counts[token]++
	}

	firstSeen := make(map[string]int, len(order))
	for i, token := range order {
		firstSeen[token] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > maxKeywordsPerChunk {
		order = order[:maxKeywordsPerChunk]
	}
	return order
}

func describeChunk(section string, index int) string {
	if section == SectionGeneral {
		return fmt.Sprintf("Part %d of the document.", index+1)
	}
	return fmt.Sprintf("Part %d of the document, covering %s.", index+1, section)
}
