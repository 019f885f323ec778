package ai

import "strings"

// ModelSelector routes short factual questions to the fast model and longer
// or reasoning-flavored ones to the primary model. Constructed in bootstrap
// and injected alongside the RateLimiter.
type ModelSelector struct {
	primary string
	fast    string
}

// complexityMarkers push a query to the primary model regardless of length.
var complexityMarkers = []string{
	"explain", "compare", "why", "how would", "walk me through", "difference",
	"architecture", "design", "trade-off", "tradeoff",
}

const fastModelWordLimit = 12

func NewModelSelector(primary, fast string) *ModelSelector {
	if fast == "" {
		fast = primary
	}
	return &ModelSelector{primary: primary, fast: fast}
}

// Select returns the model name to use for the given query.
func (s *ModelSelector) Select(query string) string {
	lower := strings.ToLower(query)
	for _, marker := range complexityMarkers {
		if strings.Contains(lower, marker) {
			return s.primary
		}
	}
	if len(strings.Fields(lower)) <= fastModelWordLimit {
		return s.fast
	}
	return s.primary
}
