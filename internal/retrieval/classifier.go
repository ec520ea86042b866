package retrieval

import "strings"

// Classifier decides, from the literal text of a user query, whether it
// needs comprehensive multi-pass retrieval or a single focused search.
//
// The decision is a case-insensitive substring match against a fixed
// trigger list; matching any single phrase is sufficient. Pure function of
// the query and the trigger list, no side effects.
type Classifier struct {
	triggers []string // stored lowercased
}

// NewClassifier creates a classifier from the given trigger phrases.
func NewClassifier(triggers []string) *Classifier {
	lowered := make([]string, len(triggers))
	for i, t := range triggers {
		lowered[i] = strings.ToLower(t)
	}
	return &Classifier{triggers: lowered}
}

// NeedsMultiPass reports whether the query requires multi-pass retrieval.
// An empty query never matches.
func (c *Classifier) NeedsMultiPass(query string) bool {
	if query == "" {
		return false
	}
	lower := strings.ToLower(query)
	for _, trigger := range c.triggers {
		if trigger != "" && strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
