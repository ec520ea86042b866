package retrieval

import (
	"fmt"
	"strings"
)

// AssembleContext formats chunks into the prompt context block and collects
// the distinct source filenames, in first-seen order. Chunks without a
// filename render as "unknown" and contribute no source. Empty input yields
// an empty block and nil sources.
func AssembleContext(chunks []Chunk) (string, []string) {
	if len(chunks) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(chunks))
	var sources []string
	seen := make(map[string]struct{}, len(chunks))

	for _, c := range chunks {
		name := c.Filename()
		if name != "" {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				sources = append(sources, name)
			}
		} else {
			name = "unknown"
		}
		parts = append(parts, fmt.Sprintf("Document: %s\nContent: %s", name, c.Content))
	}

	return strings.Join(parts, "\n\n"), sources
}
