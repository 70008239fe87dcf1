// Package market holds the retrieval side of the pipeline: search
// snippets that ground the Market Analyst persona.
package market

import (
	"context"
	"strings"
)

// Snippet is one retrieved search result.
type Snippet struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content"`
}

// Searcher port (interface for the external search API)
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Snippet, error)
}

// Cache port. Get reports a miss with found=false, not an error.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Join concatenates snippet contents into the block handed to the prompt.
func Join(snippets []Snippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if strings.TrimSpace(s.Content) != "" {
			parts = append(parts, s.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
