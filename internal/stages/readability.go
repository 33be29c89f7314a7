package stages

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"webwatch/internal/pipeline"
)

// Readability reduces a fetched HTML page to its main article content,
// dropping navigation and boilerplate before fingerprinting.
type Readability struct{}

func NewReadability() *Readability { return &Readability{} }

func (r *Readability) Name() string        { return "readability" }
func (r *Readability) Kind() pipeline.Kind { return pipeline.KindExtractor }

func (r *Readability) Apply(ctx context.Context, items []pipeline.Item) ([]pipeline.Item, error) {
	var out []pipeline.Item

	for _, it := range items {
		var pageURL *url.URL
		if it.URI != "" {
			parsed, err := url.Parse(it.URI)
			if err == nil {
				pageURL = parsed
			}
		}

		article, err := readability.FromReader(strings.NewReader(it.Content), pageURL)
		if err != nil {
			return nil, fmt.Errorf("extract article: %w", err)
		}

		derived := it.Derive(article.Content)
		if derived.Title == "" {
			derived.Title = article.Title
		}
		out = append(out, derived)
	}

	return out, nil
}
