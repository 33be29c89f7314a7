package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"webwatch/internal/pipeline"
)

// CSS extracts the outer HTML of every node matching a selector. Each
// match becomes its own item inheriting the parent's URI, encoding and
// content type.
type CSS struct {
	selector string
}

func NewCSS(selector string) (*CSS, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("css stage: selector is required")
	}
	return &CSS{selector: selector}, nil
}

func (c *CSS) Name() string        { return "css" }
func (c *CSS) Kind() pipeline.Kind { return pipeline.KindExtractor }

func (c *CSS) Apply(ctx context.Context, items []pipeline.Item) ([]pipeline.Item, error) {
	var out []pipeline.Item

	for _, it := range items {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(it.Content))
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}

		var selErr error
		doc.Find(c.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			html, err := goquery.OuterHtml(sel)
			if err != nil {
				selErr = fmt.Errorf("render match: %w", err)
				return false
			}
			out = append(out, it.Derive(html))
			return true
		})
		if selErr != nil {
			return nil, selErr
		}
	}

	return out, nil
}
