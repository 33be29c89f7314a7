package stages

import (
	"context"
	"fmt"
	"regexp"

	"webwatch/internal/pipeline"
)

// Regex extracts every match of a pattern as its own item. When the
// pattern has capture groups the first group is taken, otherwise the
// whole match.
type Regex struct {
	re *regexp.Regexp
}

func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("regex stage: %w", err)
	}
	return &Regex{re: re}, nil
}

func (r *Regex) Name() string        { return "regex" }
func (r *Regex) Kind() pipeline.Kind { return pipeline.KindExtractor }

func (r *Regex) Apply(ctx context.Context, items []pipeline.Item) ([]pipeline.Item, error) {
	var out []pipeline.Item

	for _, it := range items {
		for _, match := range r.re.FindAllStringSubmatch(it.Content, -1) {
			text := match[0]
			if len(match) > 1 {
				text = match[1]
			}
			out = append(out, it.Derive(text))
		}
	}

	return out, nil
}
