package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"

	"webwatch/internal/pipeline"
)

// XPath extracts every node matching an XPath expression. HTML items go
// through the HTML parser, XML items through the XML parser; each matched
// node is rendered back to markup as its own item.
type XPath struct {
	expr string
}

func NewXPath(expr string) (*XPath, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("xpath stage: expression is required")
	}
	return &XPath{expr: expr}, nil
}

func (x *XPath) Name() string        { return "xpath" }
func (x *XPath) Kind() pipeline.Kind { return pipeline.KindExtractor }

func (x *XPath) Apply(ctx context.Context, items []pipeline.Item) ([]pipeline.Item, error) {
	var out []pipeline.Item

	for _, it := range items {
		switch it.ContentType {
		case pipeline.TypeXML:
			matches, err := x.applyXML(it)
			if err != nil {
				return nil, err
			}
			out = append(out, matches...)
		default:
			matches, err := x.applyHTML(it)
			if err != nil {
				return nil, err
			}
			out = append(out, matches...)
		}
	}

	return out, nil
}

func (x *XPath) applyHTML(it pipeline.Item) ([]pipeline.Item, error) {
	doc, err := htmlquery.Parse(strings.NewReader(it.Content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, x.expr)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", x.expr, err)
	}

	out := make([]pipeline.Item, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, it.Derive(htmlquery.OutputHTML(node, true)))
	}
	return out, nil
}

func (x *XPath) applyXML(it pipeline.Item) ([]pipeline.Item, error) {
	doc, err := xmlquery.Parse(strings.NewReader(it.Content))
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	nodes, err := xmlquery.QueryAll(doc, x.expr)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", x.expr, err)
	}

	out := make([]pipeline.Item, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, it.Derive(node.OutputXML(true)))
	}
	return out, nil
}
