package stages

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"webwatch/internal/pipeline"
)

// Feed fetches an RSS/Atom feed and produces one item per entry, so a feed
// can be watched with the same fingerprinting as a scraped page. limit caps
// the number of entries taken from the top; 0 takes them all.
type Feed struct {
	url     string
	timeout time.Duration
	limit   int
}

func NewFeed(url string, timeout time.Duration, limit int) *Feed {
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	return &Feed{url: url, timeout: timeout, limit: limit}
}

func (f *Feed) Name() string        { return "feed" }
func (f *Feed) Kind() pipeline.Kind { return pipeline.KindFetcher }

func (f *Feed) Apply(ctx context.Context, _ []pipeline.Item) ([]pipeline.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: f.timeout}
	parser.UserAgent = fetchUserAgent

	feed, err := parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.url, err)
	}

	items := itemsFromFeed(feed)
	if f.limit > 0 && len(items) > f.limit {
		items = items[:f.limit]
	}
	return items, nil
}

func itemsFromFeed(feed *gofeed.Feed) []pipeline.Item {
	out := make([]pipeline.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		content := entry.Content
		if content == "" {
			content = entry.Description
		}
		out = append(out, pipeline.Item{
			URI:         entry.Link,
			Title:       entry.Title,
			Content:     content,
			ContentType: pipeline.TypeHTML,
			Encoding:    pipeline.DefaultEncoding,
		})
	}
	return out
}
