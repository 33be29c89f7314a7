package stages

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"webwatch/internal/pipeline"
)

const (
	fetchUserAgent      = "Mozilla/5.0 (compatible; webwatch/1.0)"
	defaultFetchTimeout = 30 * time.Second
)

type fetchedPage struct {
	content  string
	encoding string
}

// FetchCache is shared by the fetch stages of one session so sources
// watching the same page with different extractors hit the network once.
type FetchCache struct {
	cache *gocache.Cache
}

func NewFetchCache(ttl time.Duration) *FetchCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &FetchCache{cache: gocache.New(ttl, ttl/2)}
}

// Fetch retrieves one URL and produces a single item carrying the decoded
// body. It is a fetcher: any incoming items are discarded.
type Fetch struct {
	url         string
	contentType pipeline.ContentType
	title       string
	timeout     time.Duration
	cache       *FetchCache
	client      *http.Client
}

func NewFetch(url string, contentType pipeline.ContentType, title string, timeout time.Duration, cache *FetchCache) *Fetch {
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetch{
		url:         url,
		contentType: contentType,
		title:       title,
		timeout:     timeout,
		cache:       cache,
		client:      &http.Client{Timeout: timeout},
	}
}

func (f *Fetch) Name() string        { return "fetch" }
func (f *Fetch) Kind() pipeline.Kind { return pipeline.KindFetcher }

func (f *Fetch) Apply(ctx context.Context, _ []pipeline.Item) ([]pipeline.Item, error) {
	page, err := f.fetch(ctx)
	if err != nil {
		return nil, err
	}

	return []pipeline.Item{{
		URI:         f.url,
		Title:       f.title,
		Content:     page.content,
		ContentType: f.contentType,
		Encoding:    page.encoding,
	}}, nil
}

func (f *Fetch) fetch(ctx context.Context) (fetchedPage, error) {
	if f.cache != nil {
		if cached, ok := f.cache.cache.Get(f.url); ok {
			if page, ok := cached.(fetchedPage); ok {
				return page, nil
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fetchedPage{}, fmt.Errorf("build request for %s: %w", f.url, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return fetchedPage{}, fmt.Errorf("fetch %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fetchedPage{}, fmt.Errorf("fetch %s: %s", f.url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fetchedPage{}, fmt.Errorf("read %s: %w", f.url, err)
	}

	charset := responseCharset(resp)
	content, err := pipeline.DecodeBytes(body, charset)
	if err != nil {
		return fetchedPage{}, fmt.Errorf("decode %s: %w", f.url, err)
	}

	page := fetchedPage{content: content, encoding: charset}
	if f.cache != nil {
		f.cache.cache.Set(f.url, page, gocache.DefaultExpiration)
	}
	return page, nil
}

func responseCharset(resp *http.Response) string {
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return pipeline.DefaultEncoding
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return pipeline.DefaultEncoding
	}
	if cs, ok := params["charset"]; ok && cs != "" {
		return cs
	}
	return pipeline.DefaultEncoding
}
