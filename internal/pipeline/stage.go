package pipeline

import "context"

// Kind tells the runner (and config validation) what role a stage plays in
// the chain.
type Kind int

const (
	// KindFetcher produces items from an external source and ignores its
	// input sequence. Expected to be the first stage of a chain.
	KindFetcher Kind = iota
	// KindExtractor maps each input item to zero or more output items.
	KindExtractor
	// KindSink consumes items for a side effect and passes them through
	// unchanged.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindFetcher:
		return "fetcher"
	case KindExtractor:
		return "extractor"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Stage is one step of a source's pipeline. Apply fully materializes its
// output before the next stage runs; payloads are small enough that nothing
// streams.
type Stage interface {
	Name() string
	Kind() Kind
	Apply(ctx context.Context, items []Item) ([]Item, error)
}
