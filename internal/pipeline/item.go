package pipeline

import (
	"fmt"

	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is assumed whenever a stage does not declare one.
const DefaultEncoding = "utf-8"

type ContentType string

const (
	TypeHTML  ContentType = "html"
	TypeText  ContentType = "text"
	TypeXML   ContentType = "xml"
	TypeOther ContentType = "other"
)

// Item is the unit of content flowing through a pipeline. Content holds the
// decoded text; Encoding names the charset the original bytes were in, so
// EncodedContent can round-trip back to them.
type Item struct {
	URI             string
	Title           string
	Content         string
	ContentType     ContentType
	Encoding        string
	ExtraRecipients []string
}

// Derive returns a copy of the item carrying new content. URI, title,
// encoding and content type are inherited, which is what extractor stages
// want for their matched sub-items.
func (it Item) Derive(content string) Item {
	out := it
	out.Content = content
	return out
}

// EncodedContent returns the content re-encoded into the item's declared
// charset. Fingerprints are computed over these bytes, not the decoded text,
// so they stay stable for consumers that never decode.
func (it Item) EncodedContent() ([]byte, error) {
	name := it.Encoding
	if name == "" {
		name = DefaultEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}

	data, err := enc.NewEncoder().Bytes([]byte(it.Content))
	if err != nil {
		return nil, fmt.Errorf("encode content as %s: %w", name, err)
	}
	return data, nil
}

// DecodeBytes converts raw bytes in the named charset to a UTF-8 string.
// An empty name means DefaultEncoding.
func DecodeBytes(data []byte, name string) (string, error) {
	if name == "" {
		name = DefaultEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", name, err)
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s content: %w", name, err)
	}
	return string(decoded), nil
}
