package stages

import (
	"context"
	"fmt"
	"path/filepath"

	"webwatch/internal/luascript"
	"webwatch/internal/pipeline"
)

// Script runs a Lua hook over the item list. The script must define a
// global `process(items)` function; items arrive as an array of tables
// with uri, title, content, content_type and encoding fields.
//
// As a sink (post-run position) the return value is ignored and the input
// passes through unchanged: the hook is a follow-up action on changed
// items. As an extractor the returned table replaces the item list; a nil
// return passes the input through.
type Script struct {
	path string
	kind pipeline.Kind
}

func NewScript(path string, kind pipeline.Kind) (*Script, error) {
	if path == "" {
		return nil, fmt.Errorf("script stage: path is required")
	}
	if kind != pipeline.KindExtractor && kind != pipeline.KindSink {
		return nil, fmt.Errorf("script stage: kind must be extractor or sink")
	}
	return &Script{path: path, kind: kind}, nil
}

func (s *Script) Name() string        { return "script" }
func (s *Script) Kind() pipeline.Kind { return s.kind }

func (s *Script) Apply(ctx context.Context, items []pipeline.Item) ([]pipeline.Item, error) {
	loader := luascript.NewFilesystemLoader(filepath.Dir(s.path))
	runtime := luascript.New(
		luascript.WithLoader(loader),
		luascript.WithSecureMode(true),
	)
	defer runtime.Close()

	script, err := loader.Load(filepath.Base(s.path))
	if err != nil {
		return nil, err
	}
	if err := runtime.LoadScript(script); err != nil {
		return nil, err
	}

	results, err := runtime.Execute("process", itemsToValues(items))
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.path, err)
	}

	if s.kind == pipeline.KindSink {
		return items, nil
	}

	if len(results) == 0 || results[0] == nil {
		return items, nil
	}
	out, err := valuesToItems(results[0])
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.path, err)
	}
	return out, nil
}

func itemsToValues(items []pipeline.Item) []interface{} {
	values := make([]interface{}, 0, len(items))
	for _, it := range items {
		values = append(values, map[string]interface{}{
			"uri":          it.URI,
			"title":        it.Title,
			"content":      it.Content,
			"content_type": string(it.ContentType),
			"encoding":     it.Encoding,
		})
	}
	return values
}

func valuesToItems(value interface{}) ([]pipeline.Item, error) {
	list, ok := value.([]interface{})
	if !ok {
		// An empty Lua table converts to an empty map.
		if m, ok := value.(map[string]interface{}); ok && len(m) == 0 {
			return []pipeline.Item{}, nil
		}
		return nil, fmt.Errorf("expected an array of items, got %T", value)
	}

	out := make([]pipeline.Item, 0, len(list))
	for i, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("item %d: expected a table, got %T", i+1, entry)
		}

		it := pipeline.Item{
			ContentType: pipeline.TypeText,
			Encoding:    pipeline.DefaultEncoding,
		}
		if v, ok := m["uri"].(string); ok {
			it.URI = v
		}
		if v, ok := m["title"].(string); ok {
			it.Title = v
		}
		if v, ok := m["content"].(string); ok {
			it.Content = v
		}
		if v, ok := m["content_type"].(string); ok && v != "" {
			it.ContentType = pipeline.ContentType(v)
		}
		if v, ok := m["encoding"].(string); ok && v != "" {
			it.Encoding = v
		}
		out = append(out, it)
	}
	return out, nil
}
