package config

import (
	"strings"
	"testing"

	"webwatch/internal/pipeline"
)

func stage(typ string, settings map[string]interface{}) StageConfig {
	return StageConfig{Type: typ, Settings: settings}
}

func TestBuildSources(t *testing.T) {
	cfg := &Config{
		Sources: []SourceConfig{
			{
				Name: "blog",
				Diff: true,
				Stages: []StageConfig{
					stage("fetch", map[string]interface{}{"url": "https://example.com"}),
					stage("css", map[string]interface{}{"selector": "div.post"}),
					stage("regex", map[string]interface{}{"pattern": `\d+`}),
				},
				PostRun: []StageConfig{
					stage("script", map[string]interface{}{"path": "hook.lua"}),
				},
			},
		},
	}

	sources, err := BuildSources(cfg)
	if err != nil {
		t.Fatalf("BuildSources: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("sources = %d", len(sources))
	}

	src := sources[0]
	if src.Name != "blog" || !src.Diff {
		t.Errorf("source = %+v", src)
	}
	if len(src.Stages) != 3 {
		t.Fatalf("stages = %d", len(src.Stages))
	}
	if src.Stages[0].Kind() != pipeline.KindFetcher {
		t.Errorf("first stage kind = %s", src.Stages[0].Kind())
	}
	if len(src.PostRun) != 1 || src.PostRun[0].Kind() != pipeline.KindSink {
		t.Errorf("post-run script must build as a sink")
	}
}

func TestBuildAllStageTypes(t *testing.T) {
	tests := []struct {
		typ      string
		settings map[string]interface{}
		kind     pipeline.Kind
	}{
		{"fetch", map[string]interface{}{"url": "https://example.com", "cache": false}, pipeline.KindFetcher},
		{"command", map[string]interface{}{"command": "date"}, pipeline.KindFetcher},
		{"feed", map[string]interface{}{"url": "https://example.com/rss", "limit": int64(5)}, pipeline.KindFetcher},
		{"css", map[string]interface{}{"selector": "p"}, pipeline.KindExtractor},
		{"xpath", map[string]interface{}{"expression": "//p"}, pipeline.KindExtractor},
		{"regex", map[string]interface{}{"pattern": "x"}, pipeline.KindExtractor},
		{"readability", nil, pipeline.KindExtractor},
		{"script", map[string]interface{}{"path": "hook.lua"}, pipeline.KindExtractor},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			built, err := buildStage(stage(tt.typ, tt.settings), nil, false)
			if err != nil {
				t.Fatalf("buildStage: %v", err)
			}
			if built.Kind() != tt.kind {
				t.Errorf("kind = %s, want %s", built.Kind(), tt.kind)
			}
		})
	}
}

func TestBuildStageErrors(t *testing.T) {
	tests := []struct {
		name    string
		sc      StageConfig
		wantErr string
	}{
		{"unknown type", stage("teleport", nil), "unknown stage type"},
		{"fetch without url", stage("fetch", nil), "url is required"},
		{"command without command", stage("command", nil), "command is required"},
		{"css without selector", stage("css", nil), "selector is required"},
		{"xpath without expression", stage("xpath", nil), "expression is required"},
		{"regex without pattern", stage("regex", nil), "pattern is required"},
		{"regex invalid pattern", stage("regex", map[string]interface{}{"pattern": "("}), "regex stage"},
		{"feed without url", stage("feed", nil), "url is required"},
		{"script without path", stage("script", nil), "path is required"},
		{"fetch bad content type", stage("fetch", map[string]interface{}{
			"url": "https://example.com", "content_type": "pdf",
		}), "invalid content_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildStage(tt.sc, nil, false)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuildSourcesRejectsBadChains(t *testing.T) {
	cfg := &Config{
		Sources: []SourceConfig{
			{
				Name: "backwards",
				Stages: []StageConfig{
					stage("css", map[string]interface{}{"selector": "p"}),
					stage("fetch", map[string]interface{}{"url": "https://example.com"}),
				},
			},
		},
	}

	if _, err := BuildSources(cfg); err == nil {
		t.Fatal("expected error for extractor-first chain")
	}
}

func TestBuildSourcesNamesFailingStage(t *testing.T) {
	cfg := &Config{
		Sources: []SourceConfig{
			{
				Name: "blog",
				Stages: []StageConfig{
					stage("fetch", map[string]interface{}{"url": "https://example.com"}),
					stage("regex", nil),
				},
			},
		},
	}

	_, err := BuildSources(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "source blog, stage 2") {
		t.Errorf("error should locate the failing stage: %v", err)
	}
}
