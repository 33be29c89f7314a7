package config

import (
	"fmt"

	"webwatch/internal/pipeline"
	"webwatch/internal/session"
	"webwatch/internal/stages"
)

// BuildSources turns the declarative source definitions into executable
// stage chains. One fetch cache is shared by the whole session so sources
// watching the same page hit the network once.
func BuildSources(cfg *Config) ([]session.Source, error) {
	cache := stages.NewFetchCache(0)

	sources := make([]session.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		src := session.Source{
			Name:          sc.Name,
			Diff:          sc.Diff,
			KeepAllHashes: sc.KeepAllHashes,
			Receiver:      sc.Receiver,
		}

		for i, stc := range sc.Stages {
			stage, err := buildStage(stc, cache, false)
			if err != nil {
				return nil, fmt.Errorf("source %s, stage %d: %w", sc.Name, i+1, err)
			}
			src.Stages = append(src.Stages, stage)
		}

		for i, stc := range sc.PostRun {
			stage, err := buildStage(stc, cache, true)
			if err != nil {
				return nil, fmt.Errorf("source %s, post-run stage %d: %w", sc.Name, i+1, err)
			}
			src.PostRun = append(src.PostRun, stage)
		}

		if err := src.Validate(); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	return sources, nil
}

func buildStage(sc StageConfig, cache *stages.FetchCache, postRun bool) (pipeline.Stage, error) {
	settings := sc.Settings
	if settings == nil {
		settings = map[string]interface{}{}
	}

	switch sc.Type {
	case "fetch":
		url := GetString(settings, "url", "")
		if url == "" {
			return nil, fmt.Errorf("fetch stage: url is required")
		}
		contentType, err := parseContentType(GetString(settings, "content_type", "html"))
		if err != nil {
			return nil, err
		}
		// cache = false opts a source out of the shared response cache,
		// for pages that must be re-fetched even within one session.
		if !GetBool(settings, "cache", true) {
			cache = nil
		}
		return stages.NewFetch(
			url,
			contentType,
			GetString(settings, "title", ""),
			GetDuration(settings, "timeout", 0),
			cache,
		), nil

	case "command":
		command := GetString(settings, "command", "")
		if command == "" {
			return nil, fmt.Errorf("command stage: command is required")
		}
		contentType, err := parseContentType(GetString(settings, "content_type", "text"))
		if err != nil {
			return nil, err
		}
		return stages.NewCommand(
			command,
			contentType,
			GetString(settings, "title", ""),
			GetDuration(settings, "timeout", 0),
		), nil

	case "css":
		return stages.NewCSS(GetString(settings, "selector", ""))

	case "xpath":
		return stages.NewXPath(GetString(settings, "expression", ""))

	case "regex":
		pattern := GetString(settings, "pattern", "")
		if pattern == "" {
			return nil, fmt.Errorf("regex stage: pattern is required")
		}
		return stages.NewRegex(pattern)

	case "feed":
		url := GetString(settings, "url", "")
		if url == "" {
			return nil, fmt.Errorf("feed stage: url is required")
		}
		return stages.NewFeed(
			url,
			GetDuration(settings, "timeout", 0),
			GetInt(settings, "limit", 0),
		), nil

	case "readability":
		return stages.NewReadability(), nil

	case "script":
		kind := pipeline.KindExtractor
		if postRun {
			kind = pipeline.KindSink
		}
		return stages.NewScript(GetString(settings, "path", ""), kind)

	default:
		return nil, fmt.Errorf("unknown stage type: %s", sc.Type)
	}
}

func parseContentType(name string) (pipeline.ContentType, error) {
	switch pipeline.ContentType(name) {
	case pipeline.TypeHTML, pipeline.TypeText, pipeline.TypeXML, pipeline.TypeOther:
		return pipeline.ContentType(name), nil
	default:
		return "", fmt.Errorf("invalid content_type: %s", name)
	}
}
