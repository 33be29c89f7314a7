package session

import (
	"fmt"

	"webwatch/internal/pipeline"
)

// Source is one configured monitoring target. Name doubles as the
// persistence key for its fingerprints and snapshot.
type Source struct {
	Name          string
	Stages        []pipeline.Stage
	PostRun       []pipeline.Stage
	Diff          bool
	KeepAllHashes bool
	// Receiver overrides the session-wide default recipient.
	Receiver string
}

// Validate fails fast on malformed definitions, before any source is
// processed.
func (s Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source has no name")
	}
	if len(s.Stages) == 0 {
		return fmt.Errorf("source %s: no stages configured", s.Name)
	}
	if s.Stages[0].Kind() != pipeline.KindFetcher {
		return fmt.Errorf("source %s: first stage must be a fetcher, got %s %s",
			s.Name, s.Stages[0].Kind(), s.Stages[0].Name())
	}
	for _, st := range s.Stages[1:] {
		if st.Kind() == pipeline.KindFetcher {
			return fmt.Errorf("source %s: fetcher stage %s must come first", s.Name, st.Name())
		}
	}
	for _, st := range s.PostRun {
		if st.Kind() != pipeline.KindSink {
			return fmt.Errorf("source %s: post-run stage %s is not a sink", s.Name, st.Name())
		}
	}
	return nil
}
