// Package diffmode maintains per-source snapshots and renders unified
// diffs against them. It runs beside the fingerprint bookkeeping, never
// instead of it: the detector decides that something changed, this package
// only decides what to show.
package diffmode

import (
	"context"
	"errors"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"webwatch/internal/storage"
)

// NoBaseline is reported instead of a diff when a source is seen in diff
// mode for the first time and there is no snapshot to compare against.
const NoBaseline = "(no previous version, nothing to diff)"

type Engine struct {
	store storage.Store
}

func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

// DiffAndStore compares content against the source's stored snapshot and
// then unconditionally overwrites the snapshot with content. Returns the
// unified diff, or NoBaseline when no snapshot existed.
func (e *Engine) DiffAndStore(ctx context.Context, source, content string) (string, error) {
	prev, err := e.store.Read(ctx, source, storage.KindSnapshot)
	hadBaseline := true
	if errors.Is(err, storage.ErrNotExist) {
		hadBaseline = false
	} else if err != nil {
		return "", fmt.Errorf("load snapshot for %s: %w", source, err)
	}

	if werr := e.store.Write(ctx, source, storage.KindSnapshot, []byte(content)); werr != nil {
		return "", fmt.Errorf("store snapshot for %s: %w", source, werr)
	}

	if !hadBaseline {
		return NoBaseline, nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(prev)),
		B:        difflib.SplitLines(content),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", source, err)
	}
	return diff, nil
}
