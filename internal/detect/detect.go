// Package detect decides which items of a pipeline run are new and keeps
// the per-source fingerprint sets in storage.
package detect

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"webwatch/internal/pipeline"
	"webwatch/internal/storage"
)

// ErrBadContent marks items that cannot be fingerprinted, a bogus charset
// declaration for instance. Callers use it to tell undigestible retrieved
// content apart from storage faults.
var ErrBadContent = errors.New("content cannot be fingerprinted")

// Fingerprint returns the hex md5 digest of the item's encoded content.
// The digest is over the encoded bytes, not the decoded text, so it stays
// stable for consumers that never decode.
func Fingerprint(it pipeline.Item) (string, error) {
	data, err := it.EncodedContent()
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// Result is one classification pass over a source's pipeline output.
type Result struct {
	// New holds the items whose fingerprints were absent from the prior
	// set, in discovery order.
	New []pipeline.Item
	// Unchanged counts items whose fingerprints were already known.
	Unchanged int
	// FirstRun is true when the source had no prior fingerprints at all.
	// The orchestrator uses it as the notification suppression signal.
	FirstRun bool
	// hashes is the fingerprint set to persist, in first-seen order.
	hashes []string
}

// Detector classifies pipeline output against stored fingerprints.
type Detector struct {
	store storage.Store
}

func New(store storage.Store) *Detector {
	return &Detector{store: store}
}

// Classify fingerprints every item produced this run and partitions them
// into new and unchanged against the source's stored set. The result's
// persisted set contains every fingerprint seen this run; with keepAll it
// additionally retains prior fingerprints that did not reappear.
func (d *Detector) Classify(ctx context.Context, source string, items []pipeline.Item, keepAll bool) (Result, error) {
	prior, err := d.loadHashes(ctx, source)
	if err != nil {
		return Result{}, err
	}

	priorSet := make(map[string]struct{}, len(prior))
	for _, h := range prior {
		priorSet[h] = struct{}{}
	}

	res := Result{FirstRun: len(prior) == 0}
	seen := make(map[string]struct{}, len(items))

	for _, it := range items {
		hash, err := Fingerprint(it)
		if err != nil {
			return Result{}, fmt.Errorf("item for %s: %w: %w", source, ErrBadContent, err)
		}

		if _, dup := seen[hash]; !dup {
			seen[hash] = struct{}{}
			res.hashes = append(res.hashes, hash)
		}

		if _, ok := priorSet[hash]; ok {
			res.Unchanged++
			continue
		}
		// Adding the hash here collapses in-run duplicates into their
		// first occurrence.
		priorSet[hash] = struct{}{}
		res.New = append(res.New, it)
	}

	if keepAll {
		for _, h := range prior {
			if _, ok := seen[h]; !ok {
				res.hashes = append(res.hashes, h)
			}
		}
	}

	return res, nil
}

// Commit rewrites the stored fingerprint set, but only when the run
// produced at least one new item. An all-unchanged run leaves persisted
// state byte-identical, which makes repeated no-op invocations idempotent.
func (d *Detector) Commit(ctx context.Context, source string, res Result) error {
	if len(res.New) == 0 {
		return nil
	}
	data := encodeHashes(res.hashes)
	if err := d.store.Write(ctx, source, storage.KindFingerprints, data); err != nil {
		return fmt.Errorf("store fingerprints for %s: %w", source, err)
	}
	return nil
}

func (d *Detector) loadHashes(ctx context.Context, source string) ([]string, error) {
	data, err := d.store.Read(ctx, source, storage.KindFingerprints)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load fingerprints for %s: %w", source, err)
	}
	return decodeHashes(data), nil
}

// Fingerprint sets are stored one hash per line.

func encodeHashes(hashes []string) []byte {
	var b strings.Builder
	for _, h := range hashes {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func decodeHashes(data []byte) []string {
	var hashes []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			hashes = append(hashes, line)
		}
	}
	return hashes
}
