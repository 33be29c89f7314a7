package storage

import (
	"context"
	"errors"
	"fmt"
)

// Kind selects which record of a source a read or write addresses.
type Kind string

const (
	KindFingerprints Kind = "fingerprints"
	KindSnapshot     Kind = "snapshot"
)

// ErrNotExist is returned by Read when no record has been written yet for
// the given (source, kind) pair.
var ErrNotExist = errors.New("storage: record does not exist")

// Store is per-source key-value persistence. Writes replace the whole
// record atomically: a Read following a Write in the same process never
// observes a partial record.
type Store interface {
	Read(ctx context.Context, source string, kind Kind) ([]byte, error)
	Write(ctx context.Context, source string, kind Kind, data []byte) error
	Exists(ctx context.Context, source string, kind Kind) (bool, error)
	Close() error
}

var factoryFuncs = map[string]func(path string) (Store, error){}

// RegisterFactory makes a backend available under the given type name.
// Backends call this from init().
func RegisterFactory(storageType string, fn func(path string) (Store, error)) {
	factoryFuncs[storageType] = fn
}

// New opens the backend registered under storageType.
func New(storageType, path string) (Store, error) {
	fn, ok := factoryFuncs[storageType]
	if !ok {
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
	return fn(path)
}
