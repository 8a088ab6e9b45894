// Package storage remembers which live tracker updates were already
// published, so a restarted poller does not publish them twice.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks published live update keys.
type Store interface {
	Close() error
	SeenUpdate(key string) (bool, error)
	MarkUpdate(key string) error
}

// Options controls how long update keys are remembered.
type Options struct {
	UpdateTTL       time.Duration
	CleanupInterval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

const (
	defaultUpdateTTL       = 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.UpdateTTL <= 0 {
		opts.UpdateTTL = defaultUpdateTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                    { return nil }
func (noopStore) SeenUpdate(string) (bool, error) { return false, nil }
func (noopStore) MarkUpdate(string) error         { return nil }
