// Package storage contains sink-agnostic contracts shared by the loaders:
// relational sessions and their dialects, the error taxonomy, a factory
// registry for relational backends, and the batch driver used by both
// loaders.
//
// Backends register themselves at init time; importing
// movieload/internal/storage/all makes every built-in backend available.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Config is the backend-agnostic description of a relational sink.
type Config struct {
	Kind           string
	DSN            string
	ConnectTimeout time.Duration
}

// Factory opens a session for a given Config.
type Factory func(ctx context.Context, cfg Config) (Relational, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a backend kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a session using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Relational, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
