package postgres

import (
	"context"

	"movieload/internal/storage"
)

// openSession is a test hook that points to Open by default. Tests may
// replace this variable to avoid real DB connections.
var openSession = func(ctx context.Context, cfg storage.Config) (storage.Relational, error) {
	return Open(ctx, cfg)
}

// init registers the "postgres" backend with the storage factory so callers
// can obtain a session via storage.New without importing this package.
func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Relational, error) {
		return openSession(ctx, cfg)
	})
}
