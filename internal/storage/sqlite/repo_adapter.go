package sqlite

import (
	"context"

	"movieload/internal/storage"
)

// openSession is a test hook that points to Open by default.
var openSession = func(ctx context.Context, cfg storage.Config) (storage.Relational, error) {
	return Open(ctx, cfg)
}

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Relational, error) {
		return openSession(ctx, cfg)
	})
}
