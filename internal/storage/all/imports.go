// Package all wires the built-in relational backends into the storage
// factory. Importing it for side effects makes these kinds available to
// storage.New:
//
//   - "postgres" (movieload/internal/storage/postgres)
//   - "sqlite"   (movieload/internal/storage/sqlite)
//
// Typical usage from a wiring layer:
//
//	import _ "movieload/internal/storage/all"
//
//	sess, err := storage.New(ctx, storage.Config{Kind: cfg.RelationalKind, DSN: dsn})
//
// The document sink is not pluggable and is opened directly through
// movieload/internal/storage/mongo.
package all

import (
	_ "movieload/internal/storage/postgres"
	_ "movieload/internal/storage/sqlite"
)
