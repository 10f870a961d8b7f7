package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// DocIndex is a secondary index on a collection. Keys is ordered; each value
// is 1 (ascending) or -1 (descending).
type DocIndex struct {
	Name   string
	Keys   bson.D
	Unique bool
}

// Document is one open session against the document sink.
type Document interface {
	Version() string
	DropDatabase(ctx context.Context) error
	CreateCollection(ctx context.Context, name string) error
	// InsertMany writes docs without ordering. Per-document failures are
	// reported as *PartialWriteError together with the number written; any
	// other error means the batch as a whole failed.
	InsertMany(ctx context.Context, collection string, docs []bson.D) (int, error)
	CreateIndexes(ctx context.Context, collection string, idx []DocIndex) error
	Close(ctx context.Context) error
}

// PartialWriteError reports documents rejected inside an otherwise
// successful unordered batch.
type PartialWriteError struct {
	Failed   int
	Messages []string
}

func (e *PartialWriteError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("%d documents rejected (first: %s)", e.Failed, e.Messages[0])
	}
	return fmt.Sprintf("%d documents rejected", e.Failed)
}
