package load

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"movieload/internal/dataset"
	"movieload/internal/ddl"
	"movieload/internal/logger"
	"movieload/internal/metrics"
	"movieload/internal/storage"
)

// Collections names the three collections of the document sink.
type Collections struct {
	Reviews  string
	Awards   string
	Messages string
}

// DefaultCollections are the collection names used when none are configured.
func DefaultCollections() Collections {
	return Collections{Reviews: "reviews", Awards: "oscar_awards", Messages: "messages"}
}

func (c Collections) all() []string { return []string{c.Reviews, c.Awards, c.Messages} }

// Document loads the document sink through one storage.Document session.
type Document struct {
	store     storage.Document
	cols      Collections
	batchSize int
	log       *logger.Logger
}

// NewDocument returns a loader that owns store until Close.
func NewDocument(store storage.Document, cols Collections, batchSize int, log *logger.Logger) *Document {
	return &Document{store: store, cols: cols, batchSize: batchSize, log: log.Named("document")}
}

// CreateCollections drops the database and creates the reviews, awards and
// messages collections. The messages collection stays empty; it is owned by
// another application. Any failure is returned.
func (d *Document) CreateCollections(ctx context.Context) error {
	if err := d.store.DropDatabase(ctx); err != nil {
		return fmt.Errorf("create collections: %w", err)
	}
	for _, name := range d.cols.all() {
		if err := d.store.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("create collections: %w", err)
		}
	}
	d.log.Info("collections created", "collections", d.cols.all())
	return nil
}

// InsertDataset writes t into collection in unordered batches and returns
// the number of documents stored. Documents rejected individually are
// logged and left out of the count; a batch that fails as a whole aborts
// the call with a *storage.LoadError carrying its 1-based index. An empty
// table returns (0, nil).
func (d *Document) InsertDataset(ctx context.Context, t *dataset.Table, collection string) (int64, error) {
	if t.Empty() {
		return 0, nil
	}
	var rejected int
	total, err := storage.RunBatches(ctx, d.log, collection, t.Len(), d.batchSize,
		func(ctx context.Context, batch, lo, hi int) (int64, error) {
			docs := make([]bson.D, 0, hi-lo)
			for _, rec := range t.Records[lo:hi] {
				docs = append(docs, toDocument(t.Columns, rec))
			}
			n, err := d.store.InsertMany(ctx, collection, docs)
			var pw *storage.PartialWriteError
			if errors.As(err, &pw) {
				rejected += pw.Failed
				metrics.RecordRows(SinkDocument, collection, "rejected", int64(pw.Failed))
				d.log.Warn("documents rejected", "collection", collection, "batch", batch, "rejected", pw.Failed, "err", pw)
				err = nil
			}
			if err != nil {
				return 0, &storage.LoadError{Target: collection, Batch: batch, Err: err}
			}
			metrics.RecordBatches(SinkDocument, 1)
			return int64(n), nil
		})
	if err != nil {
		return total, asLoadError(collection, 0, err)
	}
	if rejected > 0 {
		d.log.Warn("collection loaded with rejections", "collection", collection, "inserted", total, "rejected", rejected)
	}
	metrics.RecordRows(SinkDocument, collection, "inserted", total)
	return total, nil
}

// toDocument keeps column order; nil becomes BSON null.
func toDocument(cols []string, r dataset.Record) bson.D {
	doc := make(bson.D, 0, len(cols))
	for _, c := range cols {
		doc = append(doc, bson.E{Key: c, Value: r[c]})
	}
	return doc
}

// LoadAll inserts reviews and awards.
func (d *Document) LoadAll(ctx context.Context, set dataset.Set) (Result, error) {
	plan := []ddl.Target{
		{Dataset: dataset.Reviews, Table: d.cols.Reviews},
		{Dataset: dataset.Awards, Table: d.cols.Awards},
	}
	return loadPlan(ctx, d.log, SinkDocument, set, plan, d.InsertDataset)
}

func asc(keys ...string) bson.D {
	d := make(bson.D, len(keys))
	for i, k := range keys {
		d[i] = bson.E{Key: k, Value: 1}
	}
	return d
}

// Indexes returns the index set per collection.
func (d *Document) Indexes() map[string][]storage.DocIndex {
	single := func(fields ...string) []storage.DocIndex {
		out := make([]storage.DocIndex, len(fields))
		for i, f := range fields {
			out[i] = storage.DocIndex{Keys: asc(f)}
		}
		return out
	}

	reviews := single("movie_title", "critic_name", "review_date", "review_type", "review_score", "publisher_name", "id_movie")
	reviews = append(reviews, storage.DocIndex{Keys: bson.D{{Key: "movie_title", Value: 1}, {Key: "review_date", Value: -1}}})

	messages := []storage.DocIndex{{Keys: asc("messageId"), Unique: true}}
	messages = append(messages, single("roomName", "timestamp", "userName")...)
	messages = append(messages, storage.DocIndex{Keys: bson.D{{Key: "roomName", Value: 1}, {Key: "timestamp", Value: -1}}})

	return map[string][]storage.DocIndex{
		d.cols.Reviews:  reviews,
		d.cols.Awards:   single("film", "category", "id_movie"),
		d.cols.Messages: messages,
	}
}

// CreateIndexes builds every index. Unlike the relational side any failure
// is returned: a missing unique index would let duplicates in later.
func (d *Document) CreateIndexes(ctx context.Context) error {
	idx := d.Indexes()
	for _, coll := range d.cols.all() {
		if err := d.store.CreateIndexes(ctx, coll, idx[coll]); err != nil {
			metrics.RecordIndex(SinkDocument, "failed")
			return fmt.Errorf("create indexes: %w", err)
		}
		for range idx[coll] {
			metrics.RecordIndex(SinkDocument, "created")
		}
		d.log.Info("indexes created", "collection", coll, "count", len(idx[coll]))
	}
	return nil
}

// Close disconnects the store. Errors are logged and returned.
func (d *Document) Close(ctx context.Context) error {
	if err := d.store.Close(ctx); err != nil {
		d.log.Warn("close store", "err", err)
		return err
	}
	return nil
}
