// Package mongo implements the document sink on MongoDB using the official
// driver. Inserts are unordered so one bad document does not stop the rest
// of its batch.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"movieload/internal/storage"
)

// Backend names this sink in errors.
const Backend = "mongo"

// probeCollection is created, written and dropped at connect time.
const probeCollection = "movieload_write_probe"

// Config describes how to reach the document store.
type Config struct {
	URI                    string
	Database               string
	ServerSelectionTimeout time.Duration
}

// Store is a storage.Document backed by a mongo.Client.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	version string
}

var _ storage.Document = (*Store)(nil)

// Open connects, pings the primary, reads the server version and checks
// that the user can insert into and drop a scratch collection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		return nil, connErr("open", storage.CategoryDriver, errors.New("database name must not be empty"))
	}
	opts := options.Client().ApplyURI(cfg.URI).SetAppName("movieload")
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, connErr("connect", classify(err), err)
	}
	s := &Store{client: client, db: client.Database(cfg.Database)}

	fail := func(op string, err error) (*Store, error) {
		_ = client.Disconnect(context.Background())
		return nil, connErr(op, classify(err), err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fail("ping", err)
	}

	var info struct {
		Version string `bson:"version"`
	}
	if err := s.db.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info); err != nil {
		return fail("version probe", err)
	}
	s.version = info.Version

	if err := s.probeWrite(ctx); err != nil {
		return fail("write probe", err)
	}
	return s, nil
}

func (s *Store) probeWrite(ctx context.Context) error {
	coll := s.db.Collection(probeCollection)
	if _, err := coll.InsertOne(ctx, bson.D{{Key: "probe", Value: true}}); err != nil {
		return err
	}
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return err
	}
	return coll.Drop(ctx)
}

// Version is the server version captured at connect time.
func (s *Store) Version() string { return "MongoDB " + s.version }

// DropDatabase drops the configured database with every collection in it.
func (s *Store) DropDatabase(ctx context.Context) error {
	if err := s.db.Drop(ctx); err != nil {
		return fmt.Errorf("mongo: drop database %s: %w", s.db.Name(), err)
	}
	return nil
}

// CreateCollection creates an empty collection.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if err := s.db.CreateCollection(ctx, name); err != nil {
		return fmt.Errorf("mongo: create collection %s: %w", name, err)
	}
	return nil
}

// InsertMany writes docs with ordered=false.
func (s *Store) InsertMany(ctx context.Context, collection string, docs []bson.D) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	batch := make([]interface{}, len(docs))
	for i, d := range docs {
		batch[i] = d
	}

	_, err := s.db.Collection(collection).InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), nil
	}
	if pw := partial(err); pw != nil {
		return len(docs) - pw.Failed, pw
	}
	return 0, err
}

// partial converts a bulk write exception that only carries per-document
// write errors into a *storage.PartialWriteError. Anything else (write
// concern failures, network errors) returns nil.
func partial(err error) *storage.PartialWriteError {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return nil
	}
	pw := &storage.PartialWriteError{Failed: len(bwe.WriteErrors)}
	for i, we := range bwe.WriteErrors {
		if i == 5 {
			break
		}
		pw.Messages = append(pw.Messages, fmt.Sprintf("index %d: %s", we.Index, we.Message))
	}
	return pw
}

// CreateIndexes builds the given indexes on collection.
func (s *Store) CreateIndexes(ctx context.Context, collection string, idx []storage.DocIndex) error {
	if len(idx) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, len(idx))
	for i, ix := range idx {
		o := options.Index()
		if ix.Name != "" {
			o.SetName(ix.Name)
		}
		if ix.Unique {
			o.SetUnique(true)
		}
		models[i] = mongo.IndexModel{Keys: ix.Keys, Options: o}
	}
	if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo: create indexes on %s: %w", collection, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Server error codes that mean the user lacks rights.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

// classify maps a driver error onto a storage.ErrorCategory.
func classify(err error) storage.ErrorCategory {
	var se mongo.ServerError
	if errors.As(err, &se) {
		if se.HasErrorCode(codeUnauthorized) || se.HasErrorCode(codeAuthenticationFailed) {
			return storage.CategoryPrivilege
		}
		return storage.CategoryDriver
	}
	// Handshake authentication failures surface as connection errors.
	if strings.Contains(err.Error(), "auth error") {
		return storage.CategoryPrivilege
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return storage.CategoryConnectivity
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return storage.CategoryConnectivity
	}
	return storage.CategoryOf(err)
}

func connErr(op string, c storage.ErrorCategory, err error) error {
	return &storage.ConnError{Backend: Backend, Category: c, Op: op, Err: err}
}
