package storage

import (
	"context"

	"movieload/internal/ddl"
)

// Dialect renders catalog definitions into backend SQL.
type Dialect interface {
	// ResetSchema returns the statements that drop every catalog table
	// (and anything depending on them) before the schema is recreated.
	ResetSchema(tables []ddl.TableDef) []string
	CreateTable(t ddl.TableDef) (string, error)
	// CreateIndex returns ErrUnsupported for indexes the backend cannot build.
	CreateIndex(ix ddl.IndexDef) (string, error)
	// CreateExtension returns ErrUnsupported when the backend has no
	// extension mechanism.
	CreateExtension(name string) (string, error)
}

// Relational is one open session against the structured sink. A session is
// owned by a single loader and is not safe for concurrent use.
type Relational interface {
	Kind() string
	// Version is the server version string captured at connect time.
	Version() string
	Dialect() Dialect
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is a relational transaction.
type Tx interface {
	Exec(ctx context.Context, sql string) error
	// ExecIsolated runs sql inside a savepoint so that a failure does not
	// abort the enclosing transaction.
	ExecIsolated(ctx context.Context, sql string) error
	// InsertRows inserts rows (aligned to columns) into table and returns the
	// number of rows written.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
