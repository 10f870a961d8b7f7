// Package sqlite implements the relational sink on SQLite using database/sql
// and the pure-Go modernc driver. SQLite has no COPY; rows are written with a
// prepared INSERT inside the dataset transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"movieload/internal/storage"
	sqliteddl "movieload/internal/storage/sqlite/ddl"
)

// Kind is the storage kind this package registers.
const Kind = "sqlite"

// Session is a storage.Relational backed by a single SQLite connection.
type Session struct {
	db      *sql.DB
	version string
}

var _ storage.Relational = (*Session)(nil)

// Open opens the database at cfg.DSN (a path, "file:" URI or ":memory:"),
// enables foreign keys and verifies that the database accepts writes.
func Open(ctx context.Context, cfg storage.Config) (*Session, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, connErr("open", storage.CategoryDriver, errors.New("DSN must not be empty"))
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, connErr("open", storage.CategoryDriver, err)
	}
	// A single connection keeps PRAGMAs, temp state and in-memory databases
	// consistent across calls.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, connErr("connect", classify(err), err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, connErr("enable foreign keys", classify(err), err)
	}

	s := &Session{db: db}
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&s.version); err != nil {
		db.Close()
		return nil, connErr("version probe", classify(err), err)
	}
	if err := s.probeWrite(ctx); err != nil {
		db.Close()
		return nil, connErr("write probe", classify(err), err)
	}
	return s, nil
}

// FromDB wraps an already open handle without enabling foreign keys or
// probing it.
func FromDB(db *sql.DB, version string) *Session {
	return &Session{db: db, version: version}
}

// probeWrite creates and drops a table in the main database inside a
// transaction that is always rolled back.
func (s *Session) probeWrite(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "CREATE TABLE main.movieload_write_probe (id INTEGER)"); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "DROP TABLE main.movieload_write_probe")
	return err
}

func (s *Session) Kind() string             { return Kind }
func (s *Session) Version() string          { return "SQLite " + s.version }
func (s *Session) Dialect() storage.Dialect { return sqliteddl.Dialect{} }

// Begin starts a transaction.
func (s *Session) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Close closes the database.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for callers that need to read back what
// was loaded (the clean dry run and tests).
func (s *Session) DB() *sql.DB { return s.db }

// Tx wraps a database/sql transaction.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

const savepoint = "movieload_sp"

// ExecIsolated runs stmt inside a SAVEPOINT. On failure the savepoint is
// rolled back and released so the outer transaction stays usable.
func (t *Tx) ExecIsolated(ctx context.Context, stmt string) error {
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return fmt.Errorf("sqlite: savepoint: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		_, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO "+savepoint)
		_, relErr := t.tx.ExecContext(ctx, "RELEASE "+savepoint)
		return errors.Join(fmt.Errorf("sqlite: exec: %w", err), rbErr, relErr)
	}
	if _, err := t.tx.ExecContext(ctx, "RELEASE "+savepoint); err != nil {
		return fmt.Errorf("sqlite: release savepoint: %w", err)
	}
	return nil
}

// InsertRows inserts the given rows into table using a prepared INSERT.
// len(row) must equal len(columns) for every row.
func (t *Tx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: insert %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqliteddl.QuoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		sqliteddl.QuoteFQN(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	stmt, err := t.tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return inserted, fmt.Errorf("sqlite: insert %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("sqlite: insert %s: %w", table, err)
		}
		inserted++
	}
	return inserted, nil
}

func (t *Tx) Commit(context.Context) error   { return t.tx.Commit() }
func (t *Tx) Rollback(context.Context) error { return t.tx.Rollback() }

// classify maps a driver error onto a storage.ErrorCategory using the
// primary SQLite result code.
func classify(err error) storage.ErrorCategory {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
			return storage.CategoryPrivilege
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return storage.CategoryConnectivity
		}
		return storage.CategoryDriver
	}
	return storage.CategoryOf(err)
}

func connErr(op string, c storage.ErrorCategory, err error) error {
	return &storage.ConnError{Backend: Kind, Category: c, Op: op, Err: err}
}
