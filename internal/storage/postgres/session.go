// Package postgres implements the relational sink on Postgres using pgx v5.
// Rows are written with COPY inside one transaction per dataset; index
// statements run under savepoints so a single failure does not abort the
// transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"movieload/internal/storage"
	pgddl "movieload/internal/storage/postgres/ddl"
)

// Kind is the storage kind this package registers.
const Kind = "postgres"

// Session is a storage.Relational backed by a pgx pool.
type Session struct {
	pool    *pgxpool.Pool
	version string
	dialect pgddl.Dialect
}

var (
	_ storage.Relational = (*Session)(nil)
	_ storage.Dialect    = pgddl.Dialect{}
)

// Open connects, reads the server version and verifies that the user can
// create and drop a temporary table. Failures come back as
// *storage.ConnError with a category.
func Open(ctx context.Context, cfg storage.Config) (*Session, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, connErr("parse dsn", storage.CategoryDriver, err)
	}
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	// One loader owns one session; a single connection keeps the
	// transaction and savepoints on the same backend.
	pcfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, connErr("connect", classify(err), err)
	}
	s := &Session{pool: pool}

	if err := pool.QueryRow(ctx, "SELECT version()").Scan(&s.version); err != nil {
		pool.Close()
		return nil, connErr("version probe", classify(err), err)
	}
	if err := s.probeWrite(ctx); err != nil {
		pool.Close()
		return nil, connErr("write probe", classify(err), err)
	}
	return s, nil
}

func (s *Session) probeWrite(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, "CREATE TEMP TABLE movieload_write_probe (id INT)"); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DROP TABLE movieload_write_probe"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Session) Kind() string             { return Kind }
func (s *Session) Version() string          { return shortVersion(s.version) }
func (s *Session) Dialect() storage.Dialect { return s.dialect }

// Begin starts a transaction.
func (s *Session) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Close releases the pool.
func (s *Session) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	_, err := t.tx.Exec(ctx, sql)
	return err
}

// ExecIsolated runs sql inside a savepoint. pgx implements a nested Begin as
// SAVEPOINT; Rollback and Commit on it map to ROLLBACK TO / RELEASE.
func (t *Tx) ExecIsolated(ctx context.Context, sql string) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, sql); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return err
	}
	return sp.Commit(ctx)
}

// InsertRows copies rows into table with the COPY protocol.
func (t *Tx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := t.tx.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s): %w", table, pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

// shortVersion keeps "PostgreSQL 16.2" out of the full version() banner.
func shortVersion(v string) string {
	head, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(head)
}

// SQLSTATE codes that mean the credentials or grants are insufficient.
const (
	codeInsufficientPrivilege = "42501"
	classInvalidAuthorization = "28"
)

// classify maps a pgx error onto a storage.ErrorCategory.
func classify(err error) storage.ErrorCategory {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == codeInsufficientPrivilege || strings.HasPrefix(pgErr.Code, classInvalidAuthorization) {
			return storage.CategoryPrivilege
		}
		return storage.CategoryDriver
	}
	var ce *pgconn.ConnectError
	if errors.As(err, &ce) {
		return storage.CategoryConnectivity
	}
	return storage.CategoryOf(err)
}

func connErr(op string, c storage.ErrorCategory, err error) error {
	return &storage.ConnError{Backend: Kind, Category: c, Op: op, Err: err}
}
