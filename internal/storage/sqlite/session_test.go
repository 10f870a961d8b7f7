package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"

	gddl "movieload/internal/ddl"
	"movieload/internal/storage"
)

/*
Package-level test helpers (TB-aware)
*/

func newMemSession(tb testing.TB) *Session {
	tb.Helper()
	s, err := Open(context.Background(), storage.Config{DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(func() { _ = s.Close() })
	return s
}

func mustExec(tb testing.TB, tx storage.Tx, stmt string) {
	tb.Helper()
	if err := tx.Exec(context.Background(), stmt); err != nil {
		tb.Fatalf("exec %q: %v", stmt, err)
	}
}

// createCatalog creates every catalog table inside one transaction.
func createCatalog(tb testing.TB, s *Session) {
	tb.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		tb.Fatal(err)
	}
	cat := gddl.Movies()
	for _, stmt := range s.Dialect().ResetSchema(cat.Tables) {
		mustExec(tb, tx, stmt)
	}
	for _, td := range cat.Tables {
		stmt, err := s.Dialect().CreateTable(td)
		if err != nil {
			tb.Fatal(err)
		}
		mustExec(tb, tx, stmt)
	}
	if err := tx.Commit(ctx); err != nil {
		tb.Fatal(err)
	}
}

func count(tb testing.TB, s *Session, table string) int {
	tb.Helper()
	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	return n
}

/*
Unit tests
*/

func TestOpen_VersionAndKind(t *testing.T) {
	t.Parallel()

	s := newMemSession(t)
	if s.Kind() != Kind {
		t.Fatalf("Kind = %s", s.Kind())
	}
	if !strings.HasPrefix(s.Version(), "SQLite 3.") {
		t.Fatalf("Version = %q", s.Version())
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), storage.Config{})
	if !storage.IsCategory(err, storage.CategoryDriver) {
		t.Fatalf("err = %v, want driver ConnError", err)
	}
}

// The catalog round-trips: serial ids are generated, foreign keys cascade.
func TestCatalogRoundTrip(t *testing.T) {
	t.Parallel()

	s := newMemSession(t)
	createCatalog(t, s)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	n, err := tx.InsertRows(ctx, "movies", []string{"id", "name", "date", "rating"},
		[][]any{{int64(1), "Alpha", int64(1999), 3.5}, {int64(2), "Beta", nil, nil}})
	if err != nil || n != 2 {
		t.Fatalf("insert movies = %d, %v", n, err)
	}
	n, err = tx.InsertRows(ctx, "actors", []string{"id_movie", "name", "role"},
		[][]any{{int64(1), "A. Actor", "Lead"}, {int64(1), "B. Actor", nil}, {int64(2), "C", "x"}})
	if err != nil || n != 3 {
		t.Fatalf("insert actors = %d, %v", n, err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	var maxID int
	if err := s.DB().QueryRow(`SELECT MAX(id) FROM actors`).Scan(&maxID); err != nil || maxID != 3 {
		t.Fatalf("serial ids: max=%d err=%v", maxID, err)
	}

	if _, err := s.DB().Exec(`DELETE FROM movies WHERE id = 1`); err != nil {
		t.Fatal(err)
	}
	if got := count(t, s, "actors"); got != 1 {
		t.Fatalf("actors after cascade = %d, want 1", got)
	}
}

func TestInsertRows_ForeignKeyViolation(t *testing.T) {
	t.Parallel()

	s := newMemSession(t)
	createCatalog(t, s)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	_, err = tx.InsertRows(ctx, "genres", []string{"id_movie", "genre"}, [][]any{{int64(42), "Drama"}})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
	_ = tx.Rollback(ctx)
}

func TestInsertRows_RowWidth(t *testing.T) {
	t.Parallel()

	s := newMemSession(t)
	createCatalog(t, s)
	ctx := context.Background()
	tx, _ := s.Begin(ctx)
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.InsertRows(ctx, "movies", []string{"id", "name"}, [][]any{{int64(1)}}); err == nil {
		t.Fatal("expected row width error")
	}
	if _, err := tx.InsertRows(ctx, "movies", nil, [][]any{{int64(1)}}); err == nil {
		t.Fatal("expected error for empty columns")
	}
	if n, err := tx.InsertRows(ctx, "movies", []string{"id"}, nil); n != 0 || err != nil {
		t.Fatalf("empty insert = %d, %v", n, err)
	}
}

// A failing isolated statement must leave the transaction usable.
func TestExecIsolated(t *testing.T) {
	t.Parallel()

	s := newMemSession(t)
	createCatalog(t, s)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.ExecIsolated(ctx, `CREATE INDEX idx_bad ON movies(no_such_column)`); err == nil {
		t.Fatal("expected isolated failure")
	}
	if err := tx.ExecIsolated(ctx, `CREATE INDEX idx_ok ON movies(name)`); err != nil {
		t.Fatalf("isolated success: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit after isolated failure: %v", err)
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_ok'`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("idx_ok present = %d, %v", n, err)
	}
}

func TestDialect_Unsupported(t *testing.T) {
	t.Parallel()

	d := newMemSession(t).Dialect()
	if _, err := d.CreateExtension("pg_trgm"); !errors.Is(err, storage.ErrUnsupported) {
		t.Fatalf("CreateExtension err = %v", err)
	}
	_, err := d.CreateIndex(gddl.IndexDef{Name: "i", Table: "movies", Columns: []string{"name"}, Method: "gin", OpClass: "gin_trgm_ops"})
	if !errors.Is(err, storage.ErrUnsupported) {
		t.Fatalf("CreateIndex err = %v", err)
	}
}

func TestRegistration(t *testing.T) {
	s, err := storage.New(context.Background(), storage.Config{Kind: Kind, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer s.Close()
	if s.Kind() != Kind {
		t.Fatalf("Kind = %s", s.Kind())
	}
}
