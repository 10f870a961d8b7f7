package ddl

import (
	"strings"
	"testing"

	gddl "movieload/internal/ddl"
)

// TestQuoteIdent verifies Postgres identifier quoting and escaping for single
// identifier segments in quoteIdent.
func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "name", want: `"name"`},
		{name: "empty", in: "", want: `""`},
		{name: "with space", in: "user name", want: `"user name"`},
		{name: "with double quote", in: `weird"name`, want: `"weird""name"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := quoteIdent(tt.in); got != tt.want {
				t.Fatalf("quoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"movies", `"movies"`},
		{"public.movies", `"public"."movies"`},
		{".public..movies.", `"public"."movies"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := quoteFQN(tt.in); got != tt.want {
			t.Fatalf("quoteFQN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildCreateTableSQL_Movies(t *testing.T) {
	t.Parallel()

	td, ok := gddl.Movies().Table("movies")
	if !ok {
		t.Fatal("movies table missing from catalog")
	}
	got, err := BuildCreateTableSQL(td)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE \"movies\" (\n" +
		"  \"id\" INTEGER NOT NULL,\n" +
		"  \"name\" TEXT,\n" +
		"  \"date\" INTEGER,\n" +
		"  \"tagline\" TEXT,\n" +
		"  \"description\" TEXT,\n" +
		"  \"minute\" REAL,\n" +
		"  \"rating\" REAL,\n" +
		"  PRIMARY KEY (\"id\")\n" +
		");"
	if got != want {
		t.Fatalf("SQL mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildCreateTableSQL_Dependent(t *testing.T) {
	t.Parallel()

	td, _ := gddl.Movies().Table("oscars")
	got, err := BuildCreateTableSQL(td)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	for _, frag := range []string{
		`"id" SERIAL NOT NULL`,
		`"winner" BOOLEAN`,
		`"ceremony" INTEGER`,
		`PRIMARY KEY ("id")`,
		`FOREIGN KEY ("id_movie") REFERENCES "movies"("id") ON DELETE CASCADE`,
	} {
		if !strings.Contains(got, frag) {
			t.Fatalf("missing %q in:\n%s", frag, got)
		}
	}
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	if _, err := BuildCreateTableSQL(gddl.TableDef{FQN: "t"}); err == nil {
		t.Fatal("expected error for table without columns")
	}
}

func TestBuildCreateIndexSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ix   gddl.IndexDef
		want string
	}{
		{
			name: "single column",
			ix:   gddl.IndexDef{Name: "idx_movies_name", Table: "movies", Columns: []string{"name"}},
			want: `CREATE INDEX IF NOT EXISTS "idx_movies_name" ON "movies" ("name")`,
		},
		{
			name: "composite",
			ix:   gddl.IndexDef{Name: "idx_crews_name_role", Table: "crews", Columns: []string{"name", "role"}},
			want: `CREATE INDEX IF NOT EXISTS "idx_crews_name_role" ON "crews" ("name", "role")`,
		},
		{
			name: "expression",
			ix:   gddl.IndexDef{Name: "idx_actors_name_lower", Table: "actors", Expr: "LOWER(name)"},
			want: `CREATE INDEX IF NOT EXISTS "idx_actors_name_lower" ON "actors" (LOWER(name))`,
		},
		{
			name: "trigram",
			ix: gddl.IndexDef{Name: "idx_movies_name_trigram", Table: "movies", Columns: []string{"name"},
				Method: "gin", OpClass: "gin_trgm_ops"},
			want: `CREATE INDEX IF NOT EXISTS "idx_movies_name_trigram" ON "movies" USING gin ("name" gin_trgm_ops)`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildCreateIndexSQL(tt.ix)
			if err != nil {
				t.Fatalf("BuildCreateIndexSQL: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestDialect(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	stmts := d.ResetSchema(nil)
	if len(stmts) != 2 || stmts[0] != `DROP SCHEMA IF EXISTS "public" CASCADE` || stmts[1] != `CREATE SCHEMA "public"` {
		t.Fatalf("ResetSchema = %v", stmts)
	}
	ext, err := d.CreateExtension("pg_trgm")
	if err != nil || ext != `CREATE EXTENSION IF NOT EXISTS "pg_trgm"` {
		t.Fatalf("CreateExtension = %q, %v", ext, err)
	}
	if _, err := d.CreateExtension(" "); err == nil {
		t.Fatal("expected error for empty extension")
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind   gddl.Kind
		serial bool
		want   string
	}{
		{gddl.KindInt, false, "INTEGER"},
		{gddl.KindInt, true, "SERIAL"},
		{gddl.KindFloat, false, "REAL"},
		{gddl.KindBool, false, "BOOLEAN"},
		{gddl.KindDate, false, "DATE"},
		{gddl.KindText, false, "TEXT"},
		{"weird", false, "TEXT"},
	}
	for _, tt := range tests {
		if got := MapType(tt.kind, tt.serial); got != tt.want {
			t.Fatalf("MapType(%s,%v) = %s, want %s", tt.kind, tt.serial, got, tt.want)
		}
	}
}
