package ddl

import (
	"strings"
	"testing"

	gddl "movieload/internal/ddl"
)

func TestBuildCreateTableSQL_Dependent(t *testing.T) {
	t.Parallel()

	td, _ := gddl.Movies().Table("releases")
	got, err := BuildCreateTableSQL(td)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE \"releases\" (\n" +
		"  \"id\" INTEGER,\n" +
		"  \"id_movie\" INTEGER,\n" +
		"  \"country\" TEXT,\n" +
		"  \"date\" TEXT,\n" +
		"  \"type\" TEXT,\n" +
		"  \"rating\" TEXT,\n" +
		"  PRIMARY KEY (\"id\"),\n" +
		"  FOREIGN KEY (\"id_movie\") REFERENCES \"movies\"(\"id\") ON DELETE CASCADE\n" +
		");"
	if got != want {
		t.Fatalf("SQL mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildCreateTableSQL_Invalid(t *testing.T) {
	t.Parallel()

	_, err := BuildCreateTableSQL(gddl.TableDef{FQN: ""})
	if err == nil || !strings.HasPrefix(err.Error(), "sqlite ddl:") {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildCreateIndexSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateIndexSQL(gddl.IndexDef{Name: "idx_actors_name_lower", Table: "actors", Expr: "LOWER(name)"})
	if err != nil || got != `CREATE INDEX IF NOT EXISTS "idx_actors_name_lower" ON "actors" (LOWER(name))` {
		t.Fatalf("expr index = %q, %v", got, err)
	}
	got, err = BuildCreateIndexSQL(gddl.IndexDef{Name: "idx_crews_name_role", Table: "crews", Columns: []string{"name", "role"}})
	if err != nil || got != `CREATE INDEX IF NOT EXISTS "idx_crews_name_role" ON "crews" ("name", "role")` {
		t.Fatalf("composite index = %q, %v", got, err)
	}
}

func TestResetSchemaOrder(t *testing.T) {
	t.Parallel()

	stmts := Dialect{}.ResetSchema([]gddl.TableDef{{FQN: "movies"}, {FQN: "actors"}})
	if len(stmts) != 2 || stmts[0] != `DROP TABLE IF EXISTS "actors"` || stmts[1] != `DROP TABLE IF EXISTS "movies"` {
		t.Fatalf("ResetSchema = %v", stmts)
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := map[gddl.Kind]string{
		gddl.KindInt: "INTEGER", gddl.KindBool: "INTEGER", gddl.KindFloat: "REAL",
		gddl.KindDate: "TEXT", gddl.KindText: "TEXT",
	}
	for k, want := range tests {
		if got := MapType(k); got != want {
			t.Fatalf("MapType(%s) = %s, want %s", k, got, want)
		}
	}
}
