package ddl

import (
	"strings"
	"testing"

	"movieload/internal/dataset"
)

func TestMoviesCatalogIsValid(t *testing.T) {
	t.Parallel()

	cat := Movies()
	names := map[string]bool{}
	for _, td := range cat.Tables {
		if err := Validate(td); err != nil {
			t.Fatalf("Validate(%s): %v", td.FQN, err)
		}
		for _, fk := range td.ForeignKeys {
			if !names[fk.RefTable] {
				t.Fatalf("%s references %s before it is created", td.FQN, fk.RefTable)
			}
		}
		names[td.FQN] = true
	}
	for _, ix := range cat.Indexes {
		if err := ValidateIndex(ix); err != nil {
			t.Fatalf("ValidateIndex(%s): %v", ix.Name, err)
		}
		if !names[ix.Table] {
			t.Fatalf("index %s on unknown table %s", ix.Name, ix.Table)
		}
	}
}

func TestMoviesCatalogPlan(t *testing.T) {
	t.Parallel()

	cat := Movies()
	if cat.Plan[0].Dataset != dataset.Movies {
		t.Fatalf("first planned dataset = %s, want movies", cat.Plan[0].Dataset)
	}
	for _, tg := range cat.Plan {
		td, ok := cat.Table(tg.Table)
		if !ok {
			t.Fatalf("plan target %s has no table", tg.Table)
		}
		if tg.Table != MoviesTable {
			fk := td.ForeignKeys
			if len(fk) != 1 || fk[0].RefTable != MoviesTable || !fk[0].OnDeleteCascade {
				t.Fatalf("%s: want cascading FK to movies, got %+v", td.FQN, fk)
			}
		}
	}
	if len(cat.Plan) != len(cat.Tables) {
		t.Fatalf("plan covers %d tables, catalog has %d", len(cat.Plan), len(cat.Tables))
	}
}

func TestShapeFor(t *testing.T) {
	t.Parallel()

	cat := Movies()
	tests := []struct {
		dataset string
		want    string
		ok      bool
	}{
		{dataset.Crew, "crews", true},
		{dataset.Awards, "oscars", true},
		{dataset.Reviews, "reviews", true},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		td, ok := cat.ShapeFor(tt.dataset)
		if ok != tt.ok || td.FQN != tt.want {
			t.Fatalf("ShapeFor(%s) = %q,%v want %q,%v", tt.dataset, td.FQN, ok, tt.want, tt.ok)
		}
	}
}

func TestInsertColumnsSkipSerial(t *testing.T) {
	t.Parallel()

	td, _ := Movies().Table("actors")
	got := strings.Join(td.InsertColumns(), ",")
	if got != "id_movie,name,role" {
		t.Fatalf("InsertColumns = %s", got)
	}
	mv, _ := Movies().Table("movies")
	if got := len(mv.InsertColumns()); got != 7 {
		t.Fatalf("movies InsertColumns len = %d, want 7", got)
	}
}

func TestExtensions(t *testing.T) {
	t.Parallel()

	if got := Movies().Extensions(); len(got) != 1 || got[0] != "pg_trgm" {
		t.Fatalf("Extensions = %v", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		errContains string
	}{
		{"empty FQN", TableDef{FQN: " ", Columns: []ColumnDef{{Name: "id", Kind: KindInt}}}, "FQN must not be empty"},
		{"no columns", TableDef{FQN: "t"}, "at least one column"},
		{"empty name", TableDef{FQN: "t", Columns: []ColumnDef{{Kind: KindInt}}}, "empty name"},
		{"no kind", TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}}, "missing Kind"},
		{"duplicate", TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a", Kind: KindInt}, {Name: "a", Kind: KindText}}}, "duplicate column"},
		{"fk unknown column", TableDef{
			FQN: "t", Columns: []ColumnDef{{Name: "a", Kind: KindInt}},
			ForeignKeys: []ForeignKey{{Column: "b", RefTable: "m", RefColumn: "id"}},
		}, "unknown column"},
		{"fk no reference", TableDef{
			FQN: "t", Columns: []ColumnDef{{Name: "a", Kind: KindInt}},
			ForeignKeys: []ForeignKey{{Column: "a"}},
		}, "no reference"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.def)
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Fatalf("Validate err = %v, want containing %q", err, tt.errContains)
			}
		})
	}
}

func TestValidateIndex(t *testing.T) {
	t.Parallel()

	if err := ValidateIndex(IndexDef{Name: "i", Table: "t", Columns: []string{"a"}, Expr: "LOWER(a)"}); err == nil {
		t.Fatal("expected error for columns and expr together")
	}
	if err := ValidateIndex(IndexDef{Name: "i", Table: "t"}); err == nil {
		t.Fatal("expected error for empty index")
	}
	if err := ValidateIndex(IndexDef{Table: "t", Columns: []string{"a"}}); err == nil {
		t.Fatal("expected error for missing name")
	}
}
