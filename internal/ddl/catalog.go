package ddl

import "movieload/internal/dataset"

// Target maps a dataset onto the table it is loaded into.
type Target struct {
	Dataset string
	Table   string
}

// Catalog is the complete relational schema plus the dataset-to-table plan.
// Tables are listed in creation order (referenced tables first); Plan is the
// insert order.
type Catalog struct {
	Tables  []TableDef
	Indexes []IndexDef
	Plan    []Target

	// Documents declares typed columns for datasets that only go to the
	// document store. Undeclared columns are left as text.
	Documents map[string]TableDef
}

// Table looks up a table definition by FQN.
func (c Catalog) Table(name string) (TableDef, bool) {
	for _, t := range c.Tables {
		if t.FQN == name {
			return t, true
		}
	}
	return TableDef{}, false
}

// ShapeFor returns the column declarations that apply to a dataset: the
// planned relational table if there is one, else a document shape.
func (c Catalog) ShapeFor(datasetName string) (TableDef, bool) {
	for _, tg := range c.Plan {
		if tg.Dataset == datasetName {
			return c.Table(tg.Table)
		}
	}
	t, ok := c.Documents[datasetName]
	return t, ok
}

// Extensions lists the store extensions the index set needs, de-duplicated
// in first-use order.
func (c Catalog) Extensions() []string {
	var out []string
	seen := map[string]bool{}
	for _, ix := range c.Indexes {
		if ix.Extension != "" && !seen[ix.Extension] {
			seen[ix.Extension] = true
			out = append(out, ix.Extension)
		}
	}
	return out
}

// MoviesTable is the referenced table every dependent table points at.
const MoviesTable = "movies"

func dependent(name string, cols ...ColumnDef) TableDef {
	all := []ColumnDef{
		{Name: "id", Kind: KindInt, PrimaryKey: true, Serial: true},
		{Name: "id_movie", Kind: KindInt, Nullable: true},
	}
	for _, c := range cols {
		c.Nullable = true
		all = append(all, c)
	}
	return TableDef{
		FQN:     name,
		Columns: all,
		ForeignKeys: []ForeignKey{{
			Column: "id_movie", RefTable: MoviesTable, RefColumn: "id", OnDeleteCascade: true,
		}},
	}
}

func text(name string) ColumnDef { return ColumnDef{Name: name, Kind: KindText} }

// Movies returns the catalog for the movie database.
func Movies() Catalog {
	movies := TableDef{
		FQN: MoviesTable,
		Columns: []ColumnDef{
			{Name: "id", Kind: KindInt, PrimaryKey: true},
			{Name: "name", Kind: KindText, Nullable: true},
			{Name: "date", Kind: KindInt, Nullable: true},
			{Name: "tagline", Kind: KindText, Nullable: true},
			{Name: "description", Kind: KindText, Nullable: true},
			{Name: "minute", Kind: KindFloat, Nullable: true},
			{Name: "rating", Kind: KindFloat, Nullable: true},
		},
	}

	tables := []TableDef{
		movies,
		dependent("actors", text("name"), text("role")),
		dependent("countries", text("country")),
		dependent("crews", text("role"), text("name")),
		dependent("genres", text("genre")),
		dependent("languages", text("type"), text("language")),
		dependent("posters", text("link")),
		dependent("releases", text("country"), ColumnDef{Name: "date", Kind: KindDate}, text("type"), text("rating")),
		dependent("studios", text("studio")),
		dependent("themes", text("theme")),
		dependent("oscars",
			ColumnDef{Name: "year_film", Kind: KindInt},
			ColumnDef{Name: "year_ceremony", Kind: KindInt},
			ColumnDef{Name: "ceremony", Kind: KindInt},
			text("category"), text("name"), text("film"),
			ColumnDef{Name: "winner", Kind: KindBool},
		),
	}

	idx := func(table string, cols ...string) IndexDef {
		name := "idx_" + table
		for _, c := range cols {
			name += "_" + c
		}
		return IndexDef{Name: name, Table: table, Columns: cols}
	}

	indexes := []IndexDef{
		idx("movies", "name"),
		idx("movies", "date"),
		idx("movies", "rating"),
		idx("posters", "id_movie"),
		idx("actors", "id_movie"),
		idx("actors", "name"),
		{Name: "idx_actors_name_lower", Table: "actors", Expr: "LOWER(name)"},
		idx("countries", "id_movie"),
		idx("countries", "country"),
		idx("crews", "id_movie"),
		idx("crews", "name"),
		idx("crews", "role"),
		idx("crews", "name", "role"),
		idx("releases", "id_movie"),
		idx("releases", "country"),
		idx("releases", "date"),
		idx("oscars", "id_movie"),
		idx("oscars", "film"),
		idx("oscars", "name"),
		idx("oscars", "category"),
		idx("genres", "id_movie"),
		idx("genres", "genre"),
		idx("studios", "id_movie"),
		idx("themes", "id_movie"),
		{
			Name: "idx_movies_name_trigram", Table: "movies", Columns: []string{"name"},
			Method: "gin", OpClass: "gin_trgm_ops", Extension: "pg_trgm",
		},
	}

	plan := []Target{
		{dataset.Movies, "movies"},
		{dataset.Actors, "actors"},
		{dataset.Crew, "crews"},
		{dataset.Countries, "countries"},
		{dataset.Genres, "genres"},
		{dataset.Languages, "languages"},
		{dataset.Studios, "studios"},
		{dataset.Themes, "themes"},
		{dataset.Releases, "releases"},
		{dataset.Posters, "posters"},
		{dataset.Awards, "oscars"},
	}

	docs := map[string]TableDef{
		dataset.Reviews: {
			FQN: "reviews",
			Columns: []ColumnDef{
				{Name: "id_movie", Kind: KindInt, Nullable: true},
				{Name: "review_score", Kind: KindFloat, Nullable: true},
			},
		},
	}

	return Catalog{Tables: tables, Indexes: indexes, Plan: plan, Documents: docs}
}
