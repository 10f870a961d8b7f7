package ddl

// Kind is the logical, dialect-independent type of a column. Dialect
// packages map it onto concrete SQL types; the preparer uses it to coerce
// CSV strings into typed Go values.
type Kind string

const (
	KindText  Kind = "text"
	KindInt   Kind = "int"
	KindFloat Kind = "float"
	KindBool  Kind = "bool"
	KindDate  Kind = "date"
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Kind: logical type
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is the primary key
//   - Serial: the value is generated by the store and never inserted
//   - Default: raw default expression
type ColumnDef struct {
	Name       string
	Kind       Kind
	Nullable   bool
	PrimaryKey bool
	Serial     bool
	Default    string
}

// ForeignKey references a column of another table.
type ForeignKey struct {
	Column          string
	RefTable        string
	RefColumn       string
	OnDeleteCascade bool
}

// TableDef holds the table name (FQN, unquoted, optionally "schema.table"),
// its ordered columns and its foreign keys.
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	ForeignKeys []ForeignKey
}

// Column looks up a column by name.
func (t TableDef) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// InsertColumns returns the column names a loader writes, in declaration
// order. Serial columns are skipped.
func (t TableDef) InsertColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Serial {
			out = append(out, c.Name)
		}
	}
	return out
}

// IndexDef is a secondary index. Exactly one of Columns or Expr is set.
// Method and OpClass are optional (e.g. "gin" / "gin_trgm_ops"); an index
// with Extension set needs that extension installed first.
type IndexDef struct {
	Name      string
	Table     string
	Columns   []string
	Expr      string
	Method    string
	OpClass   string
	Extension string
}
