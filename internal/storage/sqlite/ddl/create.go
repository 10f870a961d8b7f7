// Package ddl renders the catalog model (movieload/internal/ddl) as SQLite
// DDL.
//
// The builder here:
//   - Uses simple double-quoted identifiers: "table", "col".
//   - Renders PRIMARY KEY and FOREIGN KEY as table constraints.
//   - Rejects index methods and operator classes, which SQLite lacks.
package ddl

import (
	"fmt"
	"strings"

	gddl "movieload/internal/ddl"
	"movieload/internal/storage"
)

// Dialect implements storage.Dialect for SQLite.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

// ResetSchema drops the catalog tables, dependents first.
func (Dialect) ResetSchema(tables []gddl.TableDef) []string {
	out := make([]string, 0, len(tables))
	for i := len(tables) - 1; i >= 0; i-- {
		out = append(out, "DROP TABLE IF EXISTS "+quoteFQN(tables[i].FQN))
	}
	return out
}

// CreateTable implements storage.Dialect.
func (Dialect) CreateTable(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }

// CreateIndex implements storage.Dialect.
func (Dialect) CreateIndex(ix gddl.IndexDef) (string, error) { return BuildCreateIndexSQL(ix) }

// CreateExtension always fails: SQLite has no extension DDL.
func (Dialect) CreateExtension(name string) (string, error) {
	return "", fmt.Errorf("sqlite: extension %s: %w", name, storage.ErrUnsupported)
}

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement of the form:
//
//	CREATE TABLE "table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  "col2" TYPE,
//	  PRIMARY KEY ("pk"),
//	  FOREIGN KEY ("fk") REFERENCES "other"("id") ON DELETE CASCADE
//	);
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	if err := gddl.Validate(t); err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}

	cols := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(quoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(MapType(c.Kind))

		// A NOT NULL rowid alias would reject the NULL that asks SQLite to
		// generate the key.
		if !c.Nullable && !c.Serial {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quoteIdent(c.Name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			quoteIdent(fk.Column), quoteFQN(fk.RefTable), quoteIdent(fk.RefColumn))
		if fk.OnDeleteCascade {
			clause += " ON DELETE CASCADE"
		}
		cols = append(cols, clause)
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		quoteFQN(strings.TrimSpace(t.FQN)),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildCreateIndexSQL renders CREATE INDEX IF NOT EXISTS. Expression indexes
// are supported; access methods and operator classes are not.
func BuildCreateIndexSQL(ix gddl.IndexDef) (string, error) {
	if err := gddl.ValidateIndex(ix); err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	if ix.Method != "" || ix.OpClass != "" {
		return "", fmt.Errorf("sqlite: index %s uses %s %s: %w", ix.Name, ix.Method, ix.OpClass, storage.ErrUnsupported)
	}

	target := ix.Expr
	if target == "" {
		parts := make([]string, len(ix.Columns))
		for i, c := range ix.Columns {
			parts[i] = quoteIdent(c)
		}
		target = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		quoteIdent(ix.Name), quoteFQN(ix.Table), target), nil
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}

// QuoteFQN is used by the session to build INSERT statements.
func QuoteFQN(fqn string) string { return quoteFQN(fqn) }

// QuoteIdent is used by the session to build INSERT statements.
func QuoteIdent(id string) string { return quoteIdent(id) }
