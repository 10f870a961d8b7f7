// Package ddl renders the catalog model (movieload/internal/ddl) as Postgres
// DDL: double-quoted identifiers, SERIAL surrogate keys, foreign keys with
// ON DELETE CASCADE, and index methods / operator classes.
package ddl

import (
	"fmt"
	"strings"

	gddl "movieload/internal/ddl"
)

// Dialect implements storage.Dialect for Postgres.
type Dialect struct {
	// Schema is the namespace dropped and recreated on reset; "public" when
	// empty.
	Schema string
}

func (d Dialect) schema() string {
	if d.Schema == "" {
		return "public"
	}
	return d.Schema
}

// ResetSchema drops the whole namespace with everything in it and recreates
// it empty.
func (d Dialect) ResetSchema(_ []gddl.TableDef) []string {
	s := quoteIdent(d.schema())
	return []string{
		"DROP SCHEMA IF EXISTS " + s + " CASCADE",
		"CREATE SCHEMA " + s,
	}
}

// CreateTable implements storage.Dialect.
func (Dialect) CreateTable(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }

// CreateIndex implements storage.Dialect.
func (Dialect) CreateIndex(ix gddl.IndexDef) (string, error) { return BuildCreateIndexSQL(ix) }

// CreateExtension implements storage.Dialect.
func (Dialect) CreateExtension(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("postgres ddl: extension name must not be empty")
	}
	return "CREATE EXTENSION IF NOT EXISTS " + quoteIdent(name), nil
}

// BuildCreateTableSQL builds a deterministic Postgres CREATE TABLE statement.
//
// Rules:
//   - the table must pass gddl.Validate;
//   - primary-key columns are always NOT NULL;
//   - serial columns render as SERIAL and carry no default;
//   - PRIMARY KEY and FOREIGN KEY are rendered as table constraints, in
//     declaration order.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	if err := gddl.Validate(t); err != nil {
		return "", fmt.Errorf("postgres %w", err)
	}

	cols := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		// "colname" TYPE [NOT NULL] [DEFAULT expr]
		var sb strings.Builder
		sb.WriteString(quoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(MapType(c.Kind, c.Serial))

		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" && !c.Serial {
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

// BuildCreateIndexSQL renders CREATE INDEX IF NOT EXISTS for a column list or
// an expression, with an optional access method and operator class.
func BuildCreateIndexSQL(ix gddl.IndexDef) (string, error) {
	if err := gddl.ValidateIndex(ix); err != nil {
		return "", fmt.Errorf("postgres %w", err)
	}

	var target string
	if ix.Expr != "" {
		target = ix.Expr
	} else {
		parts := make([]string, len(ix.Columns))
		for i, c := range ix.Columns {
			parts[i] = quoteIdent(c)
			if ix.OpClass != "" {
				parts[i] += " " + ix.OpClass
			}
		}
		target = strings.Join(parts, ", ")
	}

	using := ""
	if ix.Method != "" {
		using = " USING " + ix.Method
	}
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s%s (%s)",
		quoteIdent(ix.Name), quoteFQN(ix.Table), using, target), nil
}

// quoteIdent quotes a single identifier segment for Postgres, e.g.:
//
//	quoteIdent(`movies`)     => `"movies"`
//	quoteIdent(`weird"name`) => `"weird""name"`
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// quoteFQN quotes a possibly schema-qualified name like "public.movies" to
// `"public"."movies"`. Empty segments are ignored.
func quoteFQN(f string) string {
	parts := strings.Split(f, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}
