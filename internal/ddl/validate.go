// Package ddl defines a small, backend-agnostic model for the relational
// schema of the movie catalog: tables with typed columns, foreign keys and
// secondary indexes.
//
// The package does not render SQL. Backend packages
// (internal/storage/postgres/ddl, internal/storage/sqlite/ddl) map the model
// to their dialect; they share the structural checks in Validate.
package ddl

import (
	"fmt"
	"strings"
)

// Validate checks the structural rules every dialect relies on:
//
//   - FQN must be non-empty.
//   - At least one column; each with a non-empty Name and Kind.
//   - Column names are unique.
//   - Every foreign key names a declared column and a reference table.
func Validate(t TableDef) error {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("ddl: at least one column is required")
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		if c.Kind == "" {
			return fmt.Errorf("ddl: column %s missing Kind", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("ddl: duplicate column %s in table %s", name, fqn)
		}
		seen[name] = struct{}{}
	}
	for _, fk := range t.ForeignKeys {
		if _, ok := seen[fk.Column]; !ok {
			return fmt.Errorf("ddl: foreign key on unknown column %s in table %s", fk.Column, fqn)
		}
		if fk.RefTable == "" || fk.RefColumn == "" {
			return fmt.Errorf("ddl: foreign key %s.%s has no reference", fqn, fk.Column)
		}
	}
	return nil
}

// ValidateIndex checks that an index names a table and exactly one of a
// column list or an expression.
func ValidateIndex(ix IndexDef) error {
	if strings.TrimSpace(ix.Name) == "" || strings.TrimSpace(ix.Table) == "" {
		return fmt.Errorf("ddl: index needs a name and a table")
	}
	if (len(ix.Columns) == 0) == (ix.Expr == "") {
		return fmt.Errorf("ddl: index %s needs exactly one of columns or expr", ix.Name)
	}
	return nil
}
