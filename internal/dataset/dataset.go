// Package dataset holds the in-memory tabular model shared by every stage of
// the load: raw CSV tables, cleaned tables, reconciled tables and prepared
// tables all use the same Record/Table/Set types.
//
// A Table keeps an explicit column order so that relational inserts and
// document encoding are deterministic; Records are keyed by column name. The
// single canonical null value is Go nil.
package dataset

import (
	"fmt"
	"sort"
)

// Well-known dataset names. They match the CSV file stems in the input
// directory.
const (
	Movies    = "movies"
	Actors    = "actors"
	Crew      = "crew"
	Countries = "countries"
	Genres    = "genres"
	Languages = "languages"
	Studios   = "studios"
	Themes    = "themes"
	Releases  = "releases"
	Posters   = "posters"
	Reviews   = "rotten_tomatoes_reviews"
	Awards    = "the_oscar_awards"
)

// Required lists every dataset that must be present before a run starts.
var Required = []string{
	Movies, Actors, Crew, Countries, Genres, Languages, Studios, Themes,
	Releases, Posters, Reviews, Awards,
}

// Record is a single row keyed by column name.
type Record map[string]any

// Table is a named, ordered-column collection of records.
type Table struct {
	Name    string
	Columns []string
	Records []Record
}

// NewTable returns an empty table with the given columns.
func NewTable(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Len reports the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Empty reports whether the table has no records.
func (t *Table) Empty() bool { return t.Len() == 0 }

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

func (t *Table) columnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append adds a record. Keys that are not yet columns are appended to the
// column list in sorted order so the result stays deterministic.
func (t *Table) Append(r Record) {
	var extra []string
	for k := range r {
		if !t.HasColumn(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	t.Columns = append(t.Columns, extra...)
	t.Records = append(t.Records, r)
}

// AddColumn appends a column if it does not exist yet. Existing records are
// left untouched; a missing key reads as nil.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// RenameColumn renames a column in place, both in the column list and in
// every record. It is a no-op when from does not exist. Renaming onto an
// existing column is an error.
func (t *Table) RenameColumn(from, to string) error {
	i := t.columnIndex(from)
	if i < 0 || from == to {
		return nil
	}
	if t.HasColumn(to) {
		return fmt.Errorf("dataset %s: cannot rename %q to existing column %q", t.Name, from, to)
	}
	t.Columns[i] = to
	for _, r := range t.Records {
		if v, ok := r[from]; ok {
			r[to] = v
			delete(r, from)
		}
	}
	return nil
}

// DropColumn removes a column from the column list and from every record.
func (t *Table) DropColumn(name string) {
	i := t.columnIndex(name)
	if i < 0 {
		return
	}
	t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
	for _, r := range t.Records {
		delete(r, name)
	}
}

// Filter keeps only the records for which keep returns true and reports how
// many were removed. Record order is preserved.
func (t *Table) Filter(keep func(Record) bool) int {
	out := t.Records[:0]
	for _, r := range t.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	removed := len(t.Records) - len(out)
	for i := len(out); i < len(t.Records); i++ {
		t.Records[i] = nil
	}
	t.Records = out
	return removed
}

// Values returns the record's values in column order.
func (t *Table) Values(r Record) []any {
	return Project(r, t.Columns)
}

// Project returns r's values for the given columns; absent keys are nil.
func Project(r Record, columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// Set maps dataset name to table.
type Set map[string]*Table

// Get returns the named table and whether it exists.
func (s Set) Get(name string) (*Table, bool) {
	t, ok := s[name]
	return t, ok && t != nil
}

// Names returns the dataset names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Rows reports the total number of records across all tables.
func (s Set) Rows() int {
	n := 0
	for _, t := range s {
		n += t.Len()
	}
	return n
}
