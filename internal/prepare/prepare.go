// Package prepare applies the final shape normalization to every cleaned
// dataset before either sink sees it: the foreign key gets its uniform name,
// every null spelling becomes nil and cells take the Go type of the column
// they are loaded into.
//
// After Prepare returns the set is treated as read-only; both loaders read
// it, possibly concurrently.
package prepare

import (
	"errors"
	"fmt"
	"strings"

	"movieload/internal/dataset"
	"movieload/internal/ddl"
	"movieload/internal/logger"
)

// ErrEmptyDataset is returned when a dataset has no rows after preparation.
var ErrEmptyDataset = errors.New("prepare: dataset is empty")

// ForeignKey is the uniform name of the movie reference.
const ForeignKey = "id_movie"

// DatasetSummary describes one prepared dataset.
type DatasetSummary struct {
	Name string
	Rows int
	// Nulled counts cells that could not be coerced to their column kind.
	Nulled      int
	Fingerprint uint64
}

// Summary describes a prepared set in dataset-name order.
type Summary struct {
	Datasets []DatasetSummary
	Rows     int
}

// Dataset returns the summary for name.
func (s Summary) Dataset(name string) (DatasetSummary, bool) {
	for _, d := range s.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return DatasetSummary{}, false
}

// Prepare mutates set in place. Every dataset is processed; when one or more
// are empty the returned error wraps ErrEmptyDataset and names all of them.
func Prepare(set dataset.Set, cat ddl.Catalog, log *logger.Logger) (Summary, error) {
	var (
		sum   Summary
		empty []string
	)
	for _, name := range set.Names() {
		t, ok := set.Get(name)
		if !ok {
			empty = append(empty, name)
			continue
		}
		if name != dataset.Movies {
			if err := t.RenameColumn("id", ForeignKey); err != nil {
				return Summary{}, fmt.Errorf("prepare: %w", err)
			}
		}

		shape, _ := cat.ShapeFor(name)
		nulled := prepareTable(t, shape)
		if nulled > 0 {
			log.Warn("cells not coercible to column type set to null", "dataset", name, "cells", nulled)
		}
		if t.Empty() {
			empty = append(empty, name)
			continue
		}

		ds := DatasetSummary{Name: name, Rows: t.Len(), Nulled: nulled, Fingerprint: t.Fingerprint()}
		sum.Datasets = append(sum.Datasets, ds)
		sum.Rows += ds.Rows
		log.Debug("dataset prepared", "dataset", name, "rows", ds.Rows, "fingerprint", fmt.Sprintf("%016x", ds.Fingerprint))
	}

	if len(empty) > 0 {
		return sum, fmt.Errorf("%w: %s", ErrEmptyDataset, strings.Join(empty, ", "))
	}
	return sum, nil
}

func prepareTable(t *dataset.Table, shape ddl.TableDef) int {
	plan := compilePlan(t.Columns, shape)
	nulled := 0
	for _, r := range t.Records {
		for i, col := range t.Columns {
			v, ok := r[col]
			if !ok || IsNull(v) {
				r[col] = nil
				continue
			}
			out, ok := plan[i](v)
			if !ok {
				nulled++
			}
			r[col] = out
		}
	}
	return nulled
}
