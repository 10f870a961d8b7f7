// Package reconcile gives the free-text datasets (reviews, awards) a foreign
// key into the movie table. Movies and dependents share no key, so both
// sides are projected onto a normalized title and left-joined on it.
package reconcile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"movieload/internal/dataset"
	"movieload/internal/normalize"
)

// ErrNoMovies is returned when the set has no movies dataset.
var ErrNoMovies = errors.New("reconcile: movies dataset is missing")

// IDColumn is the column every reconciled dataset receives.
const IDColumn = "id"

// Link names a dependent dataset and the column holding its movie title.
type Link struct {
	Dataset     string
	TitleColumn string
}

// DefaultLinks are the links between the movie table and the free-text
// sources.
func DefaultLinks() []Link {
	return []Link{
		{Dataset: dataset.Reviews, TitleColumn: "movie_title"},
		{Dataset: dataset.Awards, TitleColumn: "film"},
	}
}

// LinkResult counts how one dependent dataset fared.
type LinkResult struct {
	Dataset   string
	Dropped   int
	Matched   int
	Unmatched int
}

// Result summarizes a reconciliation.
type Result struct {
	// Movies is the number of distinct canonical titles used as join targets.
	Movies int
	// Collapsed counts movies whose title duplicated an earlier one.
	Collapsed int
	// NullIDs counts movies skipped as join targets because id was null.
	NullIDs int
	// Untitled counts movies skipped because their title normalizes to
	// nothing.
	Untitled int
	Links    []LinkResult
}

// Reconcile rewrites every linked dataset in place so each row carries a
// nullable int64 "id" naming the movie whose normalized title equals the
// row's normalized title, or nil when nothing matches.
//
// Movie titles are normalized as-is; dependent titles have one trailing
// parenthetical removed first. When two movies share a normalized title the
// first one in table order wins. Rows whose title is absent are dropped;
// every other row is kept, matched or not. A title that normalizes to an
// empty key never matches. Linked datasets missing from set are skipped.
func Reconcile(set dataset.Set, links []Link) (Result, error) {
	movies, ok := set.Get(dataset.Movies)
	if !ok {
		return Result{}, ErrNoMovies
	}

	var res Result
	keys := make(map[string]int64, movies.Len())
	for i, m := range movies.Records {
		id, present, err := movieID(m[IDColumn])
		if err != nil {
			return Result{}, fmt.Errorf("reconcile: movies row %d: %w", i+1, err)
		}
		if !present {
			res.NullIDs++
			continue
		}
		name, _ := m["name"].(string)
		key := normalize.Title(name, false)
		if key == "" {
			res.Untitled++
			continue
		}
		if _, dup := keys[key]; dup {
			res.Collapsed++
			continue
		}
		keys[key] = id
	}
	res.Movies = len(keys)

	for _, l := range links {
		t, ok := set.Get(l.Dataset)
		if !ok {
			continue
		}
		if !t.HasColumn(l.TitleColumn) {
			return Result{}, fmt.Errorf("reconcile: %s has no %q column", l.Dataset, l.TitleColumn)
		}
		lr := LinkResult{Dataset: l.Dataset}

		lr.Dropped = t.Filter(func(r dataset.Record) bool {
			return !dataset.IsNull(r[l.TitleColumn])
		})

		// A source id column would clash with the join output.
		t.DropColumn(IDColumn)
		t.AddColumn(IDColumn)

		for _, r := range t.Records {
			title, ok := r[l.TitleColumn].(string)
			if !ok {
				title = fmt.Sprint(r[l.TitleColumn])
			}
			key := normalize.Title(title, true)
			if id, ok := keys[key]; ok && key != "" {
				r[IDColumn] = id
				lr.Matched++
			} else {
				r[IDColumn] = nil
				lr.Unmatched++
			}
		}
		res.Links = append(res.Links, lr)
	}
	return res, nil
}

// movieID reads a movie id cell. It reports present=false for a null id and
// an error for a value that is not an integer.
func movieID(v any) (id int64, present bool, err error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return x, true, nil
	case int:
		return int64(x), true, nil
	case float64:
		if math.IsNaN(x) {
			return 0, false, nil
		}
		if x != math.Trunc(x) {
			return 0, false, fmt.Errorf("id %v is not an integer", x)
		}
		return int64(x), true, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int64(f), true, nil
		}
		return 0, false, fmt.Errorf("id %q is not an integer", x)
	default:
		return 0, false, fmt.Errorf("id of type %T is not an integer", v)
	}
}
