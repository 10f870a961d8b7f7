// Package cleaning applies the per-dataset value cleanup that precedes
// reconciliation: review scores are put on one 0-10 scale, movie
// descriptions are normalized and the movie year is made a nullable integer.
package cleaning

import (
	"math"
	"strconv"
	"strings"

	"movieload/internal/dataset"
	"movieload/internal/logger"
	"movieload/internal/normalize"
)

// Report counts what Clean changed.
type Report struct {
	// ScoresMissing counts review scores that could not be put on the 0-10
	// scale (including ones that were already empty).
	ScoresMissing int
	// DescriptionsCleared counts descriptions that became empty.
	DescriptionsCleared int
	// DatesInvalid counts movie dates that were present but not a year.
	DatesInvalid int
}

// Clean mutates set in place. Datasets that are absent are skipped.
func Clean(set dataset.Set, log *logger.Logger) Report {
	var rep Report

	if t, ok := set.Get(dataset.Reviews); ok && t.HasColumn("review_score") {
		for _, r := range t.Records {
			v := normalize.ScoreValue(r["review_score"])
			if v == nil {
				rep.ScoresMissing++
			}
			r["review_score"] = v
		}
		log.Info("review scores normalized", "rows", t.Len(), "missing", rep.ScoresMissing)
	}

	if t, ok := set.Get(dataset.Movies); ok {
		if t.HasColumn("description") {
			col := make([]any, t.Len())
			for i, r := range t.Records {
				col[i] = r["description"]
			}
			for i, v := range normalize.Descriptions(col) {
				if v == nil && col[i] != nil {
					rep.DescriptionsCleared++
				}
				t.Records[i]["description"] = v
			}
		}
		if t.HasColumn("date") {
			for _, r := range t.Records {
				y, ok := Year(r["date"])
				if !ok {
					rep.DatesInvalid++
					log.Debug("movie date is not a year", "id", r["id"], "date", r["date"])
				}
				r["date"] = y
			}
		}
		log.Info("movies normalized", "rows", t.Len(),
			"descriptions_cleared", rep.DescriptionsCleared, "dates_invalid", rep.DatesInvalid)
	}

	return rep
}

// Year converts a raw year cell into a nullable int64. nil and empty strings
// are a valid null; "1999" and "1999.0" are accepted. Anything else returns
// (nil, false).
func Year(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		if math.IsNaN(x) {
			return nil, true
		}
		if x == math.Trunc(x) {
			return int64(x), true
		}
		return nil, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, true
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && f == math.Trunc(f) {
			return int64(f), true
		}
		return nil, false
	default:
		return nil, false
	}
}
