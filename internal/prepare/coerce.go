package prepare

import (
	"math"
	"strconv"
	"strings"
	"time"

	"movieload/internal/dataset"
	"movieload/internal/ddl"
)

// IsNull reports whether v is one of the null representations.
func IsNull(v any) bool { return dataset.IsNull(v) }

// coerceFn converts a non-null cell. It returns false when the cell cannot
// be represented in the column's kind.
type coerceFn func(v any) (any, bool)

// compilePlan builds one coercer per column. Columns the shape does not
// declare are passed through.
func compilePlan(columns []string, shape ddl.TableDef) []coerceFn {
	plan := make([]coerceFn, len(columns))
	for i, col := range columns {
		kind := ddl.KindText
		if c, ok := shape.Column(col); ok {
			kind = c.Kind
		}
		switch kind {
		case ddl.KindInt:
			plan[i] = toInt
		case ddl.KindFloat:
			plan[i] = toFloat
		case ddl.KindBool:
			plan[i] = toBool
		case ddl.KindDate:
			plan[i] = toDate
		default:
			plan[i] = passThrough
		}
	}
	return plan
}

func passThrough(v any) (any, bool) {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s), true
	}
	return v, true
}

func toInt(v any) (any, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int64(x), true
		}
	case string:
		if n, ok := toIntFast(strings.TrimSpace(x)); ok {
			return n, true
		}
	}
	return nil, false
}

// toIntFast parses integers and only falls back to float parsing when the
// field contains a '.' (inputs like "1999.0").
func toIntFast(s string) (int64, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if strings.IndexByte(s, '.') >= 0 {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int64(f), true
		}
	}
	return 0, false
}

func toFloat(v any) (any, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return nil, false
}

func toBool(v any) (any, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int64:
		if x == 0 || x == 1 {
			return x == 1, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "t", "true", "yes", "y", "1.0":
			return true, true
		case "0", "f", "false", "no", "n", "0.0":
			return false, true
		}
	}
	return nil, false
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func toDate(v any) (any, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return nil, false
}
