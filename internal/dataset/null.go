package dataset

import (
	"math"
	"strings"
)

// nullSentinels are the spellings of "missing" that upstream extracts use.
var nullSentinels = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"NA":   {},
	"<NA>": {},
	"N/A":  {},
	"None": {},
	"null": {},
	"NULL": {},
	"NaT":  {},
}

// IsNull reports whether v is one of the null representations: nil, a
// float NaN, or a sentinel string (surrounding spaces ignored).
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		_, ok := nullSentinels[strings.TrimSpace(x)]
		return ok
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}
