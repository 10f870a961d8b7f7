package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// mojibake pairs seen in the movie descriptions: UTF-8 text that went through
// a Latin-1 round trip upstream.
var mojibake = strings.NewReplacer(
	"\u00c2\u00a0", " ",
	"\u00c2 ", " ",
	"\u00a0", " ",
	"\u00e2\u20ac\u2122", "'",
	"\u00e2\u20ac\u0153", `"`,
	"\u00e2\u20ac\u009d", `"`,
	"\u00e2\u20ac\u201c", "-",
	"\u00e2\u20ac\u201d", "-",
)

// Descriptions cleans every value of a description column. The mapping is
// 1:1 and order preserving: the result has the same length as in. nil stays
// nil, non-string values are passed through, and a string that is empty
// after cleanup becomes nil.
func Descriptions(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		s, ok := v.(string)
		if !ok {
			out[i] = v
			continue
		}
		if d := Description(s); d != "" {
			out[i] = d
		}
	}
	return out
}

// Description cleans a single description string.
func Description(s string) string {
	s = mojibake.Replace(s)
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar, r == '\uFEFF':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
