// Package normalize maps raw free text (titles, descriptions, review scores)
// coming from independent upstream extracts onto canonical forms. Every
// function here is pure: the same input always yields the same output.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// trailingParen matches one trailing parenthetical, e.g. " (2001)".
	trailingParen = regexp.MustCompile(`\s*\([^()]*\)\s*$`)

	leadingArticles = []string{"the ", "a ", "an "}
)

// Title returns the canonical match key for a movie title.
//
// When stripParenthetical is set, a trailing parenthetical (typically the
// release year appended by secondary sources, "Movie (2001)") is removed
// first. The remaining text is stripped of diacritics, case-folded,
// punctuation is turned into spaces, whitespace is collapsed, and one leading
// English article is dropped as long as something follows it.
func Title(text string, stripParenthetical bool) string {
	if stripParenthetical {
		text = trailingParen.ReplaceAllString(text, "")
	}
	text = foldDiacritics(text)
	text = cases.Fold().String(text)
	text = strings.ReplaceAll(text, "&", " and ")

	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		if r == '\'' || r == '’' {
			// "Schindler's" and "Schindlers" should meet.
			return -1
		}
		return ' '
	}, text)
	text = strings.Join(strings.Fields(text), " ")

	for _, a := range leadingArticles {
		if rest := strings.TrimPrefix(text, a); rest != text && rest != "" {
			text = rest
			break
		}
	}
	return text
}

// foldDiacritics removes combining marks: "Amélie" -> "Amelie".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
