package normalize

import (
	"math"
	"strconv"
	"strings"
)

// MaxScore is the top of the unified review scale.
const MaxScore = 10.0

// letterGrades is the fixed letter-grade vocabulary used by critics.
var letterGrades = map[string]float64{
	"A":  10,
	"A-": 9,
	"B+": 8.5,
	"B":  8,
	"B-": 7.5,
	"C+": 7,
	"C":  6,
	"C-": 5.5,
	"D+": 5,
	"D":  4,
	"D-": 3.5,
	"F":  1,
}

// Score maps a raw review score onto the 0..10 scale. It accepts plain
// numbers (Go numerics or numeric strings), "num/denom" fractions rescaled to
// 0..10 and rounded to one decimal, and letter grades matched exactly
// ("B+", not "b+"). The second result is false for the missing marker: nil,
// an unparsable value, a value outside 0..10, a zero denominator, a fraction
// above the scale, or an unknown grade. Score never clamps.
func Score(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return inRange(v)
	case float32:
		return inRange(float64(v))
	case int:
		return inRange(float64(v))
	case int64:
		return inRange(float64(v))
	case string:
		return scoreString(v)
	default:
		return 0, false
	}
}

func scoreString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if num, denom, ok := strings.Cut(s, "/"); ok {
		return fraction(num, denom)
	}
	if g, ok := letterGrades[s]; ok {
		return g, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return inRange(f)
}

func fraction(num, denom string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(denom), 64)
	if err != nil || d == 0 {
		return 0, false
	}
	scaled := n / d * MaxScore
	if scaled > MaxScore || scaled < 0 || math.IsNaN(scaled) {
		return 0, false
	}
	return math.Round(scaled*10) / 10, true
}

func inRange(f float64) (float64, bool) {
	if math.IsNaN(f) || f < 0 || f > MaxScore {
		return 0, false
	}
	return f, true
}

// ScoreValue is Score with the missing marker expressed as nil, which is what
// tables carry.
func ScoreValue(raw any) any {
	if f, ok := Score(raw); ok {
		return f
	}
	return nil
}
