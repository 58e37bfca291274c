package parse

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// currencyStripper removes every Unicode currency symbol (₹, $, €, ...).
var currencyStripper = runes.Remove(runes.In(unicode.Sc))

// naValues are upstream spellings of "no value". They parse to nil, not zero.
var naValues = map[string]struct{}{
	"":    {},
	"na":  {},
	"n/a": {},
	"-":   {},
	"–":   {},
	"—":   {},
}

// Number parses a human-formatted numeric string: currency symbols, thousands
// separators (including Indian grouping like 1,23,456.78), a trailing percent
// sign and surrounding whitespace are tolerated. Returns nil for NA markers
// and anything unparsable.
func Number(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", " ") // nbsp

	if _, na := naValues[strings.ToLower(s)]; na {
		return nil
	}

	stripped, _, err := transform.String(currencyStripper, s)
	if err != nil {
		return nil
	}

	stripped = strings.TrimSuffix(strings.TrimSpace(stripped), "%")
	stripped = strings.ReplaceAll(stripped, ",", "")
	stripped = strings.TrimSpace(stripped)

	if _, na := naValues[strings.ToLower(stripped)]; na {
		return nil
	}

	v, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return nil
	}
	return &v
}

// CroreAmount parses a monetary amount into crore. Recognizes the magnitude
// suffixes the source prints ("Cr", "L"/"Lakh", "k"); a bare number is taken
// to already be in crore.
func CroreAmount(s string) *float64 {
	s = strings.TrimSpace(s)

	multiplier := 1.0
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "cr"):
		s = s[:len(s)-2]
	case strings.HasSuffix(lower, "lakh"):
		s = s[:len(s)-4]
		multiplier = 0.01
	case strings.HasSuffix(lower, "l"):
		s = s[:len(s)-1]
		multiplier = 0.01
	case strings.HasSuffix(lower, "k"):
		s = s[:len(s)-1]
		multiplier = 0.0001 // thousand rupees in crore
	}

	v := Number(s)
	if v == nil {
		return nil
	}
	out := *v * multiplier
	return &out
}
