// Package celltext holds the text rules shared by every grid component:
// normalization of cell text and the numeric-literal grammar used by
// column aggregates.
package celltext

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// numberPattern is the whole-text grammar for a numeric cell: an optional
// leading minus, digits, and an optional fractional part. Separators,
// currency, percent and exponents are not numbers.
var numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// totalsPattern matches rows that carry a "total" or "subtotal" label.
var totalsPattern = regexp.MustCompile(`(?i)total|subtotal`)

// Normalize trims surrounding whitespace and folds case.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// IsBlank reports whether text is absent after normalization.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// ParseNumber returns the numeric value of text when the whole normalized
// text is a numeric literal. ok is false for anything else, including
// the empty string.
func ParseNumber(text string) (value float64, ok bool) {
	n := Normalize(text)
	if !numberPattern.MatchString(n) {
		return 0, false
	}
	v, err := strconv.ParseFloat(n, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Out-of-range literals are still numbers; ParseFloat saturates to ±Inf.
	return v, true
}

// IsTotalsText reports whether text contains "total" or "subtotal" in any case.
func IsTotalsText(text string) bool {
	return totalsPattern.MatchString(text)
}

// IsTotalsRow reports whether any cell of row is totals text.
func IsTotalsRow(row []string) bool {
	for _, cell := range row {
		if IsTotalsText(cell) {
			return true
		}
	}
	return false
}

// IsBlankRow reports whether every cell of row is blank. An empty row is blank.
func IsBlankRow(row []string) bool {
	for _, cell := range row {
		if !IsBlank(cell) {
			return false
		}
	}
	return true
}
