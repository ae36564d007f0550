package utils

import (
	"strconv"
	"strings"
)

// FormatPriceMillions shortens listing prices to the million-shekel notation
// used in the source workbook: 6000000 -> "6 מש״ח", 5900000 -> "5.9 מש״ח".
// Values below one million, and anything that does not parse as a number,
// pass through unchanged so free-text price cells survive.
func FormatPriceMillions(raw string) string {
	s := strings.NewReplacer(",", "", " ", "", "₪", "").Replace(raw)
	if s == "" {
		return raw
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return raw
	}
	if num < 1_000_000 {
		return raw
	}
	m := strconv.FormatFloat(num/1_000_000, 'f', 1, 64)
	m = strings.TrimRight(m, "0")
	m = strings.TrimRight(m, ".")
	return m + " מש״ח"
}

// ParseFloatLoose reads numeric spreadsheet cells that may carry currency
// symbols, thousands separators, or stray whitespace. Returns 0 when the
// cell has no usable number.
func ParseFloatLoose(raw string) float64 {
	s := strings.NewReplacer(",", "", " ", "", "₪", "").Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return num
}

// ParseIntLoose is ParseFloatLoose truncated to an int, for count-like
// columns (bedrooms, bathrooms) that sometimes arrive as "3.0".
func ParseIntLoose(raw string) int {
	return int(ParseFloatLoose(raw))
}
