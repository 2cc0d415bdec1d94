package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`\d[\d.,]*`)

// ParseNumber extracts the first decimal number from text such as "$1,299.99",
// "19,99 €" or "4.5 out of 5 stars".
func ParseNumber(text string) (float64, bool) {
	raw := numberRe.FindString(text)
	if raw == "" {
		return 0, false
	}
	raw = strings.TrimRight(raw, ".,")

	lastComma := strings.LastIndex(raw, ",")
	lastDot := strings.LastIndex(raw, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// European: 1.234,56
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			// US: 1,234.56
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case lastComma >= 0:
		// A single comma followed by exactly three digits is a thousands separator.
		if strings.Count(raw, ",") == 1 && len(raw)-lastComma-1 != 3 {
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case strings.Count(raw, ".") > 1:
		raw = strings.ReplaceAll(raw, ".", "")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseCount extracts the first integer from text such as "1,234 ratings",
// ignoring thousands separators. It returns 0 when no digits are present.
func ParseCount(text string) int {
	raw := numberRe.FindString(text)
	if raw == "" {
		return 0
	}
	raw = strings.NewReplacer(",", "", ".", "").Replace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
