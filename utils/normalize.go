package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CleanText trims whitespace and coerces blank strings to nil, the way every
// staging column is cleaned before it reaches a core table.
func CleanText(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// NormalizeDecimal parses a legacy numeric string, tolerating the comma
// decimal separator and thousand grouping of pt-BR exports ("1.234,56").
// Blank input returns nil; junk returns an error.
func NormalizeDecimal(s string) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}

	normalized := trimmed
	hasComma := strings.Contains(normalized, ",")
	hasDot := strings.Contains(normalized, ".")

	switch {
	case hasComma && hasDot:
		// The rightmost separator is the decimal point
		if strings.LastIndex(normalized, ",") > strings.LastIndex(normalized, ".") {
			normalized = strings.ReplaceAll(normalized, ".", "")
			normalized = strings.Replace(normalized, ",", ".", 1)
		} else {
			normalized = strings.ReplaceAll(normalized, ",", "")
		}
	case hasComma:
		normalized = strings.Replace(normalized, ",", ".", 1)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric value %q", s)
	}
	return &d, nil
}

// ParseLegacyDate accepts the date shapes seen across legacy exports:
// staging ISO dates, raw YYYYMMDD, and DD/MM/YYYY. Blank or junk yields nil.
func ParseLegacyDate(s string) *time.Time {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "20060102", "02/01/2006"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
	}
	return nil
}

// DefaultStatus maps a legacy active flag onto the core status column,
// defaulting missing values to active.
func DefaultStatus(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "F", "N", "0", "INATIVO":
		return "inactive"
	default:
		return "active"
	}
}

// LegacyKey builds the deterministic composite key used to keep history
// re-imports idempotent.
func LegacyKey(parts ...string) string {
	cleaned := make([]string, len(parts))
	for i, p := range parts {
		cleaned[i] = strings.TrimSpace(p)
	}
	return strings.Join(cleaned, "|")
}
