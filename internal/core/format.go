// Package core provides the pure analytics engine: formatting and parsing
// utilities, entry aggregation, filter/sort composition, trend analysis and
// chart series normalization.
//
// All functions in this package are total over well-formed input, never
// panic, and never read the clock. Invalid numeric input is reported via
// NaN/false, degenerate input (empty series, zero denominators) yields a
// defined zero result.
package core

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const isoDayLayout = "2006-01-02"

// Formatter renders numbers with a locale's grouping and decimal separators.
type Formatter struct {
	printer *message.Printer
}

func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// FormatNumber renders v with the formatter's locale using the given number
// of fraction digits.
func (f *Formatter) FormatNumber(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return f.printer.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// defaultFormatter matches the locale of the original UI.
var defaultFormatter = NewFormatter(language.German)

// FormatNumber renders v with the default locale's separators.
func FormatNumber(v float64, decimals int) string {
	return defaultFormatter.FormatNumber(v, decimals)
}

// SetDefaultLocale replaces the formatter behind the package-level
// FormatNumber. Call during startup, before serving requests.
func SetDefaultLocale(tag language.Tag) {
	defaultFormatter = NewFormatter(tag)
}

// ParseFlexibleNumber parses a number accepting either '.' or ',' as the
// decimal separator. Whitespace is trimmed. Returns NaN for empty or
// non-numeric input. Thousands separators are not supported: a string such
// as "1.234,56" is out of contract and parses to NaN.
func ParseFlexibleNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// IsValidNumber reports whether s parses to a finite number.
func IsValidNumber(s string) bool {
	v := ParseFlexibleNumber(s)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MonthKeyFromISO derives the YYYY-MM period key from an ISO day string.
// A string that already is a period key passes through unchanged. Returns
// "" for input that is neither.
func MonthKeyFromISO(iso string) string {
	iso = strings.TrimSpace(iso)
	if monthKeyPattern.MatchString(iso) {
		return iso
	}
	if _, err := time.Parse(isoDayLayout, iso); err != nil {
		return ""
	}
	return iso[:7]
}

// ParseMonthKey splits a YYYY-MM period key into year and month.
func ParseMonthKey(key string) (year, month int, err error) {
	if !monthKeyPattern.MatchString(key) {
		return 0, 0, ErrInvalidDate
	}
	year, _ = strconv.Atoi(key[:4])
	month, _ = strconv.Atoi(key[5:])
	return year, month, nil
}

// MonthKeyFor formats a point in time as a YYYY-MM period key.
func MonthKeyFor(t time.Time) string {
	return t.Format("2006-01")
}

// FirstOfMonth returns the ISO day string of the first day of the period.
// Returns "" for an invalid key.
func FirstOfMonth(key string) string {
	if !monthKeyPattern.MatchString(key) {
		return ""
	}
	return key + "-01"
}

// LastOfMonth returns the ISO day string of the last day of the period.
// Returns "" for an invalid key.
func LastOfMonth(key string) string {
	year, month, err := ParseMonthKey(key)
	if err != nil {
		return ""
	}
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return last.Format(isoDayLayout)
}

// DaysBetween returns the absolute number of days between two ISO day
// strings, rounding any partial day up. Returns 0 when either input is
// invalid.
func DaysBetween(fromISO, toISO string) int {
	from, err := time.Parse(isoDayLayout, strings.TrimSpace(fromISO))
	if err != nil {
		return 0
	}
	to, err := time.Parse(isoDayLayout, strings.TrimSpace(toISO))
	if err != nil {
		return 0
	}
	hours := to.Sub(from).Hours()
	if hours < 0 {
		hours = -hours
	}
	return int(math.Ceil(hours / 24))
}
