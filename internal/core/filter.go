package core

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortByDate    SortField = "date"
	SortByValue   SortField = "value"
	SortByDeposit SortField = "deposit"
	SortByComment SortField = "comment"
)

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

type (
	SortField     string
	SortDirection string

	// FilterCriteria are AND-combined predicates over an entry list.
	// Nil value bounds and empty strings mean "no bound".
	FilterCriteria struct {
		SearchTerm string
		DateFrom   string
		DateTo     string
		ValueMin   *float64
		ValueMax   *float64
	}

	SortCriteria struct {
		Field     SortField
		Direction SortDirection
	}
)

// ApplyFilter returns the entries matching every set criterion. The input
// slice is never mutated. The search term matches case-insensitively
// against the comment; entries without a comment never match a non-empty
// term. Date bounds are inclusive and compared as ISO strings, value
// bounds are inclusive numeric bounds.
func ApplyFilter(entries []Entry, fc FilterCriteria) []Entry {
	term := strings.ToLower(strings.TrimSpace(fc.SearchTerm))

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if term != "" && !strings.Contains(strings.ToLower(e.Comment), term) {
			continue
		}
		if fc.DateFrom != "" && e.Date < fc.DateFrom {
			continue
		}
		if fc.DateTo != "" && e.Date > fc.DateTo {
			continue
		}
		if fc.ValueMin != nil && e.Value < *fc.ValueMin {
			continue
		}
		if fc.ValueMax != nil && e.Value > *fc.ValueMax {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortEntries returns a copy of entries ordered by the given criteria.
// The sort is stable: equal keys keep their prior relative order. String
// fields compare locale-aware, numeric fields numerically. Unknown fields
// fall back to date ordering.
func SortEntries(entries []Entry, sc SortCriteria) []Entry {
	out := append([]Entry(nil), entries...)
	cmp := comparatorFor(sc.Field)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if sc.Direction == Descending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// ToggleSort computes the next sort criteria after the user selects a
// field: re-selecting the current field flips the direction, switching to
// another field resets to ascending.
func ToggleSort(current SortCriteria, field SortField) SortCriteria {
	if current.Field == field {
		next := Ascending
		if current.Direction == Ascending {
			next = Descending
		}
		return SortCriteria{Field: field, Direction: next}
	}
	return SortCriteria{Field: field, Direction: Ascending}
}

// comparatorFor maps the closed field enumeration to an explicit
// comparator, avoiding reflective field access.
func comparatorFor(field SortField) func(a, b Entry) int {
	switch field {
	case SortByValue:
		return func(a, b Entry) int { return compareFloats(a.Value, b.Value) }
	case SortByDeposit:
		return func(a, b Entry) int { return compareFloats(a.DepositValue(), b.DepositValue()) }
	case SortByComment:
		// Collators carry an internal buffer, so each sort gets its own.
		col := collate.New(language.German)
		return func(a, b Entry) int { return col.CompareString(a.Comment, b.Comment) }
	default:
		return func(a, b Entry) int { return strings.Compare(a.Date, b.Date) }
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
