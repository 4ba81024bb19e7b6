package core

import "sort"

// Summary holds the aggregate figures for one category's entries.
// All fields are zero for an empty entry list; none of them is ever
// NaN or infinite.
type Summary struct {
	Total            float64
	Average          float64
	Min              float64
	Max              float64
	Latest           float64
	TotalDeposits    float64
	Profit           float64
	ProfitPercentage float64
}

// Summarize computes the category-level summary for a list of entries.
//
// The total depends on the category type: normal categories sum every
// value, sparen categories report the value of the chronologically latest
// entry whose value is non-zero, because their entries are balance
// snapshots rather than increments. Zero-value entries (including
// auto-generated placeholders) are skipped when searching for the current
// balance. Deposits, profit and profit percentage are only populated for
// sparen categories; a zero deposit total never divides.
func Summarize(entries []Entry, categoryType CategoryType) Summary {
	if len(entries) == 0 {
		return Summary{}
	}

	ordered := sortChronological(entries)

	var s Summary
	s.Min = ordered[0].Value
	s.Max = ordered[0].Value

	var sum float64
	for _, e := range ordered {
		sum += e.Value
		if e.Value < s.Min {
			s.Min = e.Value
		}
		if e.Value > s.Max {
			s.Max = e.Value
		}
	}
	s.Average = sum / float64(len(ordered))
	s.Latest = ordered[len(ordered)-1].Value

	if categoryType == Sparen {
		for i := len(ordered) - 1; i >= 0; i-- {
			if ordered[i].Value != 0 {
				s.Total = ordered[i].Value
				break
			}
		}
		for _, e := range ordered {
			s.TotalDeposits += e.DepositValue()
		}
		s.Profit = s.Total - s.TotalDeposits
		if s.TotalDeposits > 0 {
			s.ProfitPercentage = s.Profit / s.TotalDeposits * 100
		}
		return s
	}

	s.Total = sum
	return s
}

// sortChronological returns a date-ascending copy. Equal dates keep their
// input order, so repeated computation over the same snapshot is stable.
func sortChronological(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}
