package core

import (
	"math"
	"testing"
)

func dep(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarizeEmpty(t *testing.T) {
	for _, ct := range []CategoryType{Normal, Sparen} {
		s := Summarize(nil, ct)
		if s != (Summary{}) {
			t.Fatalf("%s: expected all-zero summary for empty input, got %+v", ct, s)
		}
	}
}

func TestSummarizeNormal(t *testing.T) {
	entries := []Entry{
		{Date: "2024-01", Value: 10},
		{Date: "2024-02", Value: -5},
		{Date: "2024-03", Value: 20},
	}
	s := Summarize(entries, Normal)
	if s.Total != 25 {
		t.Fatalf("total: expected 25, got %v", s.Total)
	}
	if !almostEqual(s.Average, 25.0/3) {
		t.Fatalf("average: expected ~8.33, got %v", s.Average)
	}
	if s.Min != -5 || s.Max != 20 {
		t.Fatalf("min/max: expected -5/20, got %v/%v", s.Min, s.Max)
	}
	if s.Latest != 20 {
		t.Fatalf("latest: expected 20, got %v", s.Latest)
	}
	if s.TotalDeposits != 0 || s.Profit != 0 || s.ProfitPercentage != 0 {
		t.Fatalf("sparen-only fields must stay zero for normal categories: %+v", s)
	}
}

func TestSummarizeNormalOrderInvariant(t *testing.T) {
	a := []Entry{{Date: "2024-01", Value: 1}, {Date: "2024-03", Value: 3}, {Date: "2024-02", Value: 2}}
	b := []Entry{{Date: "2024-03", Value: 3}, {Date: "2024-02", Value: 2}, {Date: "2024-01", Value: 1}}
	if Summarize(a, Normal).Total != Summarize(b, Normal).Total {
		t.Fatalf("normal total must be invariant under input reordering")
	}
}

func TestSummarizeSparen(t *testing.T) {
	entries := []Entry{
		{Date: "2024-01", Value: 100, Deposit: dep(100)},
		{Date: "2024-02", Value: 130, Deposit: dep(20)},
	}
	s := Summarize(entries, Sparen)
	if s.Total != 130 {
		t.Fatalf("total: expected 130, got %v", s.Total)
	}
	if s.TotalDeposits != 120 {
		t.Fatalf("deposits: expected 120, got %v", s.TotalDeposits)
	}
	if s.Profit != 10 {
		t.Fatalf("profit: expected 10, got %v", s.Profit)
	}
	if !almostEqual(s.ProfitPercentage, 10.0/120*100) {
		t.Fatalf("profit percentage: expected ~8.33, got %v", s.ProfitPercentage)
	}
}

func TestSummarizeSparenSkipsZeroSnapshots(t *testing.T) {
	// The latest entry is an auto-generated zero placeholder; the balance
	// is taken from the latest non-zero snapshot instead.
	entries := []Entry{
		{Date: "2024-03", Value: 0, AutoGenerated: true},
		{Date: "2024-01", Value: 500},
		{Date: "2024-02", Value: 520},
	}
	s := Summarize(entries, Sparen)
	if s.Total != 520 {
		t.Fatalf("expected latest non-zero value 520, got %v", s.Total)
	}

	allZero := []Entry{{Date: "2024-01"}, {Date: "2024-02"}}
	if got := Summarize(allZero, Sparen).Total; got != 0 {
		t.Fatalf("all-zero sparen total: expected 0, got %v", got)
	}
}

func TestSummarizeSparenOrderInvariant(t *testing.T) {
	a := []Entry{
		{Date: "2024-02", Value: 130},
		{Date: "2024-01", Value: 100},
	}
	b := []Entry{
		{Date: "2024-01", Value: 100},
		{Date: "2024-02", Value: 130},
	}
	if Summarize(a, Sparen).Total != 130 || Summarize(b, Sparen).Total != 130 {
		t.Fatalf("sparen total must not depend on input insertion order")
	}
}

func TestSummarizeZeroDepositsNeverDivides(t *testing.T) {
	entries := []Entry{{Date: "2024-01", Value: 50}}
	s := Summarize(entries, Sparen)
	if s.ProfitPercentage != 0 {
		t.Fatalf("expected 0 profit percentage with zero deposits, got %v", s.ProfitPercentage)
	}
	if math.IsNaN(s.ProfitPercentage) || math.IsInf(s.ProfitPercentage, 0) {
		t.Fatalf("profit percentage must never be NaN or Inf")
	}
}

func TestSummarizeMissingDepositDefaultsToZero(t *testing.T) {
	entries := []Entry{
		{Date: "2024-01", Value: 100, Deposit: dep(50)},
		{Date: "2024-02", Value: 110}, // no deposit recorded
	}
	if got := Summarize(entries, Sparen).TotalDeposits; got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
}
