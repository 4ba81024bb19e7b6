package core

import (
	"math"
	"testing"

	"golang.org/x/text/language"
)

func TestParseFlexibleNumber(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		nan bool
	}{
		{"1.50", 1.5, false},
		{"1,50", 1.5, false},
		{"1234.56", 1234.56, false},
		{"1234,56", 1234.56, false},
		{" 42,00 ", 42, false},
		{"0,99", 0.99, false},
		{"100", 100, false},
		{"0", 0, false},
		{"-3,25", -3.25, false},
		{"", 0, true},
		{"   ", 0, true},
		{"abc", 0, true},
		{"12.34.56", 0, true},
		{"1.234,56", 0, true}, // thousands separators are out of contract
	}
	for _, tc := range cases {
		got := ParseFlexibleNumber(tc.in)
		if tc.nan {
			if !math.IsNaN(got) {
				t.Fatalf("%q expected NaN, got %v", tc.in, got)
			}
			continue
		}
		if got != tc.out {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestParseFlexibleNumberSeparatorEquivalence(t *testing.T) {
	if ParseFlexibleNumber("1,50") != ParseFlexibleNumber("1.50") {
		t.Fatalf("comma and dot forms must parse identically")
	}
	if ParseFlexibleNumber("1,50") != 1.5 {
		t.Fatalf("expected 1.5, got %v", ParseFlexibleNumber("1,50"))
	}
}

func TestIsValidNumber(t *testing.T) {
	valid := []string{"1", "1,5", "1.5", "-2", "0"}
	for _, s := range valid {
		if !IsValidNumber(s) {
			t.Fatalf("%q expected valid", s)
		}
	}
	invalid := []string{"", "x", "1.2.3", "Inf", "NaN"}
	for _, s := range invalid {
		if IsValidNumber(s) {
			t.Fatalf("%q expected invalid", s)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     string
	}{
		{1234.5, 2, "1.234,50"},
		{0, 2, "0,00"},
		{-12.5, 2, "-12,50"},
		{1000000, 0, "1.000.000"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.v, tc.decimals); got != tc.want {
			t.Fatalf("FormatNumber(%v, %d) = %q, want %q", tc.v, tc.decimals, got, tc.want)
		}
	}
}

func TestFormatterLocale(t *testing.T) {
	en := NewFormatter(language.English)
	if got := en.FormatNumber(1234.5, 2); got != "1,234.50" {
		t.Fatalf("english formatter: got %q", got)
	}
}

func TestMonthKeyFromISO(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2024-01-15", "2024-01"},
		{"2024-01", "2024-01"},
		{"2024-12-31", "2024-12"},
		{"2024-13", ""},
		{"not-a-date", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MonthKeyFromISO(tc.in); got != tc.want {
			t.Fatalf("MonthKeyFromISO(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseMonthKey(t *testing.T) {
	year, month, err := ParseMonthKey("2024-07")
	if err != nil || year != 2024 || month != 7 {
		t.Fatalf("expected 2024/7, got %d/%d (err=%v)", year, month, err)
	}
	if _, _, err := ParseMonthKey("2024-7"); err == nil {
		t.Fatalf("expected error for unpadded month")
	}
}

func TestMonthBounds(t *testing.T) {
	if got := FirstOfMonth("2024-02"); got != "2024-02-01" {
		t.Fatalf("FirstOfMonth: got %q", got)
	}
	cases := []struct {
		key, want string
	}{
		{"2024-02", "2024-02-29"}, // leap year
		{"2023-02", "2023-02-28"},
		{"2024-04", "2024-04-30"},
		{"2024-12", "2024-12-31"},
		{"bogus", ""},
	}
	for _, tc := range cases {
		if got := LastOfMonth(tc.key); got != tc.want {
			t.Fatalf("LastOfMonth(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		{"2024-01-01", "2024-01-31", 30},
		{"2024-01-31", "2024-01-01", 30}, // absolute value
		{"2024-01-01", "2024-01-01", 0},
		{"bogus", "2024-01-01", 0},
	}
	for _, tc := range cases {
		if got := DaysBetween(tc.from, tc.to); got != tc.want {
			t.Fatalf("DaysBetween(%q, %q) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}
