package core

import "testing"

func TestAnalyzeTrendDirection(t *testing.T) {
	cases := []struct {
		name  string
		first float64
		last  float64
		want  TrendDirection
	}{
		{"clear rise", 100, 110, TrendUp},
		{"clear fall", 100, 90, TrendDown},
		{"flat", 100, 100, TrendNeutral},
		{"inside dead band up", 100, 100.4, TrendNeutral},
		{"inside dead band down", 100, 99.6, TrendNeutral},
		{"exactly at band", 100, 100.5, TrendUp},
		{"exactly at negative band", 100, 99.5, TrendDown},
		{"zero base", 0, 50, TrendNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points := []Point{{Date: "2024-01", Value: tc.first}, {Date: "2024-02", Value: tc.last}}
			got := AnalyzeTrend(points)
			if got.Direction != tc.want {
				t.Fatalf("expected %s, got %s (pct=%v)", tc.want, got.Direction, got.PercentageChange)
			}
		})
	}
}

func TestAnalyzeTrendChange(t *testing.T) {
	points := []Point{
		{Date: "2024-01", Value: 200},
		{Date: "2024-02", Value: 180},
		{Date: "2024-03", Value: 250},
	}
	tr := AnalyzeTrend(points)
	if tr.AbsoluteChange != 50 {
		t.Fatalf("absolute change: expected 50, got %v", tr.AbsoluteChange)
	}
	if tr.PercentageChange != 25 {
		t.Fatalf("percentage change: expected 25, got %v", tr.PercentageChange)
	}
}

func TestAnalyzeTrendDegenerate(t *testing.T) {
	for _, points := range [][]Point{nil, {{Date: "2024-01", Value: 7}}} {
		tr := AnalyzeTrend(points)
		if tr.Direction != TrendNeutral || tr.PercentageChange != 0 || tr.AbsoluteChange != 0 {
			t.Fatalf("expected neutral zero trend for %d points, got %+v", len(points), tr)
		}
	}
}

func TestFitTrendLineTwoPoints(t *testing.T) {
	// With exactly two points the fitted line passes through both.
	points := []Point{{Date: "2024-01", Value: 3}, {Date: "2024-02", Value: 7}}
	line := FitTrendLine(points)
	if line.Slope != 4 || line.Intercept != 3 {
		t.Fatalf("expected slope 4, intercept 3, got %v/%v", line.Slope, line.Intercept)
	}
	if len(line.Fitted) != 2 || !almostEqual(line.Fitted[0], 3) || !almostEqual(line.Fitted[1], 7) {
		t.Fatalf("fitted line must pass through both points, got %v", line.Fitted)
	}
}

func TestFitTrendLineLeastSquares(t *testing.T) {
	// y = 2x + 1 with symmetric noise cancels out exactly.
	points := []Point{
		{Value: 1.5}, // 1 + 0.5
		{Value: 2.5}, // 3 - 0.5
		{Value: 5.5}, // 5 + 0.5
		{Value: 6.5}, // 7 - 0.5
	}
	line := FitTrendLine(points)
	if !almostEqual(line.Slope, 1.8) || !almostEqual(line.Intercept, 1.3) {
		t.Fatalf("unexpected fit: slope=%v intercept=%v", line.Slope, line.Intercept)
	}
	if len(line.Fitted) != 4 {
		t.Fatalf("expected fitted value per index, got %d", len(line.Fitted))
	}
}

func TestFitTrendLineDegenerate(t *testing.T) {
	for _, points := range [][]Point{nil, {{Value: 5}}} {
		line := FitTrendLine(points)
		if line.Slope != 0 || line.Intercept != 0 || len(line.Fitted) != 0 {
			t.Fatalf("expected empty fit for %d points, got %+v", len(points), line)
		}
	}
}

func TestFitTrendLineConstantSeries(t *testing.T) {
	points := []Point{{Value: 4}, {Value: 4}, {Value: 4}}
	line := FitTrendLine(points)
	if line.Slope != 0 || line.Intercept != 4 {
		t.Fatalf("constant series: expected slope 0, intercept 4, got %v/%v", line.Slope, line.Intercept)
	}
}
