package core

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

// neutralBandPct is the dead band below which a series is classified as
// flat, preventing noisy trend labels on near-flat series.
const neutralBandPct = 0.5

type (
	TrendDirection string

	// Point is one sample of a chronologically ordered series.
	Point struct {
		Date  string
		Value float64
	}

	Trend struct {
		Direction        TrendDirection
		PercentageChange float64
		AbsoluteChange   float64
	}

	// TrendLine is an ordinary-least-squares fit over index vs value.
	// Fitted holds the line's value at each input index.
	TrendLine struct {
		Slope     float64
		Intercept float64
		Fitted    []float64
	}
)

// AnalyzeTrend classifies the change between the first and last point of a
// pre-sorted series. The caller is responsible for chronological ordering;
// the analyzer does not re-sort. Fewer than two points yield a neutral
// zero result, as does a zero first value (no defined percentage base).
func AnalyzeTrend(points []Point) Trend {
	if len(points) < 2 {
		return Trend{Direction: TrendNeutral}
	}

	first := points[0].Value
	last := points[len(points)-1].Value

	t := Trend{AbsoluteChange: last - first}
	if first != 0 {
		t.PercentageChange = (last - first) / first * 100
	}

	switch {
	case t.PercentageChange >= neutralBandPct:
		t.Direction = TrendUp
	case t.PercentageChange <= -neutralBandPct:
		t.Direction = TrendDown
	default:
		t.Direction = TrendNeutral
	}
	return t
}

// FitTrendLine computes the least-squares regression line over the series,
// using the point index as the x coordinate. Fewer than two points yield
// an empty result rather than a division by zero.
func FitTrendLine(points []Point) TrendLine {
	n := len(points)
	if n < 2 {
		return TrendLine{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}

	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = intercept + slope*float64(i)
	}

	return TrendLine{Slope: slope, Intercept: intercept, Fitted: fitted}
}
