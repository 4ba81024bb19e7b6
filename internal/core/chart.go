package core

import "sort"

// ScaleOptions holds the "large jump" detection thresholds for adaptive
// chart compression. The defaults are presentation heuristics; both are
// configurable because precision requirements may change.
type ScaleOptions struct {
	// RatioThreshold triggers detection when max > min*RatioThreshold.
	RatioThreshold float64
	// RangeThreshold additionally requires max-min > RangeThreshold.
	RangeThreshold float64
}

func DefaultScaleOptions() ScaleOptions {
	return ScaleOptions{RatioThreshold: 10, RangeThreshold: 1000}
}

func (o ScaleOptions) withDefaults() ScaleOptions {
	d := DefaultScaleOptions()
	if o.RatioThreshold <= 0 {
		o.RatioThreshold = d.RatioThreshold
	}
	if o.RangeThreshold <= 0 {
		o.RangeThreshold = d.RangeThreshold
	}
	return o
}

type (
	// ChartPoint is one display-ready sample. Value always carries the
	// unmodified measurement for tooltips and exact display; Display is
	// the adaptively compressed rendering value (equal to Value when no
	// compression applies). CumulativeDeposit and Profit are populated
	// for sparen categories only.
	ChartPoint struct {
		Date              string
		Value             float64
		Display           float64
		CumulativeDeposit float64
		Profit            float64
	}

	// MonthBucket aggregates the entries of one YYYY-MM period.
	MonthBucket struct {
		Month string
		Total float64
		Count int
	}
)

// NeedsScaling reports whether the non-zero values span an extreme range:
// max exceeds min by the ratio threshold, min is positive, and the
// absolute spread strictly exceeds the range threshold. Zero values are
// placeholders and do not participate in range detection.
func NeedsScaling(values []float64, o ScaleOptions) bool {
	o = o.withDefaults()
	min, max, any := nonZeroRange(values)
	if !any || min <= 0 {
		return false
	}
	return max > min*o.RatioThreshold && max-min > o.RangeThreshold
}

// scaleValue compresses v into the display range with a quadratic-then-
// linear blend, keeping the endpoints fixed while pulling the mid-range
// down. Zero values map to display 0 unconditionally.
func scaleValue(v, min, max float64) float64 {
	if v == 0 {
		return 0
	}
	rng := max - min
	if rng <= 0 {
		return v
	}
	normalized := (v - min) / rng
	return min + normalized*normalized*rng*0.5 + normalized*rng*0.5
}

// BuildSeries derives the display-ready chart series for a category's
// entries: chronologically ordered points with adaptive compression for
// extreme-range data and, for sparen categories, the running deposit
// total and per-point profit. Total over empty, single-point and all-zero
// input.
func BuildSeries(entries []Entry, categoryType CategoryType, o ScaleOptions) []ChartPoint {
	if len(entries) == 0 {
		return []ChartPoint{}
	}

	ordered := sortChronological(entries)

	values := make([]float64, len(ordered))
	for i, e := range ordered {
		values[i] = e.Value
	}
	scale := NeedsScaling(values, o)
	min, max, _ := nonZeroRange(values)

	points := make([]ChartPoint, len(ordered))
	var cumDeposit float64
	for i, e := range ordered {
		p := ChartPoint{
			Date:    e.Date,
			Value:   e.Value,
			Display: e.Value,
		}
		if scale {
			p.Display = scaleValue(e.Value, min, max)
		}
		if categoryType == Sparen {
			cumDeposit += e.DepositValue()
			p.CumulativeDeposit = cumDeposit
			p.Profit = e.Value - cumDeposit
		}
		points[i] = p
	}
	return points
}

// BucketMonthly groups entries by their YYYY-MM period key and computes
// the per-bucket total using the same category-type rule as Summarize.
// Buckets are returned sorted ascending by key. Entries whose date cannot
// be reduced to a period key are skipped.
func BucketMonthly(entries []Entry, categoryType CategoryType) []MonthBucket {
	groups := make(map[string][]Entry)
	for _, e := range entries {
		key := MonthKeyFromISO(e.Date)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], e)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]MonthBucket, len(keys))
	for i, k := range keys {
		buckets[i] = MonthBucket{
			Month: k,
			Total: Summarize(groups[k], categoryType).Total,
			Count: len(groups[k]),
		}
	}
	return buckets
}

func nonZeroRange(values []float64) (min, max float64, any bool) {
	for _, v := range values {
		if v == 0 {
			continue
		}
		if !any {
			min, max = v, v
			any = true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, any
}
