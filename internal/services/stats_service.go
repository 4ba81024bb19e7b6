package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"datatracker/internal/backend"
	"datatracker/internal/cache"
	"datatracker/internal/core"
	"datatracker/internal/log"
	"datatracker/internal/storage"
)

// sparklineLimit caps the number of points per dashboard sparkline.
const sparklineLimit = 10

// StatsOptions carries the tunables of the stats service.
type StatsOptions struct {
	Scale core.ScaleOptions
	// ExcludeAutoGenerated drops auto-generated placeholder entries from
	// trend baselines.
	ExcludeAutoGenerated bool
	CacheSize            int
	CacheTTL             time.Duration
}

// StatsService computes dashboard and overview statistics. Computed
// results are cached; mutations invalidate via the StatsInvalidator
// methods.
type StatsService struct {
	store   backend.Store
	cache   *cache.LRUCache[any]
	logger  *log.Logger
	options StatsOptions
}

func NewStatsService(store backend.Store, options StatsOptions, logger *log.Logger) *StatsService {
	if options.CacheSize < 1 {
		options.CacheSize = 64
	}
	if options.CacheTTL <= 0 {
		options.CacheTTL = 30 * time.Second
	}
	return &StatsService{
		store:   store,
		cache:   cache.NewLRUCache[any](options.CacheSize, options.CacheTTL),
		logger:  logger.WithComponent(log.ComponentStats),
		options: options,
	}
}

// Cache returns the underlying cache for cleanup registration.
func (s *StatsService) Cache() *cache.LRUCache[any] { return s.cache }

// InvalidateCategory implements StatsInvalidator.
func (s *StatsService) InvalidateCategory(categoryID int64) {
	s.cache.DeleteByPrefix("dashboard/")
	s.cache.DeleteByPrefix("overview/")
	s.cache.DeleteByPrefix(fmt.Sprintf("category/%d/", categoryID))
}

// InvalidateAll implements StatsInvalidator.
func (s *StatsService) InvalidateAll() {
	s.cache.Flush()
}

// SparkPoint is one sample of a dashboard sparkline.
type SparkPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// CategoryStats is the per-category block of the dashboard response.
// Profit figures are only present for sparen categories with deposits.
type CategoryStats struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Type             core.CategoryType `json:"type"`
	Unit             string            `json:"unit"`
	TotalValue       float64           `json:"totalValue"`
	TotalDeposits    float64           `json:"totalDeposits"`
	EntryCount       int               `json:"entryCount"`
	Sparkline        []SparkPoint      `json:"sparklineData"`
	Profit           *float64          `json:"profit"`
	ProfitPercentage *float64          `json:"profitPercentage"`
}

type DashboardStats struct {
	TotalCategories int             `json:"totalCategories"`
	CategorySums    []CategoryStats `json:"categorySums"`
}

// DashboardStats builds the per-category dashboard summary. Categories
// are processed concurrently since each needs its own entry list.
func (s *StatsService) DashboardStats(ctx context.Context) (DashboardStats, error) {
	const key = "dashboard/stats"
	if cached, ok := s.cache.Get(key); ok {
		return cached.(DashboardStats), nil
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("list categories: %w", err)
	}

	stats := make([]CategoryStats, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range categories {
		g.Go(func() error {
			entries, err := s.store.ListEntries(gctx, cat.ID)
			if err != nil {
				return fmt.Errorf("list entries for category %d: %w", cat.ID, err)
			}
			stats[i] = buildCategoryStats(cat, entries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	result := DashboardStats{
		TotalCategories: len(categories),
		CategorySums:    stats,
	}
	s.cache.Set(key, result)

	s.logger.Debug("Dashboard stats generated", log.FieldCount, len(categories))
	return result, nil
}

func buildCategoryStats(cat core.Category, entries []core.Entry) CategoryStats {
	summary := core.Summarize(entries, cat.Type)

	cs := CategoryStats{
		ID:            cat.ID,
		Name:          cat.Name,
		Type:          cat.Type,
		Unit:          cat.Unit,
		TotalValue:    summary.Total,
		TotalDeposits: summary.TotalDeposits,
		EntryCount:    len(entries),
		Sparkline:     sparkline(entries, sparklineLimit),
	}
	if cat.Type == core.Sparen && summary.TotalDeposits > 0 {
		profit := summary.Profit
		pct := summary.ProfitPercentage
		cs.Profit = &profit
		cs.ProfitPercentage = &pct
	}
	return cs
}

// sparkline returns the last limit points of a chronologically ordered
// entry list.
func sparkline(entries []core.Entry, limit int) []SparkPoint {
	start := 0
	if len(entries) > limit {
		start = len(entries) - limit
	}
	points := make([]SparkPoint, 0, len(entries)-start)
	for _, e := range entries[start:] {
		points = append(points, SparkPoint{Date: e.Date, Value: e.Value})
	}
	return points
}

// TimeseriesFilter narrows the dashboard timeseries.
type TimeseriesFilter struct {
	From string
	To   string
	// Type filters categories by type; empty or "all" keeps everything.
	Type string
}

type TimeseriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SparenPoint carries the savings view at one date: the balance, the
// deposits accumulated so far and the resulting profit.
type SparenPoint struct {
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	Deposits float64 `json:"deposits"`
	Profit   float64 `json:"profit"`
}

type CategoryComparison struct {
	Name  string            `json:"name"`
	Value float64           `json:"value"`
	Type  core.CategoryType `json:"type"`
}

type Timeseries struct {
	TotalValueData     []TimeseriesPoint    `json:"totalValueData"`
	SparenData         []SparenPoint        `json:"sparenData"`
	CategoryComparison []CategoryComparison `json:"categoryComparison"`
}

// DashboardTimeseries builds the portfolio-wide series over time. Only
// currency categories contribute to the value curves: sparen categories
// contribute their latest balance up to each date, normal categories the
// sum of values up to each date. The comparison block covers every
// category regardless of unit.
func (s *StatsService) DashboardTimeseries(ctx context.Context, f TimeseriesFilter) (Timeseries, error) {
	key := "dashboard/timeseries/" + f.From + "/" + f.To + "/" + f.Type
	if cached, ok := s.cache.Get(key); ok {
		return cached.(Timeseries), nil
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return Timeseries{}, fmt.Errorf("list categories: %w", err)
	}
	if f.Type != "" && f.Type != "all" {
		filtered := categories[:0:0]
		for _, c := range categories {
			if string(c.Type) == f.Type {
				filtered = append(filtered, c)
			}
		}
		categories = filtered
	}

	entriesByCategory := make([][]core.Entry, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range categories {
		g.Go(func() error {
			entries, err := s.store.ListEntries(gctx, cat.ID)
			if err != nil {
				return fmt.Errorf("list entries for category %d: %w", cat.ID, err)
			}
			entriesByCategory[i] = clampDates(entries, f.From, f.To)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Timeseries{}, err
	}

	dateSet := make(map[string]struct{})
	for _, entries := range entriesByCategory {
		for _, e := range entries {
			dateSet[e.Date] = struct{}{}
		}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	result := Timeseries{
		TotalValueData:     make([]TimeseriesPoint, 0, len(dates)),
		SparenData:         make([]SparenPoint, 0, len(dates)),
		CategoryComparison: make([]CategoryComparison, 0, len(categories)),
	}

	for _, date := range dates {
		var total, sparenValue, sparenDeposits float64
		for i, cat := range categories {
			if cat.Unit != core.SparenUnit {
				continue
			}
			entries := entriesByCategory[i]
			if cat.Type == core.Sparen {
				// Balance snapshot: the latest entry up to this date.
				var last *core.Entry
				for j := range entries {
					if entries[j].Date <= date {
						last = &entries[j]
					}
				}
				if last != nil {
					total += last.Value
					sparenValue += last.Value
				}
				for _, e := range entries {
					if e.Date <= date {
						sparenDeposits += e.DepositValue()
					}
				}
				continue
			}
			for _, e := range entries {
				if e.Date <= date {
					total += e.Value
				}
			}
		}

		result.TotalValueData = append(result.TotalValueData, TimeseriesPoint{Date: date, Value: total})
		if sparenValue > 0 || sparenDeposits > 0 {
			result.SparenData = append(result.SparenData, SparenPoint{
				Date:     date,
				Value:    sparenValue,
				Deposits: sparenDeposits,
				Profit:   sparenValue - sparenDeposits,
			})
		}
	}

	for i, cat := range categories {
		result.CategoryComparison = append(result.CategoryComparison, CategoryComparison{
			Name:  cat.Name,
			Value: core.Summarize(entriesByCategory[i], cat.Type).Total,
			Type:  cat.Type,
		})
	}

	s.cache.Set(key, result)
	s.logger.Debug("Dashboard timeseries generated",
		log.FieldCount, len(dates),
		"categories", len(categories))
	return result, nil
}

// OverviewFilter narrows the overview aggregates.
type OverviewFilter struct {
	CategoryIDs []int64
	From        string
	To          string
}

// Overview holds flat aggregates across matching entries. Min and Max
// are nil when nothing matched.
type Overview struct {
	Count        int      `json:"count"`
	Sum          float64  `json:"sum"`
	Avg          float64  `json:"avg"`
	Min          *float64 `json:"min"`
	Max          *float64 `json:"max"`
	TotalDeposit float64  `json:"total_deposit"`
}

func (s *StatsService) Overview(ctx context.Context, f OverviewFilter) (Overview, error) {
	key := overviewKey(f)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(Overview), nil
	}

	var entries []core.Entry
	if len(f.CategoryIDs) == 0 {
		all, err := s.store.SearchEntries(ctx, storage.SearchQuery{DateFrom: f.From, DateTo: f.To})
		if err != nil {
			return Overview{}, fmt.Errorf("search entries: %w", err)
		}
		entries = all
	} else {
		for _, id := range f.CategoryIDs {
			matched, err := s.store.SearchEntries(ctx, storage.SearchQuery{
				CategoryID: &id, DateFrom: f.From, DateTo: f.To,
			})
			if err != nil {
				return Overview{}, fmt.Errorf("search entries for category %d: %w", id, err)
			}
			entries = append(entries, matched...)
		}
	}

	var result Overview
	result.Count = len(entries)
	if len(entries) > 0 {
		min, max := entries[0].Value, entries[0].Value
		for _, e := range entries {
			result.Sum += e.Value
			result.TotalDeposit += e.DepositValue()
			if e.Value < min {
				min = e.Value
			}
			if e.Value > max {
				max = e.Value
			}
		}
		result.Avg = result.Sum / float64(len(entries))
		result.Min = &min
		result.Max = &max
	}

	s.cache.Set(key, result)
	return result, nil
}

func overviewKey(f OverviewFilter) string {
	ids := make([]string, len(f.CategoryIDs))
	for i, id := range f.CategoryIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return "overview/" + strings.Join(ids, ",") + "/" + f.From + "/" + f.To
}

// MonthlySeries holds one year's values and deposits, one slot per month.
type MonthlySeries struct {
	Values   [12]float64 `json:"values"`
	Deposits [12]float64 `json:"deposits"`
}

// MonthlyMatrix is the per-year, per-month aggregation of one category.
type MonthlyMatrix struct {
	CategoryID int64                    `json:"category_id"`
	Years      map[string]MonthlySeries `json:"years"`
}

// MonthlyByYear sums values and deposits into a 12-slot series per year.
// Year bounds are inclusive; zero bounds are open.
func (s *StatsService) MonthlyByYear(ctx context.Context, categoryID int64, fromYear, toYear int) (MonthlyMatrix, error) {
	key := fmt.Sprintf("category/%d/monthly/%d-%d", categoryID, fromYear, toYear)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(MonthlyMatrix), nil
	}

	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return MonthlyMatrix{}, err
	}
	entries, err := s.store.ListEntries(ctx, categoryID)
	if err != nil {
		return MonthlyMatrix{}, fmt.Errorf("list entries: %w", err)
	}

	matrix := MonthlyMatrix{
		CategoryID: categoryID,
		Years:      make(map[string]MonthlySeries),
	}
	for _, e := range entries {
		year, month, err := core.ParseMonthKey(e.Date)
		if err != nil {
			s.logger.Warn("Invalid date format in entry",
				log.FieldEntryID, e.ID,
				log.FieldMonth, e.Date)
			continue
		}
		if fromYear > 0 && year < fromYear {
			continue
		}
		if toYear > 0 && year > toYear {
			continue
		}

		yearKey := strconv.Itoa(year)
		series := matrix.Years[yearKey]
		series.Values[month-1] += e.Value
		series.Deposits[month-1] += e.DepositValue()
		matrix.Years[yearKey] = series
	}

	s.cache.Set(key, matrix)
	return matrix, nil
}

// CategoryInsights bundles the analytics views of one category: the
// aggregate summary, trend classification, regression line, display-ready
// chart series and monthly buckets.
type CategoryInsights struct {
	Category core.Category      `json:"category"`
	Summary  core.Summary       `json:"summary"`
	Trend    core.Trend         `json:"trend"`
	Line     core.TrendLine     `json:"trendLine"`
	Series   []core.ChartPoint  `json:"series"`
	Months   []core.MonthBucket `json:"months"`
}

// Insights computes the full analytics view of one category. Auto-
// generated placeholder entries are dropped from the trend baseline when
// the service is configured to exclude them.
func (s *StatsService) Insights(ctx context.Context, categoryID int64) (CategoryInsights, error) {
	key := fmt.Sprintf("category/%d/insights", categoryID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(CategoryInsights), nil
	}

	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return CategoryInsights{}, err
	}
	entries, err := s.store.ListEntries(ctx, categoryID)
	if err != nil {
		return CategoryInsights{}, fmt.Errorf("list entries: %w", err)
	}

	trendInput := entries
	if s.options.ExcludeAutoGenerated {
		trendInput = make([]core.Entry, 0, len(entries))
		for _, e := range entries {
			if !e.AutoGenerated {
				trendInput = append(trendInput, e)
			}
		}
	}
	points := make([]core.Point, len(trendInput))
	for i, e := range trendInput {
		points[i] = core.Point{Date: e.Date, Value: e.Value}
	}

	insights := CategoryInsights{
		Category: cat,
		Summary:  core.Summarize(entries, cat.Type),
		Trend:    core.AnalyzeTrend(points),
		Line:     core.FitTrendLine(points),
		Series:   core.BuildSeries(entries, cat.Type, s.options.Scale),
		Months:   core.BucketMonthly(entries, cat.Type),
	}

	s.cache.Set(key, insights)
	return insights, nil
}

// clampDates keeps entries within the inclusive [from, to] window.
// Empty bounds are open.
func clampDates(entries []core.Entry, from, to string) []core.Entry {
	if from == "" && to == "" {
		return entries
	}
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		out = append(out, e)
	}
	return out
}
