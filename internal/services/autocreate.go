package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datatracker/internal/backend"
	"datatracker/internal/core"
	"datatracker/internal/log"
	"datatracker/internal/storage"
)

// AutoCreateResult identifies one entry created by an auto-create run.
type AutoCreateResult struct {
	CategoryID int64 `json:"category_id"`
	EntryID    int64 `json:"entry_id"`
}

// AutoCreator creates the monthly placeholder entries for categories
// flagged auto_create. The scheduler runs it on the first of each month;
// the HTTP API can trigger it manually.
type AutoCreator struct {
	store  backend.Store
	stats  StatsInvalidator
	logger *log.Logger
	now    func() time.Time
}

func NewAutoCreator(store backend.Store, stats StatsInvalidator, logger *log.Logger) *AutoCreator {
	return &AutoCreator{
		store:  store,
		stats:  stats,
		logger: logger.WithComponent(log.ComponentScheduler),
		now:    time.Now,
	}
}

// Run creates placeholder entries for the current month.
func (a *AutoCreator) Run(ctx context.Context) ([]AutoCreateResult, error) {
	return a.RunForMonth(ctx, core.MonthKeyFor(a.now()))
}

// RunForMonth creates a zero-value entry for every auto-create category
// that has none for the given month. Sparen categories carry over the
// deposit of their latest entry. The run is idempotent.
func (a *AutoCreator) RunForMonth(ctx context.Context, month string) ([]AutoCreateResult, error) {
	categories, err := a.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var created []AutoCreateResult
	for _, cat := range categories {
		if !cat.AutoCreate {
			continue
		}

		exists, err := a.store.EntryExistsForMonth(ctx, cat.ID, month)
		if err != nil {
			return created, fmt.Errorf("check month for category %d: %w", cat.ID, err)
		}
		if exists {
			a.logger.Debug("Entry already exists, skipping",
				log.FieldCategoryID, cat.ID,
				log.FieldMonth, month)
			continue
		}

		var deposit *float64
		if cat.Type == core.Sparen {
			last, err := a.store.LatestEntry(ctx, cat.ID)
			switch {
			case err == nil:
				deposit = last.Deposit
			case errors.Is(err, storage.ErrNotFound):
				// First entry of the category, nothing to carry over.
			default:
				return created, fmt.Errorf("latest entry for category %d: %w", cat.ID, err)
			}
		}

		entry, err := a.store.CreateEntry(ctx, core.Entry{
			CategoryID:    cat.ID,
			Date:          month,
			Value:         0,
			Deposit:       deposit,
			AutoGenerated: true,
		})
		if err != nil {
			return created, fmt.Errorf("create auto entry for category %d: %w", cat.ID, err)
		}
		created = append(created, AutoCreateResult{CategoryID: cat.ID, EntryID: entry.ID})
	}

	if len(created) > 0 && a.stats != nil {
		a.stats.InvalidateAll()
	}
	a.logger.Info("Auto-create run finished",
		log.FieldMonth, month,
		log.FieldCount, len(created))
	return created, nil
}
