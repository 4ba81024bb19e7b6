package services

import (
	"context"
	"fmt"

	"datatracker/internal/amqp"
	"datatracker/internal/backend"
	"datatracker/internal/core"
	"datatracker/internal/log"
	"datatracker/internal/storage"
)

// EntryService orchestrates entry operations within a category.
type EntryService struct {
	store  backend.Store
	events EventPublisher
	stats  StatsInvalidator
	logger *log.Logger
}

func NewEntryService(store backend.Store, events EventPublisher, stats StatsInvalidator, logger *log.Logger) *EntryService {
	return &EntryService{
		store:  store,
		events: events,
		stats:  stats,
		logger: logger.WithComponent(log.ComponentEntry),
	}
}

// Create validates and stores a new entry under the given category.
func (s *EntryService) Create(ctx context.Context, categoryID int64, e core.Entry) (core.Entry, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return core.Entry{}, err
	}
	e.CategoryID = categoryID
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	s.invalidate(categoryID)
	s.publish(ctx, amqp.NewChangeEvent(amqp.EventEntryCreated, categoryID, created.ID, created.Date))
	s.logger.Info("Entry created",
		log.FieldEntryID, created.ID,
		log.FieldCategoryID, categoryID,
		log.FieldMonth, created.Date,
		log.FieldValue, created.Value)
	return created, nil
}

// List returns a category's entries in chronological order.
func (s *EntryService) List(ctx context.Context, categoryID int64) ([]core.Entry, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, categoryID)
}

// Update modifies an entry. The entry must belong to the given category.
func (s *EntryService) Update(ctx context.Context, categoryID, entryID int64, e core.Entry) (core.Entry, error) {
	existing, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return core.Entry{}, err
	}
	if existing.CategoryID != categoryID {
		return core.Entry{}, fmt.Errorf("entry %d: %w", entryID, storage.ErrNotFound)
	}

	e.ID = entryID
	e.CategoryID = categoryID
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	if err := s.store.UpdateEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}

	s.invalidate(categoryID)
	s.publish(ctx, amqp.NewChangeEvent(amqp.EventEntryUpdated, categoryID, entryID, e.Date))
	return e, nil
}

// Delete removes an entry. The entry must belong to the given category.
func (s *EntryService) Delete(ctx context.Context, categoryID, entryID int64) error {
	existing, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if existing.CategoryID != categoryID {
		return fmt.Errorf("entry %d: %w", entryID, storage.ErrNotFound)
	}

	if err := s.store.DeleteEntry(ctx, entryID); err != nil {
		return err
	}

	s.invalidate(categoryID)
	s.publish(ctx, amqp.NewChangeEvent(amqp.EventEntryDeleted, categoryID, entryID, existing.Date))
	s.logger.Info("Entry deleted",
		log.FieldEntryID, entryID,
		log.FieldCategoryID, categoryID)
	return nil
}

// Search filters entries across one or all categories.
func (s *EntryService) Search(ctx context.Context, q storage.SearchQuery) ([]core.Entry, error) {
	if q.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, *q.CategoryID); err != nil {
			return nil, err
		}
	}
	entries, err := s.store.SearchEntries(ctx, q)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Entry search",
		log.FieldOperation, log.OpSearch,
		log.FieldCount, len(entries))
	return entries, nil
}

func (s *EntryService) publish(ctx context.Context, event *amqp.ChangeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishChange(ctx, event); err != nil {
		s.logger.Error("Failed to publish change event",
			"kind", event.Kind,
			log.FieldError, err)
	}
}

func (s *EntryService) invalidate(categoryID int64) {
	if s.stats != nil {
		s.stats.InvalidateCategory(categoryID)
	}
}
