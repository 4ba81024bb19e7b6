// Package services provides business logic and orchestration on top of
// the persistence layer: category and entry CRUD, monthly auto-creation
// and dashboard statistics.
package services

import (
	"context"
	"errors"
	"fmt"

	"datatracker/internal/amqp"
	"datatracker/internal/backend"
	"datatracker/internal/core"
	"datatracker/internal/log"
)

// DuplicateSuffix is appended to the name of a duplicated category.
const DuplicateSuffix = " (Kopie)"

// ErrTypeImmutable is returned when an update tries to change a
// category's type. The type decides the aggregation rule, so changing it
// would reinterpret existing entries.
var ErrTypeImmutable = errors.New("category type cannot be changed")

// EventPublisher publishes change events for downstream consumers.
// The AMQP client implements it; a nil publisher disables events.
type EventPublisher interface {
	PublishChange(ctx context.Context, event *amqp.ChangeEvent) error
}

// StatsInvalidator drops cached statistics after mutations.
type StatsInvalidator interface {
	InvalidateCategory(categoryID int64)
	InvalidateAll()
}

// CategoryService orchestrates category operations.
type CategoryService struct {
	store  backend.Store
	events EventPublisher
	stats  StatsInvalidator
	logger *log.Logger
}

func NewCategoryService(store backend.Store, events EventPublisher, stats StatsInvalidator, logger *log.Logger) *CategoryService {
	return &CategoryService{
		store:  store,
		events: events,
		stats:  stats,
		logger: logger.WithComponent(log.ComponentCategory),
	}
}

// Create validates and stores a new category. Savings categories get the
// currency unit regardless of input.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Type == core.Sparen {
		c.Unit = core.SparenUnit
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.invalidateAll()
	s.publish(ctx, amqp.NewChangeEvent(amqp.EventCategoryCreated, created.ID, 0, ""))
	s.logger.Info("Category created",
		log.FieldCategoryID, created.ID,
		"name", created.Name,
		"type", created.Type)
	return created, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// Update applies changes to an existing category. The type cannot change
// once entries depend on its aggregation rule.
func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	existing, err := s.store.GetCategory(ctx, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if c.Type != existing.Type {
		return core.Category{}, ErrTypeImmutable
	}
	if c.Type == core.Sparen {
		c.Unit = core.SparenUnit
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}

	s.invalidateCategory(c.ID)
	s.publish(ctx, amqp.NewChangeEvent(amqp.EventCategoryUpdated, c.ID, 0, ""))
	return c, nil
}

// Delete removes a category and all of its entries.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}

	s.invalidateAll()
	s.publish(ctx, amqp.NewChangeEvent(amqp.EventCategoryDeleted, id, 0, ""))
	s.logger.Info("Category deleted", log.FieldCategoryID, id)
	return nil
}

// Duplicate copies a category together with all of its entries. The copy
// gets the original name with the duplicate suffix.
func (s *CategoryService) Duplicate(ctx context.Context, id int64) (core.Category, error) {
	original, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}

	duplicate, err := s.store.CreateCategory(ctx, core.Category{
		Name:       original.Name + DuplicateSuffix,
		Icon:       original.Icon,
		Type:       original.Type,
		Unit:       original.Unit,
		AutoCreate: original.AutoCreate,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("duplicate category: %w", err)
	}

	entries, err := s.store.ListEntries(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("list entries for duplicate: %w", err)
	}
	for _, e := range entries {
		_, err := s.store.CreateEntry(ctx, core.Entry{
			CategoryID:    duplicate.ID,
			Date:          e.Date,
			Value:         e.Value,
			Deposit:       e.Deposit,
			Comment:       e.Comment,
			AutoGenerated: e.AutoGenerated,
		})
		if err != nil {
			return core.Category{}, fmt.Errorf("copy entry %d: %w", e.ID, err)
		}
	}

	s.invalidateAll()
	s.publish(ctx, amqp.NewChangeEvent(amqp.EventCategoryCreated, duplicate.ID, 0, ""))
	s.logger.Info("Category duplicated",
		log.FieldCategoryID, id,
		"duplicate_id", duplicate.ID,
		log.FieldCount, len(entries))
	return duplicate, nil
}

func (s *CategoryService) publish(ctx context.Context, event *amqp.ChangeEvent) {
	if s.events == nil {
		return
	}
	// Fire and forget, a failed event never fails the request.
	if err := s.events.PublishChange(ctx, event); err != nil {
		s.logger.Error("Failed to publish change event",
			"kind", event.Kind,
			log.FieldError, err)
	}
}

func (s *CategoryService) invalidateCategory(id int64) {
	if s.stats != nil {
		s.stats.InvalidateCategory(id)
	}
}

func (s *CategoryService) invalidateAll() {
	if s.stats != nil {
		s.stats.InvalidateAll()
	}
}
