package services

import (
	"context"
	"errors"
	"testing"

	"datatracker/internal/amqp"
	"datatracker/internal/core"
	"datatracker/internal/storage"
	"datatracker/internal/storage/memory"
)

func newEntryFixture(t *testing.T) (*memory.Store, *EntryService, core.Category, *eventRecorder) {
	t.Helper()
	store := memory.NewStore()
	recorder := &eventRecorder{}
	svc := NewEntryService(store, recorder, nil, testLogger())
	cat, err := store.CreateCategory(context.Background(), core.Category{
		Name: "Laufen", Type: core.Normal, Unit: "km",
	})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return store, svc, cat, recorder
}

func TestEntryCreate(t *testing.T) {
	ctx := context.Background()
	_, svc, cat, recorder := newEntryFixture(t)

	created, err := svc.Create(ctx, cat.ID, core.Entry{Date: "2024-07", Value: 42.5, Comment: "Halbmarathon"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.CategoryID != cat.ID {
		t.Fatalf("unexpected created entry: %+v", created)
	}

	kinds := recorder.kinds()
	if len(kinds) != 1 || kinds[0] != amqp.EventEntryCreated {
		t.Fatalf("expected entry.created event, got %v", kinds)
	}
}

func TestEntryCreateUnknownCategory(t *testing.T) {
	_, svc, _, _ := newEntryFixture(t)
	if _, err := svc.Create(context.Background(), 99, core.Entry{Date: "2024-07"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEntryCreateInvalidDate(t *testing.T) {
	_, svc, cat, _ := newEntryFixture(t)
	if _, err := svc.Create(context.Background(), cat.ID, core.Entry{Date: "07/2024"}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestEntryUpdateOwnershipCheck(t *testing.T) {
	ctx := context.Background()
	store, svc, cat, _ := newEntryFixture(t)

	other, err := store.CreateCategory(ctx, core.Category{Name: "Depot", Type: core.Sparen, Unit: core.SparenUnit})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	entry, err := svc.Create(ctx, cat.ID, core.Entry{Date: "2024-07", Value: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Addressing the entry through the wrong category must not work.
	if _, err := svc.Update(ctx, other.ID, entry.ID, core.Entry{Date: "2024-08", Value: 2}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, other.ID, entry.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated, err := svc.Update(ctx, cat.ID, entry.ID, core.Entry{Date: "2024-08", Value: 2})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Date != "2024-08" || updated.Value != 2 {
		t.Fatalf("unexpected updated entry: %+v", updated)
	}
}

func TestEntryDelete(t *testing.T) {
	ctx := context.Background()
	store, svc, cat, recorder := newEntryFixture(t)

	entry, err := svc.Create(ctx, cat.ID, core.Entry{Date: "2024-07", Value: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, cat.ID, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetEntry(ctx, entry.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("entry should be gone, got %v", err)
	}

	kinds := recorder.kinds()
	if kinds[len(kinds)-1] != amqp.EventEntryDeleted {
		t.Fatalf("expected entry.deleted event, got %v", kinds)
	}
}

func TestEntrySearchScopedToCategory(t *testing.T) {
	ctx := context.Background()
	store, svc, cat, _ := newEntryFixture(t)

	other, _ := store.CreateCategory(ctx, core.Category{Name: "Depot", Type: core.Sparen, Unit: core.SparenUnit})
	seed := []core.Entry{
		{CategoryID: cat.ID, Date: "2024-01", Value: 10, Comment: "Winterlauf"},
		{CategoryID: cat.ID, Date: "2024-02", Value: 12},
		{CategoryID: other.ID, Date: "2024-01", Value: 1000, Comment: "winterbonus"},
	}
	for _, e := range seed {
		if _, err := store.CreateEntry(ctx, e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	got, err := svc.Search(ctx, storage.SearchQuery{CategoryID: &cat.ID, Term: "winter"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Comment != "Winterlauf" {
		t.Fatalf("expected only the category's match, got %+v", got)
	}

	unknown := int64(99)
	if _, err := svc.Search(ctx, storage.SearchQuery{CategoryID: &unknown}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown category, got %v", err)
	}
}
