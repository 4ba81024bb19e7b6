package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"datatracker/internal/amqp"
	"datatracker/internal/core"
	"datatracker/internal/log"
	"datatracker/internal/storage"
	"datatracker/internal/storage/memory"
)

func testLogger() *log.Logger {
	return log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
}

func dep(v float64) *float64 { return &v }

// eventRecorder captures published change events.
type eventRecorder struct {
	mu     sync.Mutex
	events []*amqp.ChangeEvent
	fail   bool
}

func (r *eventRecorder) PublishChange(_ context.Context, event *amqp.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broker unavailable")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func TestCategoryCreateForcesSparenUnit(t *testing.T) {
	svc := NewCategoryService(memory.NewStore(), nil, nil, testLogger())

	created, err := svc.Create(context.Background(), core.Category{
		Name: "Depot", Type: core.Sparen, Unit: "km",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Unit != core.SparenUnit {
		t.Fatalf("expected unit forced to %s, got %s", core.SparenUnit, created.Unit)
	}
}

func TestCategoryCreateRejectsInvalid(t *testing.T) {
	svc := NewCategoryService(memory.NewStore(), nil, nil, testLogger())

	if _, err := svc.Create(context.Background(), core.Category{Type: core.Normal, Unit: "km"}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := svc.Create(context.Background(), core.Category{Name: "x", Type: "weekly", Unit: "km"}); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestCategoryUpdateRejectsTypeChange(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(memory.NewStore(), nil, nil, testLogger())

	created, err := svc.Create(ctx, core.Category{Name: "Laufen", Type: core.Normal, Unit: "km"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Type = core.Sparen
	created.Unit = core.SparenUnit
	if _, err := svc.Update(ctx, created); err == nil {
		t.Fatalf("expected type change to be rejected")
	}
}

func TestCategoryDuplicateCopiesEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	recorder := &eventRecorder{}
	svc := NewCategoryService(store, recorder, nil, testLogger())

	original, err := svc.Create(ctx, core.Category{Name: "Depot", Type: core.Sparen, Unit: core.SparenUnit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, e := range []core.Entry{
		{CategoryID: original.ID, Date: "2024-01", Value: 100, Deposit: dep(100), Comment: "Start"},
		{CategoryID: original.ID, Date: "2024-02", Value: 130, Deposit: dep(20)},
	} {
		if _, err := store.CreateEntry(ctx, e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	duplicate, err := svc.Duplicate(ctx, original.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if duplicate.Name != "Depot"+DuplicateSuffix {
		t.Fatalf("expected suffixed name, got %s", duplicate.Name)
	}
	if duplicate.ID == original.ID {
		t.Fatalf("duplicate must get its own id")
	}

	copied, err := store.ListEntries(ctx, duplicate.ID)
	if err != nil {
		t.Fatalf("list copied entries: %v", err)
	}
	if len(copied) != 2 {
		t.Fatalf("expected 2 copied entries, got %d", len(copied))
	}
	if copied[0].Date != "2024-01" || copied[0].DepositValue() != 100 || copied[0].Comment != "Start" {
		t.Fatalf("copy lost fields: %+v", copied[0])
	}

	originals, _ := store.ListEntries(ctx, original.ID)
	if len(originals) != 2 {
		t.Fatalf("original entries must be untouched, got %d", len(originals))
	}
}

func TestCategoryDuplicateMissing(t *testing.T) {
	svc := NewCategoryService(memory.NewStore(), nil, nil, testLogger())
	if _, err := svc.Duplicate(context.Background(), 42); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryEventsPublished(t *testing.T) {
	ctx := context.Background()
	recorder := &eventRecorder{}
	svc := NewCategoryService(memory.NewStore(), recorder, nil, testLogger())

	created, err := svc.Create(ctx, core.Category{Name: "Laufen", Type: core.Normal, Unit: "km"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created.Name = "Joggen"
	if _, err := svc.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{amqp.EventCategoryCreated, amqp.EventCategoryUpdated, amqp.EventCategoryDeleted}
	got := recorder.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestCategoryPublishFailureDoesNotFailRequest(t *testing.T) {
	recorder := &eventRecorder{fail: true}
	svc := NewCategoryService(memory.NewStore(), recorder, nil, testLogger())

	if _, err := svc.Create(context.Background(), core.Category{Name: "Laufen", Type: core.Normal, Unit: "km"}); err != nil {
		t.Fatalf("create must succeed despite broker failure: %v", err)
	}
}
