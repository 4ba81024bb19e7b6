// Package memory provides a mutex-guarded in-memory store with the same
// contract as the SQLite repository. It backs tests and the "memory"
// data backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"datatracker/internal/core"
	"datatracker/internal/storage"
)

type Store struct {
	mu           sync.RWMutex
	categories   map[int64]core.Category
	entries      map[int64]core.Entry
	nextCategory int64
	nextEntry    int64
}

func NewStore() *Store {
	return &Store{
		categories:   make(map[int64]core.Category),
		entries:      make(map[int64]core.Entry),
		nextCategory: 1,
		nextEntry:    1,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextCategory
	s.nextCategory++
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		ni, nj := strings.ToLower(categories[i].Name), strings.ToLower(categories[j].Name)
		if ni != nj {
			return ni < nj
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return fmt.Errorf("id %d: %w", c.ID, storage.ErrNotFound)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("id %d: %w", id, storage.ErrNotFound)
	}
	delete(s.categories, id)
	// Cascade, same as the SQLite foreign key.
	for entryID, e := range s.entries {
		if e.CategoryID == id {
			delete(s.entries, entryID)
		}
	}
	return nil
}

func (s *Store) CreateEntry(_ context.Context, e core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[e.CategoryID]; !ok {
		return core.Entry{}, fmt.Errorf("category %d: %w", e.CategoryID, storage.ErrNotFound)
	}
	e.ID = s.nextEntry
	s.nextEntry++
	e.Deposit = cloneDeposit(e.Deposit)
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) GetEntry(_ context.Context, id int64) (core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return core.Entry{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListEntries(_ context.Context, categoryID int64) ([]core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []core.Entry
	for _, e := range s.entries {
		if e.CategoryID == categoryID {
			entries = append(entries, e)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (s *Store) UpdateEntry(_ context.Context, e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[e.ID]
	if !ok {
		return fmt.Errorf("id %d: %w", e.ID, storage.ErrNotFound)
	}
	e.CategoryID = existing.CategoryID
	e.Deposit = cloneDeposit(e.Deposit)
	s.entries[e.ID] = e
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("id %d: %w", id, storage.ErrNotFound)
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) SearchEntries(_ context.Context, q storage.SearchQuery) ([]core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term := strings.ToLower(q.Term)
	var entries []core.Entry
	for _, e := range s.entries {
		if q.CategoryID != nil && e.CategoryID != *q.CategoryID {
			continue
		}
		if q.CategoryType != "" {
			cat, ok := s.categories[e.CategoryID]
			if !ok || string(cat.Type) != q.CategoryType {
				continue
			}
		}
		if term != "" && !strings.Contains(strings.ToLower(e.Comment), term) {
			continue
		}
		if q.DateFrom != "" && e.Date < q.DateFrom {
			continue
		}
		if q.DateTo != "" && e.Date > q.DateTo {
			continue
		}
		if q.ValueMin != nil && e.Value < *q.ValueMin {
			continue
		}
		if q.ValueMax != nil && e.Value > *q.ValueMax {
			continue
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	return entries, nil
}

func (s *Store) EntryExistsForMonth(_ context.Context, categoryID int64, month string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.CategoryID == categoryID && e.Date == month {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) LatestEntry(_ context.Context, categoryID int64) (core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest core.Entry
		found  bool
	)
	for _, e := range s.entries {
		if e.CategoryID != categoryID {
			continue
		}
		if !found || e.Date > latest.Date || (e.Date == latest.Date && e.ID > latest.ID) {
			latest = e
			found = true
		}
	}
	if !found {
		return core.Entry{}, storage.ErrNotFound
	}
	return latest, nil
}

func sortEntries(entries []core.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].ID < entries[j].ID
	})
}

func cloneDeposit(d *float64) *float64 {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
