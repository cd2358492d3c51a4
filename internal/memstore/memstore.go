// Package memstore is the in-memory implementation of the repository ports.
// It backs the "memory" database backend and tests that do not need SQLite.
package memstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type row struct {
	id        string
	seq       int
	createdAt time.Time
	updatedAt time.Time
	deleted   bool
}

type areaRow struct {
	row
	name string
}

type inventoryRow struct {
	row
	name   string
	status model.InventoryStatus
	areaID string
}

type taskRow struct {
	row
	title       string
	description string
	completed   bool
	completedAt *time.Time
	areaID      string
}

type noteRow struct {
	row
	title   string
	content string
	areaID  string
}

type listRow struct {
	row
	status      model.ShoppingListStatus
	startedAt   *time.Time
	completedAt *time.Time
}

type listItemRow struct {
	row
	listID      string
	name        string
	checked     bool
	inventoryID string
	areaID      string
}

// Store holds every table behind a single mutex.
type Store struct {
	mu  sync.Mutex
	seq int

	areas     map[string]*areaRow
	inventory map[string]*inventoryRow
	tasks     map[string]*taskRow
	notes     map[string]*noteRow
	lists     map[string]*listRow
	listItems map[string]*listItemRow

	now func() time.Time
}

func New() *Store {
	s := &Store{now: func() time.Time { return time.Now().UTC() }}
	s.reset()
	return s
}

// Repositories returns the store as a set of repository ports. Backups are
// not kept in memory.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		HomeAreas:     &homeAreas{s},
		Inventory:     &inventory{s},
		Tasks:         &tasks{s},
		Notes:         &notes{s},
		ShoppingLists: &shoppingLists{s},
	}
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) reset() {
	s.seq = 0
	s.areas = map[string]*areaRow{}
	s.inventory = map[string]*inventoryRow{}
	s.tasks = map[string]*taskRow{}
	s.notes = map[string]*noteRow{}
	s.lists = map[string]*listRow{}
	s.listItems = map[string]*listItemRow{}
}

func (s *Store) newRow() row {
	s.seq++
	ts := s.now()
	return row{id: uuid.NewString(), seq: s.seq, createdAt: ts, updatedAt: ts}
}

func (s *Store) touch(r *row) {
	r.updatedAt = s.now()
}

func (s *Store) softDelete(r *row) {
	r.deleted = true
	r.updatedAt = s.now()
}

// sortedLive returns the live rows of m ordered by insertion.
func sortedLive[T any](m map[string]*T, get func(*T) *row) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		if !get(v).deleted {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return get(out[i]).seq < get(out[j]).seq })
	return out
}

func (s *Store) area(id string) *model.HomeArea {
	if id == "" {
		return nil
	}
	a, ok := s.areas[id]
	if !ok || a.deleted {
		return nil
	}
	return &model.HomeArea{ID: a.id, Name: a.name, CreatedAt: a.createdAt, UpdatedAt: a.updatedAt}
}

func (s *Store) checkArea(id string) error {
	if id != "" && s.area(id) == nil {
		return fmt.Errorf("home area %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (s *Store) inventoryItem(r *inventoryRow) *model.InventoryItem {
	return &model.InventoryItem{
		ID:        r.id,
		Name:      r.name,
		Status:    r.status,
		HomeArea:  s.area(r.areaID),
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
}

func (s *Store) liveInventory(id string) *inventoryRow {
	r, ok := s.inventory[id]
	if !ok || r.deleted {
		return nil
	}
	return r
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
