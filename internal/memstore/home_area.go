package memstore

import (
	"context"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type homeAreas struct{ s *Store }

func areaRowOf(r *areaRow) *row { return &r.row }

func (h *homeAreas) List(ctx context.Context) ([]model.HomeArea, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	var out []model.HomeArea
	for _, r := range sortedLive(h.s.areas, areaRowOf) {
		out = append(out, *h.s.area(r.id))
	}
	return out, nil
}

func (h *homeAreas) Get(ctx context.Context, id string) (*model.HomeArea, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	a := h.s.area(id)
	if a == nil {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (h *homeAreas) Create(ctx context.Context, name string) (*model.HomeArea, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	r := &areaRow{row: h.s.newRow(), name: name}
	h.s.areas[r.id] = r
	return h.s.area(r.id), nil
}

func (h *homeAreas) Update(ctx context.Context, id, name string) (*model.HomeArea, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	r, ok := h.s.areas[id]
	if !ok || r.deleted {
		return nil, repository.ErrNotFound
	}
	r.name = name
	h.s.touch(&r.row)
	return h.s.area(id), nil
}

func (h *homeAreas) Delete(ctx context.Context, id string) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	r, ok := h.s.areas[id]
	if !ok || r.deleted {
		return repository.ErrNotFound
	}
	h.s.softDelete(&r.row)

	for _, it := range h.s.inventory {
		if it.areaID == id {
			it.areaID = ""
		}
	}
	for _, t := range h.s.tasks {
		if t.areaID == id {
			t.areaID = ""
		}
	}
	for _, n := range h.s.notes {
		if n.areaID == id {
			n.areaID = ""
		}
	}
	for _, li := range h.s.listItems {
		if li.areaID == id {
			li.areaID = ""
		}
	}
	return nil
}

func (h *homeAreas) Count(ctx context.Context) (int, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return len(sortedLive(h.s.areas, areaRowOf)), nil
}
