package memstore

import (
	"context"
	"sort"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type inventory struct{ s *Store }

func inventoryRowOf(r *inventoryRow) *row { return &r.row }

func (i *inventory) list(match func(*inventoryRow) bool) []model.InventoryItem {
	var out []model.InventoryItem
	for _, r := range sortedLive(i.s.inventory, inventoryRowOf) {
		if match(r) {
			out = append(out, *i.s.inventoryItem(r))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Status != out[b].Status {
			return out[a].Status < out[b].Status
		}
		return out[a].Name < out[b].Name
	})
	return out
}

func (i *inventory) List(ctx context.Context) ([]model.InventoryItem, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	return i.list(func(*inventoryRow) bool { return true }), nil
}

func (i *inventory) ListByStatus(ctx context.Context, status model.InventoryStatus) ([]model.InventoryItem, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	return i.list(func(r *inventoryRow) bool { return r.status == status }), nil
}

func (i *inventory) Get(ctx context.Context, id string) (*model.InventoryItem, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	r := i.s.liveInventory(id)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	return i.s.inventoryItem(r), nil
}

func (i *inventory) Create(ctx context.Context, in model.NewInventoryItem) (*model.InventoryItem, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	if err := i.s.checkArea(in.HomeAreaID); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.InventoryOutOfStock
	}
	r := &inventoryRow{row: i.s.newRow(), name: in.Name, status: in.Status, areaID: in.HomeAreaID}
	i.s.inventory[r.id] = r
	return i.s.inventoryItem(r), nil
}

func (i *inventory) Update(ctx context.Context, id string, patch model.InventoryPatch) (*model.InventoryItem, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	r := i.s.liveInventory(id)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	if patch.HomeAreaID != nil {
		if err := i.s.checkArea(*patch.HomeAreaID); err != nil {
			return nil, err
		}
		r.areaID = *patch.HomeAreaID
	}
	if patch.Name != nil {
		r.name = *patch.Name
	}
	if patch.Status != nil {
		r.status = *patch.Status
	}
	i.s.touch(&r.row)
	return i.s.inventoryItem(r), nil
}

func (i *inventory) Delete(ctx context.Context, id string) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	r := i.s.liveInventory(id)
	if r == nil {
		return repository.ErrNotFound
	}
	i.s.softDelete(&r.row)
	return nil
}

func (i *inventory) CountByStatus(ctx context.Context, status model.InventoryStatus) (int, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	return len(i.list(func(r *inventoryRow) bool { return r.status == status })), nil
}
