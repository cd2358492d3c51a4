// Package inventory holds the rules for stock status changes.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

// ErrNotNeeded is returned when toggling an archived item. Restore it with
// an update that sets a concrete stock status.
var ErrNotNeeded = errors.New("item is marked not needed; set a stock status to restore it")

// Enqueuer puts an out-of-stock item on the open shopping list.
type Enqueuer interface {
	Enqueue(ctx context.Context, item *model.InventoryItem) (*model.ShoppingListItem, error)
}

// Recorder counts status changes.
type Recorder interface {
	InventoryStatusChanged(status string)
}

type Service struct {
	items    repository.Inventory
	shopping Enqueuer
	recorder Recorder
	logger   *slog.Logger
}

func NewService(items repository.Inventory, shopping Enqueuer, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{items: items, shopping: shopping, recorder: recorder, logger: logger}
}

// List returns inventory ordered by status and name. NOT_NEEDED items are
// left out unless includeArchived is set.
func (s *Service) List(ctx context.Context, includeArchived bool) ([]model.InventoryItem, error) {
	all, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.InventoryItem, 0, len(all))
	for _, it := range all {
		if it.Status == model.InventoryNotNeeded && !includeArchived {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.InventoryItem, error) {
	return s.items.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in model.NewInventoryItem) (*model.InventoryItem, error) {
	if in.Status == "" {
		in.Status = model.InventoryOutOfStock
	}
	item, err := s.items.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if item.Status == model.InventoryOutOfStock {
		s.enqueue(ctx, item)
	}
	return item, nil
}

// Update applies a partial update. Moving an item to OUT_OF_STOCK puts it
// on the open shopping list.
func (s *Service) Update(ctx context.Context, id string, patch model.InventoryPatch) (*model.InventoryItem, error) {
	before, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := s.items.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if item.Status != before.Status {
		s.changed(ctx, item)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.items.Delete(ctx, id)
}

// Toggle flips an item between IN_STOCK and OUT_OF_STOCK. current is the
// status the caller last saw; when empty the stored status is used.
func (s *Service) Toggle(ctx context.Context, id string, current model.InventoryStatus) (*model.InventoryItem, error) {
	stored, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == "" {
		current = stored.Status
	}
	if current == model.InventoryNotNeeded || stored.Status == model.InventoryNotNeeded {
		return nil, ErrNotNeeded
	}

	next := model.InventoryOutOfStock
	if current == model.InventoryOutOfStock {
		next = model.InventoryInStock
	}

	item, err := s.items.Update(ctx, id, model.InventoryPatch{Status: &next})
	if err != nil {
		return nil, fmt.Errorf("toggle inventory item: %w", err)
	}
	s.changed(ctx, item)
	return item, nil
}

// MarkNotNeeded archives an item. Calling it again changes nothing.
func (s *Service) MarkNotNeeded(ctx context.Context, id string) (*model.InventoryItem, error) {
	stored, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.Status == model.InventoryNotNeeded {
		return stored, nil
	}
	status := model.InventoryNotNeeded
	item, err := s.items.Update(ctx, id, model.InventoryPatch{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("mark not needed: %w", err)
	}
	s.changed(ctx, item)
	return item, nil
}

func (s *Service) changed(ctx context.Context, item *model.InventoryItem) {
	if s.recorder != nil {
		s.recorder.InventoryStatusChanged(string(item.Status))
	}
	if item.Status == model.InventoryOutOfStock {
		s.enqueue(ctx, item)
	}
}

// enqueue is best effort: the status change already happened and the item
// is still reachable through the virtual draft or a later toggle.
func (s *Service) enqueue(ctx context.Context, item *model.InventoryItem) {
	if s.shopping == nil {
		return
	}
	if _, err := s.shopping.Enqueue(ctx, item); err != nil {
		s.logger.Error("failed to add item to shopping list", "inventory_id", item.ID, "error", err)
	}
}
