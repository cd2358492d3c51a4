package client

import (
	"context"
	"net/http"
	"slices"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/optimistic"
)

// InventoryUpdate is a partial update. Nil fields are left alone; an
// empty HomeAreaID clears the area.
type InventoryUpdate struct {
	Name       *string                `json:"name,omitempty"`
	Status     *model.InventoryStatus `json:"status,omitempty"`
	HomeAreaID *string                `json:"home_area_id,omitempty"`
}

func (c *Client) fetchInventory(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := c.do(ctx, http.MethodGet, "/api/inventory", nil, &items)
	return items, err
}

// ListInventory returns the cached inventory, loading it on first use.
// Archived items are never cached; ask for them with includeArchived.
func (c *Client) ListInventory(ctx context.Context, includeArchived bool) ([]model.InventoryItem, error) {
	if !includeArchived {
		return c.Inventory.Get(ctx, c.fetchInventory)
	}
	var items []model.InventoryItem
	err := c.do(ctx, http.MethodGet, "/api/inventory?include_archived=true", nil, &items)
	return items, err
}

func (c *Client) CreateInventoryItem(ctx context.Context, name string, status model.InventoryStatus, homeAreaID string) (*model.InventoryItem, error) {
	in := map[string]string{"name": name, "status": string(status), "home_area_id": homeAreaID}
	var item model.InventoryItem
	if err := c.do(ctx, http.MethodPost, "/api/inventory", in, &item); err != nil {
		return nil, err
	}
	c.inventoryChanged()
	return &item, nil
}

func (c *Client) UpdateInventoryItem(ctx context.Context, id string, u InventoryUpdate) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := c.do(ctx, http.MethodPatch, "/api/inventory/"+id, u, &item); err != nil {
		return nil, err
	}
	c.inventoryChanged()
	return &item, nil
}

func (c *Client) DeleteInventoryItem(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/inventory/"+id, nil, nil); err != nil {
		return err
	}
	c.inventoryChanged()
	return nil
}

// inventoryChanged drops caches an inventory write can affect. Status
// changes feed the active shopping list.
func (c *Client) inventoryChanged() {
	c.Inventory.Invalidate()
	c.Active.Invalidate()
}

func nextStatus(s model.InventoryStatus) model.InventoryStatus {
	if s == model.InventoryOutOfStock {
		return model.InventoryInStock
	}
	return model.InventoryOutOfStock
}

// ToggleInventoryStatus flips id between IN_STOCK and OUT_OF_STOCK. current
// is the status the caller sees; the cache shows the flipped status until
// the server answers.
func (c *Client) ToggleInventoryStatus(ctx context.Context, id string, current model.InventoryStatus) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := optimistic.Do(ctx, &c.Inventory, optimistic.Mutation[[]model.InventoryItem]{
		Apply: func(items []model.InventoryItem) []model.InventoryItem {
			out := slices.Clone(items)
			for i := range out {
				if out[i].ID == id {
					out[i].Status = nextStatus(current)
				}
			}
			return out
		},
		Request: func(ctx context.Context) error {
			return c.do(ctx, http.MethodPost, "/api/inventory/"+id+"/toggle",
				map[string]string{"current_status": string(current)}, &item)
		},
		Refetch: c.fetchInventory,
	})
	if err != nil {
		return nil, err
	}
	c.Active.Invalidate()
	return &item, nil
}

func (c *Client) MarkNotNeeded(ctx context.Context, id string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := c.do(ctx, http.MethodPost, "/api/inventory/"+id+"/not-needed", nil, &item); err != nil {
		return nil, err
	}
	c.inventoryChanged()
	return &item, nil
}
