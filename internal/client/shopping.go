package client

import (
	"context"
	"net/http"
	"slices"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/optimistic"
)

// AddItemOptions links a new line item. With AddToInventory and no
// InventoryItemID the server also tracks the item in inventory.
type AddItemOptions struct {
	InventoryItemID string
	HomeAreaID      string
	AddToInventory  bool
}

func (c *Client) fetchActive(ctx context.Context) (ActiveList, error) {
	var list ActiveList
	err := c.do(ctx, http.MethodGet, "/api/shopping/active", nil, &list)
	return list, err
}

// GetActiveList returns the cached active shopping list, which may be the
// virtual draft.
func (c *Client) GetActiveList(ctx context.Context) (ActiveList, error) {
	return c.Active.Get(ctx, c.fetchActive)
}

func (c *Client) AddShoppingItem(ctx context.Context, listID, name string, opts AddItemOptions) (*model.ShoppingListItem, error) {
	in := map[string]any{
		"name":              name,
		"inventory_item_id": opts.InventoryItemID,
		"home_area_id":      opts.HomeAreaID,
		"add_to_inventory":  opts.AddToInventory,
	}
	var item model.ShoppingListItem
	if err := c.do(ctx, http.MethodPost, "/api/shopping/lists/"+listID+"/items", in, &item); err != nil {
		return nil, err
	}
	c.Active.Invalidate()
	if opts.AddToInventory {
		c.Inventory.Invalidate()
	}
	return &item, nil
}

// RemoveShoppingItem drops the row from the cached list right away.
func (c *Client) RemoveShoppingItem(ctx context.Context, listID, itemID string) error {
	return optimistic.Do(ctx, &c.Active, optimistic.Mutation[ActiveList]{
		Apply: func(l ActiveList) ActiveList {
			l.Items = slices.DeleteFunc(slices.Clone(l.Items), func(it model.ShoppingListItem) bool {
				return it.ID == itemID
			})
			return l
		},
		Request: func(ctx context.Context) error {
			return c.do(ctx, http.MethodDelete, "/api/shopping/lists/"+listID+"/items/"+itemID, nil, nil)
		},
		Refetch: c.fetchActive,
	})
}

func (c *Client) SetItemChecked(ctx context.Context, itemID string, checked bool) (*model.ShoppingListItem, error) {
	var item model.ShoppingListItem
	err := optimistic.Do(ctx, &c.Active, optimistic.Mutation[ActiveList]{
		Apply: func(l ActiveList) ActiveList {
			l.Items = slices.Clone(l.Items)
			for i := range l.Items {
				if l.Items[i].ID == itemID {
					l.Items[i].Checked = checked
				}
			}
			return l
		},
		Request: func(ctx context.Context) error {
			return c.do(ctx, http.MethodPost, "/api/shopping/items/"+itemID+"/checked",
				map[string]bool{"checked": checked}, &item)
		},
		Refetch: c.fetchActive,
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) transition(ctx context.Context, listID, action string) (*model.ShoppingList, error) {
	var list model.ShoppingList
	if err := c.do(ctx, http.MethodPost, "/api/shopping/lists/"+listID+"/"+action, nil, &list); err != nil {
		return nil, err
	}
	c.Active.Invalidate()
	return &list, nil
}

func (c *Client) StartTrip(ctx context.Context, listID string) (*model.ShoppingList, error) {
	return c.transition(ctx, listID, "start")
}

// CompleteTrip restocks checked items on the server, so the inventory
// cache is dropped too.
func (c *Client) CompleteTrip(ctx context.Context, listID string) (*model.ShoppingList, error) {
	list, err := c.transition(ctx, listID, "complete")
	if err != nil {
		return nil, err
	}
	c.Inventory.Invalidate()
	return list, nil
}

func (c *Client) CancelTrip(ctx context.Context, listID string) (*model.ShoppingList, error) {
	return c.transition(ctx, listID, "cancel")
}

func (c *Client) AbandonDraft(ctx context.Context, listID string) error {
	if err := c.do(ctx, http.MethodPost, "/api/shopping/lists/"+listID+"/abandon", nil, nil); err != nil {
		return err
	}
	c.Active.Invalidate()
	return nil
}

func (c *Client) ShoppingHistory(ctx context.Context) ([]model.ShoppingList, error) {
	var lists []model.ShoppingList
	err := c.do(ctx, http.MethodGet, "/api/shopping/history", nil, &lists)
	return lists, err
}
