// Package shopping implements the shopping list lifecycle: the virtual
// draft, its materialization into a persisted list, trip transitions and
// the inventory side effects of completing a trip.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

// Recorder counts lifecycle transitions.
type Recorder interface {
	ShoppingTransition(transition string)
}

type Service struct {
	lists     repository.ShoppingLists
	inventory repository.Inventory
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(lists repository.ShoppingLists, inventory repository.Inventory, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{
		lists:     lists,
		inventory: inventory,
		recorder:  recorder,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddItemInput describes a new line item. When AddToInventory is set and
// InventoryItemID is empty, a matching OUT_OF_STOCK inventory item is
// created and linked.
type AddItemInput struct {
	Name            string
	InventoryItemID string
	HomeAreaID      string
	AddToInventory  bool
}

func (s *Service) record(transition string) {
	if s.recorder != nil {
		s.recorder.ShoppingTransition(transition)
	}
}

// ActiveList returns the open persisted list, or the virtual draft built
// from out-of-stock inventory when no list is open.
func (s *Service) ActiveList(ctx context.Context) (model.ActiveList, error) {
	list, err := s.lists.FindOpen(ctx)
	if err == nil {
		return model.PersistedList{List: list}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.virtualDraft(ctx)
}

func (s *Service) virtualDraft(ctx context.Context) (model.VirtualDraft, error) {
	items, err := s.inventory.ListByStatus(ctx, model.InventoryOutOfStock)
	if err != nil {
		return model.VirtualDraft{}, fmt.Errorf("load out of stock items: %w", err)
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	return model.VirtualDraft{Items: items}, nil
}

// materialize persists the virtual draft, leaving out the inventory item
// named by exclude. It returns nil when there is nothing to persist and
// allowEmpty is false. If another request opened a list first, that list
// is returned instead.
func (s *Service) materialize(ctx context.Context, exclude string, allowEmpty bool) (*model.ShoppingList, error) {
	draft, err := s.virtualDraft(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]model.NewShoppingListItem, 0, len(draft.Items))
	for _, inv := range draft.Items {
		if inv.ID == exclude {
			continue
		}
		items = append(items, model.NewShoppingListItem{
			Name:            inv.Name,
			InventoryItemID: inv.ID,
			HomeAreaID:      inv.HomeAreaID(),
		})
	}
	if len(items) == 0 && !allowEmpty {
		return nil, nil
	}

	list, err := s.lists.CreateDraft(ctx, items)
	if errors.Is(err, repository.ErrOpenListExists) {
		s.logger.Info("open list appeared during materialization, using it")
		return s.lists.FindOpen(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("materialize draft: %w", err)
	}
	s.record("materialize")
	s.logger.Info("virtual draft materialized", "list_id", list.ID, "items", len(list.Items))
	return list, nil
}

// get loads a persisted list, mapping a missing row to ErrListNotFound.
func (s *Service) get(ctx context.Context, op, id string) (*model.ShoppingList, error) {
	list, err := s.lists.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, rule(op, ErrListNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	return list, nil
}

func (s *Service) AddItem(ctx context.Context, ref ListRef, in AddItemInput) (*model.ShoppingListItem, error) {
	if in.InventoryItemID != "" {
		inv, err := s.inventory.Get(ctx, in.InventoryItemID)
		if err != nil {
			return nil, fmt.Errorf("get inventory item: %w", err)
		}
		if in.HomeAreaID == "" {
			in.HomeAreaID = inv.HomeAreaID()
		}
	} else if in.AddToInventory {
		inv, err := s.inventory.Create(ctx, model.NewInventoryItem{
			Name:       in.Name,
			Status:     model.InventoryOutOfStock,
			HomeAreaID: in.HomeAreaID,
		})
		if err != nil {
			return nil, fmt.Errorf("track item in inventory: %w", err)
		}
		in.InventoryItemID = inv.ID
	}

	var list *model.ShoppingList
	var err error
	if ref.IsVirtual() {
		list, err = s.materialize(ctx, "", true)
	} else {
		list, err = s.get(ctx, "add item", ref.ID())
	}
	if err != nil {
		return nil, err
	}
	if !list.Status.Open() {
		return nil, rule("add item", ErrListClosed)
	}

	if in.InventoryItemID != "" {
		if existing := list.ItemForInventory(in.InventoryItemID); existing != nil {
			return existing, nil
		}
	}

	item, err := s.lists.AddItem(ctx, list.ID, model.NewShoppingListItem{
		Name:            in.Name,
		InventoryItemID: in.InventoryItemID,
		HomeAreaID:      in.HomeAreaID,
	})
	if err != nil {
		return nil, fmt.Errorf("add shopping item: %w", err)
	}
	return item, nil
}

// RemoveItem removes a line item and returns the resulting active list.
// Removing the last entry of the virtual draft persists nothing and yields
// an empty virtual draft.
func (s *Service) RemoveItem(ctx context.Context, listRef ListRef, itemRef ItemRef) (model.ActiveList, error) {
	var list *model.ShoppingList
	var err error
	if listRef.IsVirtual() {
		if !itemRef.IsVirtual() {
			return nil, rule("remove item", ErrItemNotFound)
		}
		list, err = s.materialize(ctx, itemRef.InventoryID(), false)
		if err != nil {
			return nil, err
		}
		if list == nil {
			return model.VirtualDraft{Items: []model.InventoryItem{}}, nil
		}
		// A concurrently opened list may still hold the excluded entry.
		if it := list.ItemForInventory(itemRef.InventoryID()); it == nil {
			return model.PersistedList{List: list}, nil
		}
	} else {
		list, err = s.get(ctx, "remove item", listRef.ID())
		if err != nil {
			return nil, err
		}
	}
	if !list.Status.Open() {
		return nil, rule("remove item", ErrListClosed)
	}

	itemID, err := s.lineItemID(list, itemRef)
	if err != nil {
		return nil, err
	}
	if err := s.lists.RemoveItem(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, rule("remove item", ErrItemNotFound)
		}
		return nil, fmt.Errorf("remove shopping item: %w", err)
	}

	list, err = s.get(ctx, "remove item", list.ID)
	if err != nil {
		return nil, err
	}
	return model.PersistedList{List: list}, nil
}

func (s *Service) lineItemID(list *model.ShoppingList, ref ItemRef) (string, error) {
	if ref.IsVirtual() {
		if it := list.ItemForInventory(ref.InventoryID()); it != nil {
			return it.ID, nil
		}
		return "", rule("remove item", ErrItemNotFound)
	}
	for _, it := range list.Items {
		if it.ID == ref.ID() {
			return it.ID, nil
		}
	}
	return "", rule("remove item", ErrItemNotFound)
}

func (s *Service) SetItemChecked(ctx context.Context, itemID string, checked bool) (*model.ShoppingListItem, error) {
	item, err := s.lists.SetItemChecked(ctx, itemID, checked)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, rule("check item", ErrItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("check shopping item: %w", err)
	}
	return item, nil
}

// StartTrip moves a draft to ACTIVE. Starting from the virtual draft
// persists it first.
func (s *Service) StartTrip(ctx context.Context, ref ListRef) (*model.ShoppingList, error) {
	var list *model.ShoppingList
	var err error
	if ref.IsVirtual() {
		list, err = s.materialize(ctx, "", false)
		if err != nil {
			return nil, err
		}
		if list == nil {
			return nil, rule("start trip", ErrEmptyList)
		}
	} else {
		list, err = s.get(ctx, "start trip", ref.ID())
		if err != nil {
			return nil, err
		}
	}

	if list.Status != model.ShoppingDraft {
		return nil, rule("start trip", ErrNotDraft)
	}
	if len(list.Items) == 0 {
		return nil, rule("start trip", ErrEmptyList)
	}

	at := s.now()
	list, err = s.lists.SetStatus(ctx, list.ID, model.ShoppingActive, &at)
	if err != nil {
		return nil, fmt.Errorf("start trip: %w", err)
	}
	s.record("start")
	s.logger.Info("shopping trip started", "list_id", list.ID)
	return list, nil
}

// CompleteTrip closes an ACTIVE list and restocks every checked item that
// links to inventory. The steps are not atomic; a failed restock leaves
// the list completed.
func (s *Service) CompleteTrip(ctx context.Context, id string) (*model.ShoppingList, error) {
	list, err := s.get(ctx, "complete trip", id)
	if err != nil {
		return nil, err
	}
	if list.Status != model.ShoppingActive {
		return nil, rule("complete trip", ErrNotActive)
	}

	at := s.now()
	if _, err := s.lists.SetStatus(ctx, id, model.ShoppingCompleted, &at); err != nil {
		return nil, fmt.Errorf("complete trip: %w", err)
	}

	inStock := model.InventoryInStock
	for _, it := range list.Items {
		if !it.Checked || it.InventoryItem == nil {
			continue
		}
		if _, err := s.inventory.Update(ctx, it.InventoryItem.ID, model.InventoryPatch{Status: &inStock}); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("restock %s: %w", it.InventoryItem.ID, err)
		}
	}

	s.record("complete")
	s.logger.Info("shopping trip completed", "list_id", id)
	return s.get(ctx, "complete trip", id)
}

// CancelTrip returns an ACTIVE list to DRAFT and unchecks its items.
// StartedAt is kept.
func (s *Service) CancelTrip(ctx context.Context, id string) (*model.ShoppingList, error) {
	list, err := s.get(ctx, "cancel trip", id)
	if err != nil {
		return nil, err
	}
	if list.Status != model.ShoppingActive {
		return nil, rule("cancel trip", ErrCancelNotActive)
	}

	if err := s.lists.UncheckAll(ctx, id); err != nil {
		return nil, fmt.Errorf("cancel trip: %w", err)
	}
	list, err = s.lists.SetStatus(ctx, id, model.ShoppingDraft, nil)
	if err != nil {
		return nil, fmt.Errorf("cancel trip: %w", err)
	}
	s.record("cancel")
	return list, nil
}

// AbandonDraft deletes a DRAFT list and its items. Abandoning the virtual
// draft does nothing.
func (s *Service) AbandonDraft(ctx context.Context, ref ListRef) error {
	if ref.IsVirtual() {
		return nil
	}
	list, err := s.get(ctx, "abandon draft", ref.ID())
	if err != nil {
		return err
	}
	if list.Status != model.ShoppingDraft {
		return rule("abandon draft", ErrAbandonNotDraft)
	}
	if err := s.lists.Delete(ctx, list.ID); err != nil {
		return fmt.Errorf("abandon draft: %w", err)
	}
	s.record("abandon")
	return nil
}

// History returns completed lists, most recent first.
func (s *Service) History(ctx context.Context) ([]model.ShoppingList, error) {
	lists, err := s.lists.ListCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("shopping history: %w", err)
	}
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	return lists, nil
}

// Enqueue appends inv to the open persisted list unless it is already on
// it. With no open list nothing happens; the item shows up through the
// virtual draft instead.
func (s *Service) Enqueue(ctx context.Context, inv *model.InventoryItem) (*model.ShoppingListItem, error) {
	list, err := s.lists.FindOpen(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open list: %w", err)
	}
	if list.HasInventoryItem(inv.ID) {
		return nil, nil
	}

	item, err := s.lists.AddItem(ctx, list.ID, model.NewShoppingListItem{
		Name:            inv.Name,
		InventoryItemID: inv.ID,
		HomeAreaID:      inv.HomeAreaID(),
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", inv.ID, err)
	}
	s.logger.Info("inventory item added to shopping list", "inventory_id", inv.ID, "list_id", list.ID)
	return item, nil
}
