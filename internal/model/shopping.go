package model

import "time"

type ShoppingListStatus string

const (
	ShoppingDraft     ShoppingListStatus = "DRAFT"
	ShoppingActive    ShoppingListStatus = "ACTIVE"
	ShoppingCompleted ShoppingListStatus = "COMPLETED"
)

// Open reports whether a list in this status is the household's current
// list. Completed lists are history.
func (s ShoppingListStatus) Open() bool {
	return s == ShoppingDraft || s == ShoppingActive
}

type ShoppingList struct {
	ID          string             `json:"id" yaml:"id"`
	Status      ShoppingListStatus `json:"status" yaml:"status"`
	StartedAt   *time.Time         `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Items       []ShoppingListItem `json:"items" yaml:"items"`
	CreatedAt   time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" yaml:"updated_at"`
}

// HasInventoryItem reports whether any line item links to inventoryID.
func (l *ShoppingList) HasInventoryItem(inventoryID string) bool {
	return l.ItemForInventory(inventoryID) != nil
}

// ItemForInventory returns the line item linked to inventoryID, if any.
func (l *ShoppingList) ItemForInventory(inventoryID string) *ShoppingListItem {
	for i := range l.Items {
		if inv := l.Items[i].InventoryItem; inv != nil && inv.ID == inventoryID {
			return &l.Items[i]
		}
	}
	return nil
}

type ShoppingListItem struct {
	ID            string         `json:"id" yaml:"id"`
	ListID        string         `json:"list_id" yaml:"list_id"`
	Name          string         `json:"name" yaml:"name"`
	Checked       bool           `json:"checked" yaml:"checked"`
	InventoryItem *InventoryItem `json:"inventory_item,omitempty" yaml:"inventory_item,omitempty"`
	HomeArea      *HomeArea      `json:"home_area,omitempty" yaml:"home_area,omitempty"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" yaml:"updated_at"`
}

// NewShoppingListItem describes a line item to insert. InventoryItemID and
// HomeAreaID are optional.
type NewShoppingListItem struct {
	Name            string
	InventoryItemID string
	HomeAreaID      string
}

// ActiveList is the household's current shopping list: either a persisted
// DRAFT/ACTIVE list or the virtual draft derived from out-of-stock
// inventory. Callers switch on the concrete type.
type ActiveList interface {
	activeList()
}

// PersistedList is an open list stored in the repository.
type PersistedList struct {
	List *ShoppingList
}

// VirtualDraft is synthesized on read when no open list exists. It is never
// stored; Items are the out-of-stock inventory items it would contain.
type VirtualDraft struct {
	Items []InventoryItem
}

func (PersistedList) activeList() {}
func (VirtualDraft) activeList()  {}
