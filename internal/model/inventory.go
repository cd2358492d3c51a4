package model

import "time"

type InventoryStatus string

const (
	InventoryInStock    InventoryStatus = "IN_STOCK"
	InventoryOutOfStock InventoryStatus = "OUT_OF_STOCK"
	InventoryNotNeeded  InventoryStatus = "NOT_NEEDED"
)

// Valid reports whether s is one of the known inventory statuses.
func (s InventoryStatus) Valid() bool {
	switch s {
	case InventoryInStock, InventoryOutOfStock, InventoryNotNeeded:
		return true
	}
	return false
}

type InventoryItem struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Status    InventoryStatus `json:"status" yaml:"status"`
	HomeArea  *HomeArea       `json:"home_area,omitempty" yaml:"home_area,omitempty"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
}

// HomeAreaID returns the id of the item's home area, or "" when it has none.
func (i InventoryItem) HomeAreaID() string {
	if i.HomeArea == nil {
		return ""
	}
	return i.HomeArea.ID
}

type NewInventoryItem struct {
	Name       string
	Status     InventoryStatus
	HomeAreaID string
}

// InventoryPatch is a partial update. Nil fields are left untouched; a
// non-nil HomeAreaID of "" clears the home area.
type InventoryPatch struct {
	Name       *string
	Status     *InventoryStatus
	HomeAreaID *string
}
