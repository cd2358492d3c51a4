package shopping

// ListRef points at the list a mutation targets: either the virtual draft
// or a persisted list.
type ListRef struct {
	id string
}

// Virtual refers to the virtual draft.
func Virtual() ListRef { return ListRef{} }

// Persisted refers to a stored list.
func Persisted(id string) ListRef { return ListRef{id: id} }

func (r ListRef) IsVirtual() bool { return r.id == "" }

// ID is the persisted list id, or "" for the virtual draft.
func (r ListRef) ID() string { return r.id }

// ItemRef points at a line item: either a virtual draft entry, identified
// by its inventory item, or a persisted line item.
type ItemRef struct {
	id          string
	inventoryID string
}

func VirtualItem(inventoryID string) ItemRef { return ItemRef{inventoryID: inventoryID} }

func PersistedItem(id string) ItemRef { return ItemRef{id: id} }

func (r ItemRef) IsVirtual() bool { return r.id == "" }

func (r ItemRef) ID() string { return r.id }

func (r ItemRef) InventoryID() string { return r.inventoryID }
