package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type shoppingLists struct{ s *Store }

func listRowOf(r *listRow) *row         { return &r.row }
func listItemRowOf(r *listItemRow) *row { return &r.row }

func (l *shoppingLists) item(r *listItemRow) *model.ShoppingListItem {
	it := &model.ShoppingListItem{
		ID:        r.id,
		ListID:    r.listID,
		Name:      r.name,
		Checked:   r.checked,
		HomeArea:  l.s.area(r.areaID),
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
	if inv := l.s.liveInventory(r.inventoryID); inv != nil {
		it.InventoryItem = l.s.inventoryItem(inv)
	}
	return it
}

func (l *shoppingLists) list(r *listRow) *model.ShoppingList {
	out := &model.ShoppingList{
		ID:          r.id,
		Status:      r.status,
		StartedAt:   copyTime(r.startedAt),
		CompletedAt: copyTime(r.completedAt),
		Items:       []model.ShoppingListItem{},
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
	for _, it := range sortedLive(l.s.listItems, listItemRowOf) {
		if it.listID == r.id {
			out.Items = append(out.Items, *l.item(it))
		}
	}
	return out
}

func (l *shoppingLists) live(id string) *listRow {
	r, ok := l.s.lists[id]
	if !ok || r.deleted {
		return nil
	}
	return r
}

func (l *shoppingLists) open() *listRow {
	for _, r := range sortedLive(l.s.lists, listRowOf) {
		if r.status.Open() {
			return r
		}
	}
	return nil
}

func (l *shoppingLists) liveItem(id string) *listItemRow {
	r, ok := l.s.listItems[id]
	if !ok || r.deleted {
		return nil
	}
	return r
}

func (l *shoppingLists) FindOpen(ctx context.Context) (*model.ShoppingList, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	r := l.open()
	if r == nil {
		return nil, repository.ErrNotFound
	}
	return l.list(r), nil
}

func (l *shoppingLists) Get(ctx context.Context, id string) (*model.ShoppingList, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	r := l.live(id)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	return l.list(r), nil
}

func (l *shoppingLists) ListCompleted(ctx context.Context) ([]model.ShoppingList, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var rows []*listRow
	for _, r := range sortedLive(l.s.lists, listRowOf) {
		if r.status == model.ShoppingCompleted {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].completedAt, rows[j].completedAt
		if a != nil && b != nil && !a.Equal(*b) {
			return a.After(*b)
		}
		return rows[i].seq > rows[j].seq
	})
	var out []model.ShoppingList
	for _, r := range rows {
		out = append(out, *l.list(r))
	}
	return out, nil
}

func (l *shoppingLists) CreateDraft(ctx context.Context, items []model.NewShoppingListItem) (*model.ShoppingList, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.open() != nil {
		return nil, repository.ErrOpenListExists
	}
	for _, in := range items {
		if err := l.s.checkArea(in.HomeAreaID); err != nil {
			return nil, err
		}
	}

	r := &listRow{row: l.s.newRow(), status: model.ShoppingDraft}
	l.s.lists[r.id] = r
	for _, in := range items {
		l.insertItem(r.id, in)
	}
	return l.list(r), nil
}

func (l *shoppingLists) insertItem(listID string, in model.NewShoppingListItem) *listItemRow {
	it := &listItemRow{
		row:         l.s.newRow(),
		listID:      listID,
		name:        in.Name,
		inventoryID: in.InventoryItemID,
		areaID:      in.HomeAreaID,
	}
	l.s.listItems[it.id] = it
	return it
}

func (l *shoppingLists) SetStatus(ctx context.Context, id string, status model.ShoppingListStatus, at *time.Time) (*model.ShoppingList, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	r := l.live(id)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	if status.Open() {
		if o := l.open(); o != nil && o.id != id {
			return nil, repository.ErrOpenListExists
		}
	}
	r.status = status
	if at != nil {
		switch status {
		case model.ShoppingActive:
			r.startedAt = copyTime(at)
		case model.ShoppingCompleted:
			r.completedAt = copyTime(at)
		}
	}
	l.s.touch(&r.row)
	return l.list(r), nil
}

func (l *shoppingLists) Delete(ctx context.Context, id string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	r := l.live(id)
	if r == nil {
		return repository.ErrNotFound
	}
	l.s.softDelete(&r.row)
	for _, it := range l.s.listItems {
		if it.listID == id && !it.deleted {
			l.s.softDelete(&it.row)
		}
	}
	return nil
}

func (l *shoppingLists) AddItem(ctx context.Context, listID string, in model.NewShoppingListItem) (*model.ShoppingListItem, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.live(listID) == nil {
		return nil, repository.ErrNotFound
	}
	if err := l.s.checkArea(in.HomeAreaID); err != nil {
		return nil, err
	}
	return l.item(l.insertItem(listID, in)), nil
}

func (l *shoppingLists) GetItem(ctx context.Context, itemID string) (*model.ShoppingListItem, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	r := l.liveItem(itemID)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	return l.item(r), nil
}

func (l *shoppingLists) RemoveItem(ctx context.Context, itemID string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	r := l.liveItem(itemID)
	if r == nil {
		return repository.ErrNotFound
	}
	l.s.softDelete(&r.row)
	return nil
}

func (l *shoppingLists) SetItemChecked(ctx context.Context, itemID string, checked bool) (*model.ShoppingListItem, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	r := l.liveItem(itemID)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	r.checked = checked
	l.s.touch(&r.row)
	return l.item(r), nil
}

func (l *shoppingLists) UncheckAll(ctx context.Context, listID string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	for _, it := range l.s.listItems {
		if it.listID == listID && !it.deleted && it.checked {
			it.checked = false
			l.s.touch(&it.row)
		}
	}
	return nil
}

func (l *shoppingLists) CountOpenItems(ctx context.Context) (int, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	r := l.open()
	if r == nil {
		return 0, nil
	}
	n := 0
	for _, it := range l.s.listItems {
		if it.listID == r.id && !it.deleted {
			n++
		}
	}
	return n, nil
}
