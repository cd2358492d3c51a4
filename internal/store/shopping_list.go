package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type ShoppingListStore struct {
	db *sql.DB
}

func NewShoppingListStore(db *sql.DB) *ShoppingListStore {
	return &ShoppingListStore{db: db}
}

const shoppingListCols = `id, status, started_at, completed_at, created_at, updated_at`

func scanShoppingList(s scanner) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var startedAt, completedAt sql.NullTime
	if err := s.Scan(&l.ID, &l.Status, &startedAt, &completedAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.StartedAt = timePtr(startedAt)
	l.CompletedAt = timePtr(completedAt)
	l.Items = []model.ShoppingListItem{}
	return &l, nil
}

// Line items carry their linked inventory item (with that item's own home
// area under alias ia) and their own home area under alias a.
const shoppingItemSelect = `SELECT it.id, it.shopping_list_id, it.name, it.checked, it.created_at, it.updated_at,
		inv.id, inv.name, inv.status, inv.created_at, inv.updated_at,
		ia.id, ia.name, ia.created_at, ia.updated_at,
		` + areaCols + `
	FROM shopping_list_items it
	LEFT JOIN inventory_items inv ON inv.id = it.inventory_item_id AND inv.deleted_at IS NULL
	LEFT JOIN home_areas ia ON ia.id = inv.home_area_id AND ia.deleted_at IS NULL
	LEFT JOIN home_areas a ON a.id = it.home_area_id AND a.deleted_at IS NULL`

func scanShoppingItem(s scanner) (*model.ShoppingListItem, error) {
	var it model.ShoppingListItem
	var checked int
	var invID, invName, invStatus sql.NullString
	var invCreated, invUpdated sql.NullTime
	var invArea, area nullArea

	dest := []any{&it.ID, &it.ListID, &it.Name, &checked, &it.CreatedAt, &it.UpdatedAt,
		&invID, &invName, &invStatus, &invCreated, &invUpdated}
	dest = append(dest, invArea.dest()...)
	dest = append(dest, area.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	it.Checked = checked != 0
	it.HomeArea = area.area()
	if invID.Valid {
		it.InventoryItem = &model.InventoryItem{
			ID:        invID.String,
			Name:      invName.String,
			Status:    model.InventoryStatus(invStatus.String),
			HomeArea:  invArea.area(),
			CreatedAt: invCreated.Time,
			UpdatedAt: invUpdated.Time,
		}
	}
	return &it, nil
}

func (s *ShoppingListStore) items(ctx context.Context, q querier, listID string) ([]model.ShoppingListItem, error) {
	rows, err := q.QueryContext(ctx,
		shoppingItemSelect+` WHERE it.shopping_list_id = ? AND it.deleted_at IS NULL ORDER BY it.created_at ASC, it.rowid ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	items := []model.ShoppingListItem{}
	for rows.Next() {
		it, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *ShoppingListStore) FindOpen(ctx context.Context) (*model.ShoppingList, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shoppingListCols+` FROM shopping_lists
		 WHERE status IN (?, ?) AND deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`,
		model.ShoppingDraft, model.ShoppingActive,
	)
	l, err := scanShoppingList(row)
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find open shopping list: %w", err)
	}
	if l.Items, err = s.items(ctx, s.db, l.ID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ShoppingListStore) Get(ctx context.Context, id string) (*model.ShoppingList, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shoppingListCols+` FROM shopping_lists WHERE id = ? AND deleted_at IS NULL`, id)
	l, err := scanShoppingList(row)
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	if l.Items, err = s.items(ctx, s.db, l.ID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ShoppingListStore) ListCompleted(ctx context.Context) ([]model.ShoppingList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shoppingListCols+` FROM shopping_lists
		 WHERE status = ? AND deleted_at IS NULL
		 ORDER BY completed_at DESC, rowid DESC`,
		model.ShoppingCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed shopping lists: %w", err)
	}

	var lists []model.ShoppingList
	for rows.Next() {
		l, err := scanShoppingList(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		lists = append(lists, *l)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// Items are loaded after the list cursor is closed so a single
	// connection pool never holds two open result sets.
	for i := range lists {
		if lists[i].Items, err = s.items(ctx, s.db, lists[i].ID); err != nil {
			return nil, err
		}
	}
	return lists, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *ShoppingListStore) CreateDraft(ctx context.Context, items []model.NewShoppingListItem) (*model.ShoppingList, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id, ts := newID(), now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO shopping_lists (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, model.ShoppingDraft, ts, ts,
	)
	if isUniqueViolation(err) {
		return nil, repository.ErrOpenListExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert shopping list: %w", err)
	}

	for _, in := range items {
		if err := insertShoppingItem(ctx, tx, id, in, ts); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit draft: %w", err)
	}
	return s.Get(ctx, id)
}

func insertShoppingItem(ctx context.Context, q querier, listID string, in model.NewShoppingListItem, ts time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO shopping_list_items (id, shopping_list_id, name, inventory_item_id, home_area_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		newID(), listID, in.Name, nullString(in.InventoryItemID), nullString(in.HomeAreaID), ts, ts,
	)
	if err != nil {
		return fmt.Errorf("insert shopping item: %w", err)
	}
	return nil
}

func (s *ShoppingListStore) SetStatus(ctx context.Context, id string, status model.ShoppingListStatus, at *time.Time) (*model.ShoppingList, error) {
	var set patchSet
	set.add("status", status)
	if at != nil {
		switch status {
		case model.ShoppingActive:
			set.add("started_at", *at)
		case model.ShoppingCompleted:
			set.add("completed_at", *at)
		}
	}
	set.add("updated_at", now())

	res, err := s.db.ExecContext(ctx,
		`UPDATE shopping_lists SET `+set.sql()+` WHERE id = ? AND deleted_at IS NULL`,
		append(set.args, id)...,
	)
	if isUniqueViolation(err) {
		return nil, repository.ErrOpenListExists
	}
	if err != nil {
		return nil, fmt.Errorf("update shopping list status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, repository.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *ShoppingListStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	res, err := tx.ExecContext(ctx,
		`UPDATE shopping_lists SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE shopping_list_items SET deleted_at = ?, updated_at = ? WHERE shopping_list_id = ? AND deleted_at IS NULL`,
		ts, ts, id)
	if err != nil {
		return fmt.Errorf("delete shopping items: %w", err)
	}
	return tx.Commit()
}

func (s *ShoppingListStore) AddItem(ctx context.Context, listID string, in model.NewShoppingListItem) (*model.ShoppingListItem, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shopping_lists WHERE id = ? AND deleted_at IS NULL`, listID).Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("check shopping list: %w", err)
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	if err := checkArea(ctx, s.db, in.HomeAreaID); err != nil {
		return nil, err
	}

	id, ts := newID(), now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO shopping_list_items (id, shopping_list_id, name, inventory_item_id, home_area_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, listID, in.Name, nullString(in.InventoryItemID), nullString(in.HomeAreaID), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	return s.GetItem(ctx, id)
}

func (s *ShoppingListStore) GetItem(ctx context.Context, itemID string) (*model.ShoppingListItem, error) {
	row := s.db.QueryRowContext(ctx, shoppingItemSelect+` WHERE it.id = ? AND it.deleted_at IS NULL`, itemID)
	it, err := scanShoppingItem(row)
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return it, nil
}

func (s *ShoppingListStore) RemoveItem(ctx context.Context, itemID string) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, itemID)
	if err != nil {
		return fmt.Errorf("remove shopping item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *ShoppingListStore) SetItemChecked(ctx context.Context, itemID string, checked bool) (*model.ShoppingListItem, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET checked = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		boolInt(checked), now(), itemID)
	if err != nil {
		return nil, fmt.Errorf("check shopping item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, repository.ErrNotFound
	}
	return s.GetItem(ctx, itemID)
}

func (s *ShoppingListStore) UncheckAll(ctx context.Context, listID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET checked = 0, updated_at = ? WHERE shopping_list_id = ? AND checked = 1 AND deleted_at IS NULL`,
		now(), listID)
	if err != nil {
		return fmt.Errorf("uncheck shopping items: %w", err)
	}
	return nil
}

func (s *ShoppingListStore) CountOpenItems(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shopping_list_items it
		 JOIN shopping_lists l ON l.id = it.shopping_list_id
		 WHERE it.deleted_at IS NULL AND l.deleted_at IS NULL AND l.status IN (?, ?)`,
		model.ShoppingDraft, model.ShoppingActive,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open shopping items: %w", err)
	}
	return n, nil
}
