package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

func scanInventoryItem(s scanner) (*model.InventoryItem, error) {
	var item model.InventoryItem
	var area nullArea
	dest := append([]any{&item.ID, &item.Name, &item.Status, &item.CreatedAt, &item.UpdatedAt}, area.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	item.HomeArea = area.area()
	return &item, nil
}

const inventorySelect = `SELECT i.id, i.name, i.status, i.created_at, i.updated_at, ` + areaCols + `
	FROM inventory_items i
	LEFT JOIN home_areas a ON a.id = i.home_area_id AND a.deleted_at IS NULL`

func (s *InventoryStore) query(ctx context.Context, where string, args ...any) ([]model.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		inventorySelect+` WHERE i.deleted_at IS NULL`+where+` ORDER BY i.status ASC, i.name ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *InventoryStore) List(ctx context.Context) ([]model.InventoryItem, error) {
	return s.query(ctx, "")
}

func (s *InventoryStore) ListByStatus(ctx context.Context, status model.InventoryStatus) ([]model.InventoryItem, error) {
	return s.query(ctx, ` AND i.status = ?`, status)
}

func (s *InventoryStore) Get(ctx context.Context, id string) (*model.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, inventorySelect+` WHERE i.id = ? AND i.deleted_at IS NULL`, id)
	item, err := scanInventoryItem(row)
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return item, nil
}

func (s *InventoryStore) Create(ctx context.Context, in model.NewInventoryItem) (*model.InventoryItem, error) {
	if err := checkArea(ctx, s.db, in.HomeAreaID); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.InventoryOutOfStock
	}

	id, ts := newID(), now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inventory_items (id, name, status, home_area_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.Status, nullString(in.HomeAreaID), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert inventory item: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *InventoryStore) Update(ctx context.Context, id string, patch model.InventoryPatch) (*model.InventoryItem, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var set patchSet
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Status != nil {
		set.add("status", *patch.Status)
	}
	if patch.HomeAreaID != nil {
		if err := checkArea(ctx, s.db, *patch.HomeAreaID); err != nil {
			return nil, err
		}
		set.add("home_area_id", nullString(*patch.HomeAreaID))
	}
	set.add("updated_at", now())

	_, err := s.db.ExecContext(ctx,
		`UPDATE inventory_items SET `+set.sql()+` WHERE id = ? AND deleted_at IS NULL`,
		append(set.args, id)...,
	)
	if err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *InventoryStore) Delete(ctx context.Context, id string) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE inventory_items SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *InventoryStore) CountByStatus(ctx context.Context, status model.InventoryStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventory_items WHERE status = ? AND deleted_at IS NULL`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count inventory: %w", err)
	}
	return n, nil
}
