package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type HomeAreaStore struct {
	db *sql.DB
}

func NewHomeAreaStore(db *sql.DB) *HomeAreaStore {
	return &HomeAreaStore{db: db}
}

func scanHomeArea(s scanner) (*model.HomeArea, error) {
	var a model.HomeArea
	if err := s.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

const homeAreaCols = `id, name, created_at, updated_at`

func (s *HomeAreaStore) List(ctx context.Context) ([]model.HomeArea, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+homeAreaCols+` FROM home_areas WHERE deleted_at IS NULL ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list home areas: %w", err)
	}
	defer rows.Close()

	var areas []model.HomeArea
	for rows.Next() {
		a, err := scanHomeArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan home area: %w", err)
		}
		areas = append(areas, *a)
	}
	return areas, rows.Err()
}

func (s *HomeAreaStore) Get(ctx context.Context, id string) (*model.HomeArea, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+homeAreaCols+` FROM home_areas WHERE id = ? AND deleted_at IS NULL`, id)
	a, err := scanHomeArea(row)
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get home area: %w", err)
	}
	return a, nil
}

func (s *HomeAreaStore) Create(ctx context.Context, name string) (*model.HomeArea, error) {
	id, ts := newID(), now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO home_areas (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, name, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert home area: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *HomeAreaStore) Update(ctx context.Context, id, name string) (*model.HomeArea, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE home_areas SET name = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		name, now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update home area: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, repository.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *HomeAreaStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	res, err := tx.ExecContext(ctx,
		`UPDATE home_areas SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("delete home area: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}

	for _, table := range []string{"inventory_items", "tasks", "notes", "shopping_list_items"} {
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET home_area_id = NULL WHERE home_area_id = ?`, id); err != nil {
			return fmt.Errorf("detach home area from %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *HomeAreaStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM home_areas WHERE deleted_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count home areas: %w", err)
	}
	return n, nil
}
