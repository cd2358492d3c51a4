package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var completed int
	var completedAt sql.NullTime
	var area nullArea
	dest := append([]any{
		&t.ID, &t.Title, &t.Description, &completed, &completedAt, &t.CreatedAt, &t.UpdatedAt,
	}, area.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	t.Completed = completed != 0
	t.CompletedAt = timePtr(completedAt)
	t.HomeArea = area.area()
	return &t, nil
}

const taskSelect = `SELECT t.id, t.title, t.description, t.completed, t.completed_at, t.created_at, t.updated_at, ` + areaCols + `
	FROM tasks t
	LEFT JOIN home_areas a ON a.id = t.home_area_id AND a.deleted_at IS NULL`

func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		taskSelect+` WHERE t.deleted_at IS NULL ORDER BY t.created_at ASC, t.rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Get(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = ? AND t.deleted_at IS NULL`, id)
	t, err := scanTask(row)
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) Create(ctx context.Context, in model.NewTask) (*model.Task, error) {
	if err := checkArea(ctx, s.db, in.HomeAreaID); err != nil {
		return nil, err
	}
	id, ts := newID(), now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, home_area_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.Title, in.Description, nullString(in.HomeAreaID), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var set patchSet
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Description != nil {
		set.add("description", *patch.Description)
	}
	if patch.HomeAreaID != nil {
		if err := checkArea(ctx, s.db, *patch.HomeAreaID); err != nil {
			return nil, err
		}
		set.add("home_area_id", nullString(*patch.HomeAreaID))
	}
	if patch.Completed != nil {
		set.add("completed", boolInt(*patch.Completed))
		set.add("completed_at", nullTime(patch.CompletedAt))
	}
	set.add("updated_at", now())

	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET `+set.sql()+` WHERE id = ? AND deleted_at IS NULL`,
		append(set.args, id)...,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *TaskStore) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE completed = 0 AND deleted_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending tasks: %w", err)
	}
	return n, nil
}
