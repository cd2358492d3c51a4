package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(s scanner) (*model.Note, error) {
	var n model.Note
	var area nullArea
	dest := append([]any{&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt}, area.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	n.HomeArea = area.area()
	return &n, nil
}

const noteSelect = `SELECT n.id, n.title, n.content, n.created_at, n.updated_at, ` + areaCols + `
	FROM notes n
	LEFT JOIN home_areas a ON a.id = n.home_area_id AND a.deleted_at IS NULL`

// List returns notes most recently updated first.
func (s *NoteStore) List(ctx context.Context) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		noteSelect+` WHERE n.deleted_at IS NULL ORDER BY n.updated_at DESC, n.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (s *NoteStore) Get(ctx context.Context, id string) (*model.Note, error) {
	row := s.db.QueryRowContext(ctx, noteSelect+` WHERE n.id = ? AND n.deleted_at IS NULL`, id)
	n, err := scanNote(row)
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (s *NoteStore) Create(ctx context.Context, in model.NewNote) (*model.Note, error) {
	if err := checkArea(ctx, s.db, in.HomeAreaID); err != nil {
		return nil, err
	}
	id, ts := newID(), now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, home_area_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.Title, in.Content, nullString(in.HomeAreaID), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *NoteStore) Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var set patchSet
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Content != nil {
		set.add("content", *patch.Content)
	}
	if patch.HomeAreaID != nil {
		if err := checkArea(ctx, s.db, *patch.HomeAreaID); err != nil {
			return nil, err
		}
		set.add("home_area_id", nullString(*patch.HomeAreaID))
	}
	set.add("updated_at", now())

	_, err := s.db.ExecContext(ctx,
		`UPDATE notes SET `+set.sql()+` WHERE id = ? AND deleted_at IS NULL`,
		append(set.args, id)...,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *NoteStore) Delete(ctx context.Context, id string) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *NoteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE deleted_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}
