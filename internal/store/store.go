package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

// New wires the SQLite implementation of every repository port.
func New(db *sql.DB) repository.Repositories {
	return repository.Repositories{
		HomeAreas:     NewHomeAreaStore(db),
		Inventory:     NewInventoryStore(db),
		Tasks:         NewTaskStore(db),
		Notes:         NewNoteStore(db),
		ShoppingLists: NewShoppingListStore(db),
		Backups:       NewBackupStore(db),
	}
}

type scanner interface{ Scan(...any) error }

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var now = func() time.Time { return time.Now().UTC() }

func newID() string {
	return uuid.NewString()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// areaCols selects the home area joined under alias "a". The join must
// filter a.deleted_at so detached areas scan as NULL.
const areaCols = `a.id, a.name, a.created_at, a.updated_at`

type nullArea struct {
	id, name             sql.NullString
	createdAt, updatedAt sql.NullTime
}

func (n *nullArea) dest() []any {
	return []any{&n.id, &n.name, &n.createdAt, &n.updatedAt}
}

func (n *nullArea) area() *model.HomeArea {
	if !n.id.Valid {
		return nil
	}
	return &model.HomeArea{
		ID:        n.id.String,
		Name:      n.name.String,
		CreatedAt: n.createdAt.Time,
		UpdatedAt: n.updatedAt.Time,
	}
}

// checkArea verifies that a non-empty home area id refers to a live area.
func checkArea(ctx context.Context, q querier, id string) error {
	if id == "" {
		return nil
	}
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM home_areas WHERE id = ? AND deleted_at IS NULL`, id).Scan(&n)
	if err != nil {
		return fmt.Errorf("check home area: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("home area %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// patchSet accumulates SET clauses for a partial update.
type patchSet struct {
	cols []string
	args []any
}

func (p *patchSet) add(col string, v any) {
	p.cols = append(p.cols, col+" = ?")
	p.args = append(p.args, v)
}

func (p *patchSet) sql() string {
	return strings.Join(p.cols, ", ")
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
