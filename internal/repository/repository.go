// Package repository declares the persistence ports used by the use cases.
// Two variants implement them: store (SQLite) and memstore (in-memory).
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/homekeep/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist or was soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrOpenListExists is returned by CreateDraft when a DRAFT or ACTIVE
	// list already exists.
	ErrOpenListExists = errors.New("an open shopping list already exists")
)

type HomeAreas interface {
	List(ctx context.Context) ([]model.HomeArea, error)
	Get(ctx context.Context, id string) (*model.HomeArea, error)
	Create(ctx context.Context, name string) (*model.HomeArea, error)
	Update(ctx context.Context, id, name string) (*model.HomeArea, error)
	// Delete soft-deletes the area and detaches it from every item, task,
	// note and shopping-list item that referenced it.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type Inventory interface {
	List(ctx context.Context) ([]model.InventoryItem, error)
	ListByStatus(ctx context.Context, status model.InventoryStatus) ([]model.InventoryItem, error)
	Get(ctx context.Context, id string) (*model.InventoryItem, error)
	Create(ctx context.Context, in model.NewInventoryItem) (*model.InventoryItem, error)
	Update(ctx context.Context, id string, patch model.InventoryPatch) (*model.InventoryItem, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status model.InventoryStatus) (int, error)
}

type Tasks interface {
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, in model.NewTask) (*model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id string) error
	CountPending(ctx context.Context) (int, error)
}

type Notes interface {
	List(ctx context.Context) ([]model.Note, error)
	Get(ctx context.Context, id string) (*model.Note, error)
	Create(ctx context.Context, in model.NewNote) (*model.Note, error)
	Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type ShoppingLists interface {
	// FindOpen returns the DRAFT or ACTIVE list, or ErrNotFound.
	FindOpen(ctx context.Context) (*model.ShoppingList, error)
	Get(ctx context.Context, id string) (*model.ShoppingList, error)
	// ListCompleted returns completed lists, most recently completed first.
	ListCompleted(ctx context.Context) ([]model.ShoppingList, error)
	// CreateDraft atomically creates a DRAFT list holding items. It fails
	// with ErrOpenListExists when another open list exists.
	CreateDraft(ctx context.Context, items []model.NewShoppingListItem) (*model.ShoppingList, error)
	// SetStatus changes the list status. A non-nil at is recorded as
	// startedAt for ACTIVE and completedAt for COMPLETED.
	SetStatus(ctx context.Context, id string, status model.ShoppingListStatus, at *time.Time) (*model.ShoppingList, error)
	// Delete soft-deletes the list and its items.
	Delete(ctx context.Context, id string) error

	AddItem(ctx context.Context, listID string, item model.NewShoppingListItem) (*model.ShoppingListItem, error)
	GetItem(ctx context.Context, itemID string) (*model.ShoppingListItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	SetItemChecked(ctx context.Context, itemID string, checked bool) (*model.ShoppingListItem, error)
	UncheckAll(ctx context.Context, listID string) error
	// CountOpenItems counts line items on the open list; 0 when none exists.
	CountOpenItems(ctx context.Context) (int, error)
}

type Backups interface {
	Create(ctx context.Context, filename, s3Key string) (*model.Backup, error)
	Get(ctx context.Context, id string) (*model.Backup, error)
	List(ctx context.Context, limit int) ([]model.Backup, error)
	UpdateStatus(ctx context.Context, id string, status model.BackupStatus, errorMsg string) error
	UpdateCompleted(ctx context.Context, id string, sizeBytes int64) error
	// DeleteOlderThan removes backups created before the cutoff and returns
	// their S3 keys.
	DeleteOlderThan(ctx context.Context, before time.Time) ([]string, error)
}

// Repositories bundles one implementation of every port.
type Repositories struct {
	HomeAreas     HomeAreas
	Inventory     Inventory
	Tasks         Tasks
	Notes         Notes
	ShoppingLists ShoppingLists
	Backups       Backups
}
