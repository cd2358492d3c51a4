package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/homekeep/internal/database"
	"github.com/dukerupert/homekeep/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustArea(t *testing.T, db *sql.DB, name string) *model.HomeArea {
	t.Helper()
	a, err := NewHomeAreaStore(db).Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create area %q: %v", name, err)
	}
	return a
}

func mustInventory(t *testing.T, db *sql.DB, name string, status model.InventoryStatus, areaID string) *model.InventoryItem {
	t.Helper()
	item, err := NewInventoryStore(db).Create(context.Background(), model.NewInventoryItem{
		Name: name, Status: status, HomeAreaID: areaID,
	})
	if err != nil {
		t.Fatalf("create inventory %q: %v", name, err)
	}
	return item
}

func strPtr(s string) *string { return &s }
