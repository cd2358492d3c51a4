package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

func TestInventoryCRUD(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	s := NewInventoryStore(db)
	kitchen := mustArea(t, db, "Kitchen")

	item, err := s.Create(ctx, model.NewInventoryItem{Name: "Milk", HomeAreaID: kitchen.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Status != model.InventoryOutOfStock {
		t.Errorf("default status = %q, want OUT_OF_STOCK", item.Status)
	}
	if item.HomeArea == nil || item.HomeArea.Name != "Kitchen" {
		t.Errorf("home area = %+v, want Kitchen", item.HomeArea)
	}

	status := model.InventoryInStock
	updated, err := s.Update(ctx, item.ID, model.InventoryPatch{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.InventoryInStock || updated.Name != "Milk" {
		t.Errorf("updated = %+v", updated)
	}

	cleared, err := s.Update(ctx, item.ID, model.InventoryPatch{HomeAreaID: strPtr("")})
	if err != nil {
		t.Fatalf("clear area: %v", err)
	}
	if cleared.HomeArea != nil {
		t.Errorf("home area = %+v, want nil", cleared.HomeArea)
	}

	if err := s.Delete(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, item.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("get after delete: %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, item.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second delete: %v, want ErrNotFound", err)
	}
}

func TestInventoryCreateUnknownArea(t *testing.T) {
	s := NewInventoryStore(setupTestDB(t))
	_, err := s.Create(context.Background(), model.NewInventoryItem{Name: "Milk", HomeAreaID: "nope"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInventoryListOrderingAndCounts(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	s := NewInventoryStore(db)

	mustInventory(t, db, "Eggs", model.InventoryOutOfStock, "")
	mustInventory(t, db, "Bread", model.InventoryInStock, "")
	mustInventory(t, db, "Apples", model.InventoryOutOfStock, "")
	mustInventory(t, db, "Candles", model.InventoryNotNeeded, "")

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, it := range all {
		names = append(names, it.Name)
	}
	want := []string{"Bread", "Candles", "Apples", "Eggs"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	out, err := s.ListByStatus(ctx, model.InventoryOutOfStock)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(out) != 2 || out[0].Name != "Apples" {
		t.Errorf("out of stock = %+v", out)
	}

	n, err := s.CountByStatus(ctx, model.InventoryOutOfStock)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
