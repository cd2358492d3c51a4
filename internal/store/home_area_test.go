package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

func TestHomeAreaCRUD(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	s := NewHomeAreaStore(db)

	a, err := s.Create(ctx, "Kitchen")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == "" || a.Name != "Kitchen" {
		t.Fatalf("unexpected area: %+v", a)
	}

	got, err := s.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Kitchen" {
		t.Errorf("name = %q, want Kitchen", got.Name)
	}

	updated, err := s.Update(ctx, a.ID, "Pantry")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Pantry" {
		t.Errorf("name = %q, want Pantry", updated.Name)
	}

	if _, err := s.Create(ctx, "Garage"); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Pantry" || list[1].Name != "Garage" {
		t.Errorf("list = %+v, want [Pantry Garage]", list)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestHomeAreaNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewHomeAreaStore(setupTestDB(t))

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("get err = %v, want ErrNotFound", err)
	}
	if _, err := s.Update(ctx, "missing", "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("update err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("delete err = %v, want ErrNotFound", err)
	}
}

func TestHomeAreaDeleteDetachesReferences(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	areas := NewHomeAreaStore(db)

	kitchen := mustArea(t, db, "Kitchen")
	item := mustInventory(t, db, "Milk", model.InventoryOutOfStock, kitchen.ID)

	task, err := NewTaskStore(db).Create(ctx, model.NewTask{Title: "Clean fridge", HomeAreaID: kitchen.ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	note, err := NewNoteStore(db).Create(ctx, model.NewNote{Title: "Recipe", Content: "<p>x</p>", HomeAreaID: kitchen.ID})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	if err := areas.Delete(ctx, kitchen.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := areas.Get(ctx, kitchen.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("deleted area still readable: %v", err)
	}
	gotItem, err := NewInventoryStore(db).Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if gotItem.HomeArea != nil {
		t.Errorf("item home area = %+v, want nil", gotItem.HomeArea)
	}
	gotTask, _ := NewTaskStore(db).Get(ctx, task.ID)
	if gotTask.HomeArea != nil {
		t.Errorf("task home area = %+v, want nil", gotTask.HomeArea)
	}
	gotNote, _ := NewNoteStore(db).Get(ctx, note.ID)
	if gotNote.HomeArea != nil {
		t.Errorf("note home area = %+v, want nil", gotNote.HomeArea)
	}
}
