// Package dashboard aggregates household counts for the home screen.
package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type Service struct {
	repos repository.Repositories
}

func NewService(repos repository.Repositories) *Service {
	return &Service{repos: repos}
}

// Stats runs the five counts concurrently. When the open shopping list has
// no items (or there is none) the out-of-stock count stands in, matching
// what the virtual draft would show.
func (s *Service) Stats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	var listItems int

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalHomeAreas, err = s.repos.HomeAreas.Count(ctx)
		return wrap("home areas", err)
	})
	g.Go(func() (err error) {
		stats.OutOfStockItems, err = s.repos.Inventory.CountByStatus(ctx, model.InventoryOutOfStock)
		return wrap("out of stock items", err)
	})
	g.Go(func() (err error) {
		stats.PendingTasks, err = s.repos.Tasks.CountPending(ctx)
		return wrap("pending tasks", err)
	})
	g.Go(func() (err error) {
		stats.TotalNotes, err = s.repos.Notes.Count(ctx)
		return wrap("notes", err)
	})
	g.Go(func() (err error) {
		listItems, err = s.repos.ShoppingLists.CountOpenItems(ctx)
		return wrap("shopping list items", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.ItemsInShoppingList = listItems
	if listItems == 0 {
		stats.ItemsInShoppingList = stats.OutOfStockItems
	}
	return &stats, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("count %s: %w", what, err)
	}
	return nil
}
