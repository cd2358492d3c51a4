// Package export writes a point-in-time snapshot of every household entity.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

type Snapshot struct {
	ExportedAt    time.Time             `json:"exported_at" yaml:"exported_at"`
	HomeAreas     []model.HomeArea      `json:"home_areas" yaml:"home_areas"`
	Inventory     []model.InventoryItem `json:"inventory" yaml:"inventory"`
	Tasks         []model.Task          `json:"tasks" yaml:"tasks"`
	Notes         []model.Note          `json:"notes" yaml:"notes"`
	OpenList      *model.ShoppingList   `json:"open_list,omitempty" yaml:"open_list,omitempty"`
	ShoppingTrips []model.ShoppingList  `json:"shopping_trips" yaml:"shopping_trips"`
}

// Take reads every entity through the repository ports.
func Take(ctx context.Context, repos repository.Repositories) (*Snapshot, error) {
	snap := &Snapshot{ExportedAt: time.Now().UTC()}
	var err error

	if snap.HomeAreas, err = repos.HomeAreas.List(ctx); err != nil {
		return nil, fmt.Errorf("export home areas: %w", err)
	}
	if snap.Inventory, err = repos.Inventory.List(ctx); err != nil {
		return nil, fmt.Errorf("export inventory: %w", err)
	}
	if snap.Tasks, err = repos.Tasks.List(ctx); err != nil {
		return nil, fmt.Errorf("export tasks: %w", err)
	}
	if snap.Notes, err = repos.Notes.List(ctx); err != nil {
		return nil, fmt.Errorf("export notes: %w", err)
	}

	open, err := repos.ShoppingLists.FindOpen(ctx)
	switch {
	case err == nil:
		snap.OpenList = open
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("export open list: %w", err)
	}
	if snap.ShoppingTrips, err = repos.ShoppingLists.ListCompleted(ctx); err != nil {
		return nil, fmt.Errorf("export shopping history: %w", err)
	}
	return snap, nil
}

// Write encodes the snapshot as YAML or JSON.
func (s *Snapshot) Write(w io.Writer, format string) error {
	switch format {
	case FormatYAML, "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
