package client

import (
	"context"
	"net/http"

	"github.com/dukerupert/homekeep/internal/model"
)

func (c *Client) ListHomeAreas(ctx context.Context) ([]model.HomeArea, error) {
	var areas []model.HomeArea
	err := c.do(ctx, http.MethodGet, "/api/home-areas", nil, &areas)
	return areas, err
}

func (c *Client) CreateHomeArea(ctx context.Context, name string) (*model.HomeArea, error) {
	var area model.HomeArea
	if err := c.do(ctx, http.MethodPost, "/api/home-areas", map[string]string{"name": name}, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

func (c *Client) UpdateHomeArea(ctx context.Context, id, name string) (*model.HomeArea, error) {
	var area model.HomeArea
	if err := c.do(ctx, http.MethodPut, "/api/home-areas/"+id, map[string]string{"name": name}, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

// DeleteHomeArea also detaches the area from cached entities, so those
// caches are dropped.
func (c *Client) DeleteHomeArea(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/home-areas/"+id, nil, nil); err != nil {
		return err
	}
	c.Inventory.Invalidate()
	c.Tasks.Invalidate()
	c.Notes.Invalidate()
	c.Active.Invalidate()
	return nil
}

func (c *Client) HomeAreaStats(ctx context.Context) (*model.HomeAreaStats, error) {
	var stats model.HomeAreaStats
	if err := c.do(ctx, http.MethodGet, "/api/home-areas/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
