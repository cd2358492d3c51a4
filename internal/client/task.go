package client

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/optimistic"
)

type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	HomeAreaID  *string `json:"home_area_id,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

func (c *Client) fetchTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks)
	return tasks, err
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	return c.Tasks.Get(ctx, c.fetchTasks)
}

func (c *Client) CreateTask(ctx context.Context, title, description, homeAreaID string) (*model.Task, error) {
	in := map[string]string{"title": title, "description": description, "home_area_id": homeAreaID}
	var t model.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", in, &t); err != nil {
		return nil, err
	}
	c.Tasks.Invalidate()
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, u TaskUpdate) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+id, u, &t); err != nil {
		return nil, err
	}
	c.Tasks.Invalidate()
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil); err != nil {
		return err
	}
	c.Tasks.Invalidate()
	return nil
}

func (c *Client) MarkTaskComplete(ctx context.Context, id string) (*model.Task, error) {
	return c.setTaskCompleted(ctx, id, true)
}

func (c *Client) MarkTaskPending(ctx context.Context, id string) (*model.Task, error) {
	return c.setTaskCompleted(ctx, id, false)
}

func (c *Client) setTaskCompleted(ctx context.Context, id string, completed bool) (*model.Task, error) {
	path := "/api/tasks/" + id + "/pending"
	if completed {
		path = "/api/tasks/" + id + "/complete"
	}

	var t model.Task
	err := optimistic.Do(ctx, &c.Tasks, optimistic.Mutation[[]model.Task]{
		Apply: func(tasks []model.Task) []model.Task {
			out := slices.Clone(tasks)
			for i := range out {
				if out[i].ID != id {
					continue
				}
				out[i].Completed = completed
				out[i].CompletedAt = nil
				if completed {
					now := time.Now().UTC()
					out[i].CompletedAt = &now
				}
			}
			return out
		},
		Request: func(ctx context.Context) error {
			return c.do(ctx, http.MethodPost, path, nil, &t)
		},
		Refetch: c.fetchTasks,
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
