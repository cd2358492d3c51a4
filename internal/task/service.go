// Package task implements task completion rules.
package task

import (
	"context"
	"time"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type Service struct {
	tasks repository.Tasks
	now   func() time.Time
}

func NewService(tasks repository.Tasks) *Service {
	return &Service{tasks: tasks, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context) ([]model.Task, error) {
	return s.tasks.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.tasks.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in model.NewTask) (*model.Task, error) {
	return s.tasks.Create(ctx, in)
}

// Update applies a partial update. A Completed value sets or clears
// CompletedAt, whatever the caller put there.
func (s *Service) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if patch.Completed != nil {
		patch.CompletedAt = nil
		if *patch.Completed {
			at := s.now()
			patch.CompletedAt = &at
		}
	}
	return s.tasks.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.tasks.Delete(ctx, id)
}

func (s *Service) MarkComplete(ctx context.Context, id string) (*model.Task, error) {
	done := true
	return s.Update(ctx, id, model.TaskPatch{Completed: &done})
}

func (s *Service) MarkPending(ctx context.Context, id string) (*model.Task, error) {
	done := false
	return s.Update(ctx, id, model.TaskPatch{Completed: &done})
}
