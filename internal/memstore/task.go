package memstore

import (
	"context"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type tasks struct{ s *Store }

func taskRowOf(r *taskRow) *row { return &r.row }

func (t *tasks) task(r *taskRow) *model.Task {
	return &model.Task{
		ID:          r.id,
		Title:       r.title,
		Description: r.description,
		Completed:   r.completed,
		CompletedAt: copyTime(r.completedAt),
		HomeArea:    t.s.area(r.areaID),
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
}

func (t *tasks) live(id string) *taskRow {
	r, ok := t.s.tasks[id]
	if !ok || r.deleted {
		return nil
	}
	return r
}

func (t *tasks) List(ctx context.Context) ([]model.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []model.Task
	for _, r := range sortedLive(t.s.tasks, taskRowOf) {
		out = append(out, *t.task(r))
	}
	return out, nil
}

func (t *tasks) Get(ctx context.Context, id string) (*model.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r := t.live(id)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	return t.task(r), nil
}

func (t *tasks) Create(ctx context.Context, in model.NewTask) (*model.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if err := t.s.checkArea(in.HomeAreaID); err != nil {
		return nil, err
	}
	r := &taskRow{row: t.s.newRow(), title: in.Title, description: in.Description, areaID: in.HomeAreaID}
	t.s.tasks[r.id] = r
	return t.task(r), nil
}

func (t *tasks) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r := t.live(id)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	if patch.HomeAreaID != nil {
		if err := t.s.checkArea(*patch.HomeAreaID); err != nil {
			return nil, err
		}
		r.areaID = *patch.HomeAreaID
	}
	if patch.Title != nil {
		r.title = *patch.Title
	}
	if patch.Description != nil {
		r.description = *patch.Description
	}
	if patch.Completed != nil {
		r.completed = *patch.Completed
		r.completedAt = copyTime(patch.CompletedAt)
	}
	t.s.touch(&r.row)
	return t.task(r), nil
}

func (t *tasks) Delete(ctx context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r := t.live(id)
	if r == nil {
		return repository.ErrNotFound
	}
	t.s.softDelete(&r.row)
	return nil
}

func (t *tasks) CountPending(ctx context.Context) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	n := 0
	for _, r := range sortedLive(t.s.tasks, taskRowOf) {
		if !r.completed {
			n++
		}
	}
	return n, nil
}
