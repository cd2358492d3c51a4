package memstore

import (
	"context"
	"sort"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type notes struct{ s *Store }

func noteRowOf(r *noteRow) *row { return &r.row }

func (n *notes) note(r *noteRow) *model.Note {
	return &model.Note{
		ID:        r.id,
		Title:     r.title,
		Content:   r.content,
		HomeArea:  n.s.area(r.areaID),
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
}

func (n *notes) live(id string) *noteRow {
	r, ok := n.s.notes[id]
	if !ok || r.deleted {
		return nil
	}
	return r
}

// List returns notes most recently updated first.
func (n *notes) List(ctx context.Context) ([]model.Note, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	rows := sortedLive(n.s.notes, noteRowOf)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].updatedAt.Equal(rows[j].updatedAt) {
			return rows[i].updatedAt.After(rows[j].updatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	var out []model.Note
	for _, r := range rows {
		out = append(out, *n.note(r))
	}
	return out, nil
}

func (n *notes) Get(ctx context.Context, id string) (*model.Note, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	r := n.live(id)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	return n.note(r), nil
}

func (n *notes) Create(ctx context.Context, in model.NewNote) (*model.Note, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	if err := n.s.checkArea(in.HomeAreaID); err != nil {
		return nil, err
	}
	r := &noteRow{row: n.s.newRow(), title: in.Title, content: in.Content, areaID: in.HomeAreaID}
	n.s.notes[r.id] = r
	return n.note(r), nil
}

func (n *notes) Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	r := n.live(id)
	if r == nil {
		return nil, repository.ErrNotFound
	}
	if patch.HomeAreaID != nil {
		if err := n.s.checkArea(*patch.HomeAreaID); err != nil {
			return nil, err
		}
		r.areaID = *patch.HomeAreaID
	}
	if patch.Title != nil {
		r.title = *patch.Title
	}
	if patch.Content != nil {
		r.content = *patch.Content
	}
	n.s.touch(&r.row)
	return n.note(r), nil
}

func (n *notes) Delete(ctx context.Context, id string) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	r := n.live(id)
	if r == nil {
		return repository.ErrNotFound
	}
	n.s.softDelete(&r.row)
	return nil
}

func (n *notes) Count(ctx context.Context) (int, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	return len(sortedLive(n.s.notes, noteRowOf)), nil
}
