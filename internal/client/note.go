package client

import (
	"context"
	"io"
	"net/http"
	"slices"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/optimistic"
)

type NoteUpdate struct {
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	HomeAreaID *string `json:"home_area_id,omitempty"`
}

func (c *Client) fetchNotes(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	err := c.do(ctx, http.MethodGet, "/api/notes", nil, &notes)
	return notes, err
}

func (c *Client) ListNotes(ctx context.Context) ([]model.Note, error) {
	return c.Notes.Get(ctx, c.fetchNotes)
}

func (c *Client) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var n model.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes/"+id, nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// NoteMarkdown returns the note as a Markdown document.
func (c *Client) NoteMarkdown(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/notes/"+id+"/markdown", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", decodeError(resp)
	}
	doc, err := io.ReadAll(resp.Body)
	return string(doc), err
}

func (c *Client) NoteCount(ctx context.Context) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, http.MethodGet, "/api/notes/count", nil, &body)
	return body.Count, err
}

func (c *Client) CreateNote(ctx context.Context, title, content, homeAreaID string) (*model.Note, error) {
	in := map[string]string{"title": title, "content": content, "home_area_id": homeAreaID}
	var n model.Note
	if err := c.do(ctx, http.MethodPost, "/api/notes", in, &n); err != nil {
		return nil, err
	}
	c.Notes.Invalidate()
	return &n, nil
}

// UpdateNote shows the new title and content in the cache until the
// server confirms them.
func (c *Client) UpdateNote(ctx context.Context, id string, u NoteUpdate) (*model.Note, error) {
	var n model.Note
	err := optimistic.Do(ctx, &c.Notes, optimistic.Mutation[[]model.Note]{
		Apply: func(notes []model.Note) []model.Note {
			out := slices.Clone(notes)
			for i := range out {
				if out[i].ID != id {
					continue
				}
				if u.Title != nil {
					out[i].Title = *u.Title
				}
				if u.Content != nil {
					out[i].Content = *u.Content
				}
			}
			return out
		},
		Request: func(ctx context.Context) error {
			return c.do(ctx, http.MethodPatch, "/api/notes/"+id, u, &n)
		},
		Refetch: c.fetchNotes,
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return optimistic.Do(ctx, &c.Notes, optimistic.Mutation[[]model.Note]{
		Apply: func(notes []model.Note) []model.Note {
			return slices.DeleteFunc(slices.Clone(notes), func(n model.Note) bool { return n.ID == id })
		},
		Request: func(ctx context.Context) error {
			return c.do(ctx, http.MethodDelete, "/api/notes/"+id, nil, nil)
		},
		Refetch: c.fetchNotes,
	})
}
