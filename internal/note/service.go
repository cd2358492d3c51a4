// Package note provides note CRUD and Markdown export of note bodies.
package note

import (
	"context"
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

type Service struct {
	notes     repository.Notes
	converter *md.Converter
}

func NewService(notes repository.Notes) *Service {
	return &Service{notes: notes, converter: md.NewConverter("", true, nil)}
}

func (s *Service) List(ctx context.Context) ([]model.Note, error) {
	return s.notes.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*model.Note, error) {
	return s.notes.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in model.NewNote) (*model.Note, error) {
	return s.notes.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error) {
	return s.notes.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.notes.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.notes.Count(ctx)
}

// Markdown renders a note as a Markdown document headed by its title.
func (s *Service) Markdown(ctx context.Context, id string) (string, error) {
	n, err := s.notes.Get(ctx, id)
	if err != nil {
		return "", err
	}
	body, err := s.converter.ConvertString(n.Content)
	if err != nil {
		return "", fmt.Errorf("convert note %s: %w", id, err)
	}
	return "# " + n.Title + "\n\n" + body + "\n", nil
}
