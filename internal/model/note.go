package model

import "time"

// Note is a free-form household note. Content holds rich text (HTML).
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	HomeArea  *HomeArea `json:"home_area,omitempty" yaml:"home_area,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

type NewNote struct {
	Title      string
	Content    string
	HomeAreaID string
}

type NotePatch struct {
	Title      *string
	Content    *string
	HomeAreaID *string
}
