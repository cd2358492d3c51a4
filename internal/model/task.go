package model

import "time"

type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Completed   bool       `json:"completed" yaml:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	HomeArea    *HomeArea  `json:"home_area,omitempty" yaml:"home_area,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

type NewTask struct {
	Title       string
	Description string
	HomeAreaID  string
}

// TaskPatch is a partial update. When Completed is set, CompletedAt must
// carry the matching timestamp (nil when reverting to pending).
type TaskPatch struct {
	Title       *string
	Description *string
	HomeAreaID  *string
	Completed   *bool
	CompletedAt *time.Time
}
