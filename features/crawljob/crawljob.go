package crawljob

import (
	"time"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one accepted crawl request and its lifecycle state.
type Job struct {
	ID        string    `json:"id"`
	URLs      []string  `json:"urls"`
	Query     string    `json:"query"`
	Status    string    `json:"status"`
	Pages     int       `json:"pages"`
	Blocked   int       `json:"blocked"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
