package domain

import "time"

// Note is a personal memo visible only to its owner.
type Note struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
