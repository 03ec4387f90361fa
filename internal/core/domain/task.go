package domain

import "time"

// Urgency is the priority bucket of a task.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// UrgencyLevels lists the urgency values in ascending order.
var UrgencyLevels = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// TaskStatus is the completion state of a task. Any status may follow any
// other; who may change it is decided by the authorization guard.
type TaskStatus string

const (
	StatusAssigned   TaskStatus = "Assigned"
	StatusInProgress TaskStatus = "InProgress"
	StatusCompleted  TaskStatus = "Completed"
	StatusBlocked    TaskStatus = "Blocked"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Task is the core aggregate root. Version is the optimistic-concurrency
// token: it starts at 1 and is incremented by every successful write.
type Task struct {
	ID          string
	Title       string
	Description string
	Urgency     Urgency
	Status      TaskStatus
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	AssignedTo  string
}

// Comment is an immutable note attached to a task.
type Comment struct {
	ID        string
	TaskID    string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}
