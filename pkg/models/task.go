package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
	StatusShipped    TaskStatus = "shipped"
	StatusBlocked    TaskStatus = "blocked"
)

// ValidTaskStatuses lists every status a task may hold.
var ValidTaskStatuses = []TaskStatus{
	StatusAssigned,
	StatusInProgress,
	StatusReview,
	StatusCompleted,
	StatusShipped,
	StatusBlocked,
}

// IsValidTaskStatus reports whether s is a known task status.
func IsValidTaskStatus(s TaskStatus) bool {
	for _, v := range ValidTaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends time-in-status tracking.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusShipped
}

// Task represents a unit of work tracked by the dashboard. The optional
// timestamps act as anchors for time-in-status alerting: StartedAt anchors
// in_progress, CompletedAt anchors review (the moment the task left
// in_progress), and CreatedAt anchors assigned.
type Task struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      TaskStatus        `json:"status"`
	Assignees   []string          `json:"assignees,omitempty"`
	Reviewers   []string          `json:"reviewers,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	DueAt       *time.Time        `json:"due_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
