package models

import "time"

// Activity is an append-only log entry describing a mutation made through the
// store. Activities are never modified after creation; new entries are
// prepended so the most recent activity is always first.
type Activity struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Type        string         `json:"type"`
	AgentID     string         `json:"agent_id,omitempty"`
	TaskID      string         `json:"task_id,omitempty"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NotificationPriority represents the urgency of a notification.
type NotificationPriority string

const (
	PriorityHigh   NotificationPriority = "high"
	PriorityNormal NotificationPriority = "normal"
	PriorityLow    NotificationPriority = "low"
)

// Notification is a message addressed to one or more recipients. It is
// created by the stuck-task monitor or by API-driven mutations and only ever
// mutated to flip the read flag.
type Notification struct {
	ID         string               `json:"id"`
	Type       string               `json:"type"`
	Recipients []string             `json:"recipients"`
	Message    string               `json:"message"`
	Read       bool                 `json:"read"`
	Priority   NotificationPriority `json:"priority"`
	CreatedAt  time.Time            `json:"created_at"`
	Metadata   map[string]any       `json:"metadata,omitempty"`
}
