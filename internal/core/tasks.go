// Package core contains the mutation services for the dashboard's structured
// store. Every mutation follows the same sequence: load the document, change
// the in-memory collections, prepend an activity record describing the
// change, and save the whole document back.
package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/brainboard/internal/storage"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// Activity type tags written by the mutation services.
const (
	ActivityTaskCreated       = "task.created"
	ActivityTaskStatusChanged = "task.status_changed"
	ActivityTaskAssigned      = "task.assigned"
	ActivityAgentUpdated      = "agent.updated"
	ActivityNotifyCreated     = "notification.created"
	ActivityNotifyRead        = "notification.read"
)

// TaskService manages task records in the structured store.
type TaskService struct {
	store *storage.StructuredStore
	now   func() time.Time
}

// NewTaskService creates a task service over the given store.
func NewTaskService(store *storage.StructuredStore) *TaskService {
	return &TaskService{store: store, now: time.Now}
}

// CreateTask adds a new task in assigned status and records the creation.
func (s *TaskService) CreateTask(title, description string, assignees, reviewers []string, metadata map[string]string) (*models.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("creating task: title must not be empty")
	}

	task := models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      models.StatusAssigned,
		Assignees:   assignees,
		Reviewers:   reviewers,
		CreatedAt:   s.now().UTC(),
		Metadata:    metadata,
	}

	err := s.store.Mutate(func(doc *models.StoreDocument) error {
		doc.Tasks = append(doc.Tasks, task)
		doc.PrependActivity(s.activity(ActivityTaskCreated, task.ID,
			fmt.Sprintf("created task %q", title), nil))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask returns the task with the given ID.
func (s *TaskService) GetTask(id string) (*models.Task, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	task := doc.FindTask(id)
	if task == nil {
		return nil, fmt.Errorf("task %s not found", id)
	}
	copied := *task
	return &copied, nil
}

// GetAllTasks returns a copy of every task in the store.
func (s *TaskService) GetAllTasks() ([]models.Task, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, len(doc.Tasks))
	copy(tasks, doc.Tasks)
	return tasks, nil
}

// GetTasksByStatus returns every task currently in the given status.
func (s *TaskService) GetTasksByStatus(status models.TaskStatus) ([]models.Task, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	for _, t := range doc.Tasks {
		if t.Status == status {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// UpdateTaskStatus moves a task to a new status, maintaining the anchor
// timestamps used for time-in-status alerting:
//
//   - entering in_progress stamps StartedAt
//   - leaving in_progress (to review, completed, or shipped) stamps
//     CompletedAt, which is what the review timer measures from
//   - reopening a completed or shipped task returns it to assigned and
//     clears both anchors, so alerting re-anchors at creation time
func (s *TaskService) UpdateTaskStatus(id string, status models.TaskStatus, agentID string) error {
	if !models.IsValidTaskStatus(status) {
		return fmt.Errorf("updating task %s: invalid status %q", id, status)
	}

	return s.store.Mutate(func(doc *models.StoreDocument) error {
		task := doc.FindTask(id)
		if task == nil {
			return fmt.Errorf("updating task %s: not found", id)
		}
		if task.Status == status {
			return storage.ErrNoChange
		}

		previous := task.Status
		applied := s.applyStatusChange(task, status)

		act := s.activity(ActivityTaskStatusChanged, id,
			fmt.Sprintf("task %q moved from %s to %s", task.Title, previous, applied),
			map[string]any{"old_status": string(previous), "new_status": string(applied)})
		act.AgentID = agentID
		doc.PrependActivity(act)
		return nil
	})
}

// applyStatusChange mutates the task's status and anchors, returning the
// status actually applied (a reopen lands on assigned regardless of the
// requested status).
func (s *TaskService) applyStatusChange(task *models.Task, status models.TaskStatus) models.TaskStatus {
	now := s.now().UTC()

	if task.Status.IsTerminal() && !status.IsTerminal() {
		task.Status = models.StatusAssigned
		task.StartedAt = nil
		task.CompletedAt = nil
		return task.Status
	}

	switch status {
	case models.StatusInProgress:
		task.StartedAt = &now
	case models.StatusReview, models.StatusCompleted, models.StatusShipped:
		task.CompletedAt = &now
	}
	task.Status = status
	return status
}

// AssignTask replaces the task's assignee list.
func (s *TaskService) AssignTask(id string, assignees []string) error {
	return s.store.Mutate(func(doc *models.StoreDocument) error {
		task := doc.FindTask(id)
		if task == nil {
			return fmt.Errorf("assigning task %s: not found", id)
		}
		task.Assignees = assignees
		doc.PrependActivity(s.activity(ActivityTaskAssigned, id,
			fmt.Sprintf("task %q assigned to %v", task.Title, assignees), nil))
		return nil
	})
}

func (s *TaskService) activity(actType, taskID, description string, metadata map[string]any) models.Activity {
	return models.Activity{
		ID:          uuid.NewString(),
		Timestamp:   s.now().UTC(),
		Type:        actType,
		TaskID:      taskID,
		Description: description,
		Metadata:    metadata,
	}
}
