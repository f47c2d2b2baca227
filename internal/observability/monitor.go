package observability

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// OrchestratorRecipient is the role every stuck-task notification is
// addressed to, in addition to the task's assignees.
const OrchestratorRecipient = "orchestrator"

// startupSweepDelay is how long after Start the first sweep runs, so alerts
// are not delayed by a full interval on process start.
const startupSweepDelay = 5 * time.Second

// TaskLister provides the active task list.
// Defined locally so observability does not import core.
type TaskLister interface {
	GetAllTasks() ([]models.Task, error)
}

// NotificationCreator persists a notification through the structured store.
// Defined locally so observability does not import core.
type NotificationCreator interface {
	CreateNotification(n models.Notification) error
}

// StuckTaskMonitor periodically sweeps all active tasks and turns sustained
// red alerts into deduplicated notifications. The dedup set is a small state
// machine per (task, level) pair: not-notified -> notified on crossing into
// red, notified -> not-notified on leaving red, so a task that recovers and
// later regresses triggers a fresh notification.
type StuckTaskMonitor struct {
	tasks      TaskLister
	notifier   NotificationCreator
	thresholds Thresholds
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	notified map[string]struct{}

	cron    *cron.Cron
	startup *time.Timer
}

// NewStuckTaskMonitor creates a monitor over the given task source.
func NewStuckTaskMonitor(tasks TaskLister, notifier NotificationCreator, thresholds Thresholds, logger *slog.Logger) *StuckTaskMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StuckTaskMonitor{
		tasks:      tasks,
		notifier:   notifier,
		thresholds: thresholds,
		logger:     logger.With("component", "stuck_monitor"),
		now:        time.Now,
		notified:   make(map[string]struct{}),
	}
}

// Start schedules the periodic sweep and an immediate sweep shortly after
// startup. interval is the fixed period between runs.
func (m *StuckTaskMonitor) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("starting stuck-task monitor: interval must be positive")
	}

	m.cron = cron.New()
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", interval), m.Sweep); err != nil {
		return fmt.Errorf("starting stuck-task monitor: %w", err)
	}
	m.cron.Start()
	m.startup = time.AfterFunc(startupSweepDelay, m.Sweep)
	return nil
}

// Stop cancels the periodic and startup sweeps.
func (m *StuckTaskMonitor) Stop() {
	if m.startup != nil {
		m.startup.Stop()
	}
	if m.cron != nil {
		m.cron.Stop()
	}
}

// Sweep recomputes alert levels for all active tasks, notifies for tasks
// newly at red, and purges dedup keys for tasks that dropped below red.
func (m *StuckTaskMonitor) Sweep() {
	tasks, err := m.tasks.GetAllTasks()
	if err != nil {
		m.logger.Warn("sweep skipped", "error", err)
		return
	}

	now := m.now()
	red := make(map[string]struct{})

	for i := range tasks {
		task := &tasks[i]
		status := ComputeTimeInStatus(task, now, m.thresholds)
		if !status.Tracked || status.Level != AlertRed {
			continue
		}

		key := dedupKey(task.ID, AlertRed)
		red[key] = struct{}{}

		m.mu.Lock()
		_, already := m.notified[key]
		m.mu.Unlock()
		if already {
			continue
		}

		if err := m.notifyStuck(task, status); err != nil {
			m.logger.Warn("stuck notification failed", "task", task.ID, "error", err)
			continue
		}
		m.mu.Lock()
		m.notified[key] = struct{}{}
		m.mu.Unlock()
		m.logger.Info("stuck task notified", "task", task.ID, "elapsed", status.Human)
	}

	// Tasks no longer at red may notify again on a later regression.
	m.mu.Lock()
	for key := range m.notified {
		if _, stillRed := red[key]; !stillRed {
			delete(m.notified, key)
		}
	}
	m.mu.Unlock()
}

func (m *StuckTaskMonitor) notifyStuck(task *models.Task, status TimeInStatus) error {
	recipients := append([]string{OrchestratorRecipient}, task.Assignees...)
	return m.notifier.CreateNotification(models.Notification{
		Type:       "task_stuck",
		Recipients: recipients,
		Message:    fmt.Sprintf("task %s has been in %s for %s", task.ID, task.Status, status.Human),
		Priority:   models.PriorityHigh,
		Metadata: map[string]any{
			"task_id":     task.ID,
			"alert_level": string(status.Level),
			"status":      string(task.Status),
		},
	})
}

func dedupKey(taskID string, level AlertLevel) string {
	return taskID + "|" + string(level)
}
