package observability

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/brainboard/pkg/models"
)

// fakeTaskSource serves a swappable task list.
type fakeTaskSource struct {
	mu    sync.Mutex
	tasks []models.Task
	err   error
}

func (f *fakeTaskSource) GetAllTasks() ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeTaskSource) set(tasks []models.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = tasks
}

// fakeNotifier records created notifications.
type fakeNotifier struct {
	mu      sync.Mutex
	created []models.Notification
	err     error
}

func (f *fakeNotifier) CreateNotification(n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeNotifier) last() models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[len(f.created)-1]
}

func newTestMonitor(tasks *fakeTaskSource, notifier *fakeNotifier, at time.Time) *StuckTaskMonitor {
	m := NewStuckTaskMonitor(tasks, notifier, DefaultThresholds(), nil)
	m.now = func() time.Time { return at }
	return m
}

func redTask(id string, createdAt time.Time) models.Task {
	return models.Task{
		ID:        id,
		Title:     "stalled work",
		Status:    models.StatusAssigned,
		Assignees: []string{"agent-1"},
		CreatedAt: createdAt,
	}
}

func TestSweep_NotifiesRedTaskOnce(t *testing.T) {
	now := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)
	source := &fakeTaskSource{}
	notifier := &fakeNotifier{}
	m := newTestMonitor(source, notifier, now)

	// Assigned for 30h: past the 24h red threshold.
	source.set([]models.Task{redTask("t-1", now.Add(-30*time.Hour))})

	m.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", notifier.count())
	}

	n := notifier.last()
	if n.Type != "task_stuck" {
		t.Errorf("unexpected type %q", n.Type)
	}
	if n.Priority != models.PriorityHigh {
		t.Errorf("unexpected priority %q", n.Priority)
	}
	if len(n.Recipients) != 2 || n.Recipients[0] != OrchestratorRecipient || n.Recipients[1] != "agent-1" {
		t.Errorf("unexpected recipients %v", n.Recipients)
	}
	if n.Metadata["task_id"] != "t-1" || n.Metadata["alert_level"] != "red" {
		t.Errorf("unexpected metadata %v", n.Metadata)
	}

	// Still red on the next sweep: dedup suppresses a second notification.
	m.Sweep()
	m.Sweep()
	if notifier.count() != 1 {
		t.Errorf("expected dedup to hold at 1 notification, got %d", notifier.count())
	}
}

func TestSweep_RecoveryThenRegressionNotifiesAgain(t *testing.T) {
	now := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)
	source := &fakeTaskSource{}
	notifier := &fakeNotifier{}
	m := newTestMonitor(source, notifier, now)

	stuck := redTask("t-1", now.Add(-30*time.Hour))
	source.set([]models.Task{stuck})
	m.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("expected first notification, got %d", notifier.count())
	}

	// The task moves on: it leaves red, which purges the dedup key.
	started := now
	recovered := stuck
	recovered.Status = models.StatusInProgress
	recovered.StartedAt = &started
	source.set([]models.Task{recovered})
	m.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("recovery must not notify, got %d", notifier.count())
	}

	// Later it regresses to red again: a fresh notification fires.
	source.set([]models.Task{stuck})
	m.Sweep()
	if notifier.count() != 2 {
		t.Errorf("expected re-notification after recovery, got %d", notifier.count())
	}
}

func TestSweep_YellowDoesNotNotify(t *testing.T) {
	now := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)
	source := &fakeTaskSource{}
	notifier := &fakeNotifier{}
	m := newTestMonitor(source, notifier, now)

	// Assigned for 15h: yellow (12h) but not red (24h).
	source.set([]models.Task{redTask("t-1", now.Add(-15*time.Hour))})
	m.Sweep()
	if notifier.count() != 0 {
		t.Errorf("yellow alert must not notify, got %d", notifier.count())
	}
}

func TestSweep_TerminalAndUnknownTasksIgnored(t *testing.T) {
	now := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)
	source := &fakeTaskSource{}
	notifier := &fakeNotifier{}
	m := newTestMonitor(source, notifier, now)

	old := now.Add(-100 * time.Hour)
	source.set([]models.Task{
		{ID: "done", Status: models.StatusCompleted, CreatedAt: old},
		{ID: "blocked", Status: models.StatusBlocked, CreatedAt: old},
		{ID: "no-anchor", Status: models.StatusInProgress, CreatedAt: old},
	})
	m.Sweep()
	if notifier.count() != 0 {
		t.Errorf("expected no notifications, got %d", notifier.count())
	}
}

func TestSweep_NotifierFailureRetriesNextSweep(t *testing.T) {
	now := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)
	source := &fakeTaskSource{}
	notifier := &fakeNotifier{err: errors.New("store unavailable")}
	m := newTestMonitor(source, notifier, now)

	source.set([]models.Task{redTask("t-1", now.Add(-30*time.Hour))})
	m.Sweep()
	if notifier.count() != 0 {
		t.Fatalf("failed creation must not record, got %d", notifier.count())
	}

	// The dedup key must not be set on failure, so the next sweep retries.
	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()
	m.Sweep()
	if notifier.count() != 1 {
		t.Errorf("expected retry after notifier failure, got %d", notifier.count())
	}
}

func TestSweep_ListerFailureSkipsSweep(t *testing.T) {
	now := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)
	source := &fakeTaskSource{err: errors.New("store unreadable")}
	notifier := &fakeNotifier{}
	m := newTestMonitor(source, notifier, now)

	m.Sweep()
	if notifier.count() != 0 {
		t.Errorf("expected no notifications on lister failure, got %d", notifier.count())
	}
}

func TestMonitor_StartRejectsNonPositiveInterval(t *testing.T) {
	m := newTestMonitor(&fakeTaskSource{}, &fakeNotifier{}, time.Now())
	if err := m.Start(0); err == nil {
		t.Error("expected error for zero interval")
	}
	if err := m.Start(-time.Minute); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestMonitor_StartStop(t *testing.T) {
	m := newTestMonitor(&fakeTaskSource{}, &fakeNotifier{}, time.Now())
	if err := m.Start(time.Minute); err != nil {
		t.Fatalf("starting monitor: %v", err)
	}
	m.Stop()
}
