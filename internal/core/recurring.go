package core

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/valter-silva-au/brainboard/internal/storage"
)

// RecurringScheduler materializes recurring task definitions into real tasks
// when their cron schedules fire. Definitions live in recurring.yaml; the
// scheduler reloads whenever that cache region is invalidated.
type RecurringScheduler struct {
	defs   *storage.RecurringStore
	tasks  *TaskService
	logger *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewRecurringScheduler creates a scheduler over the given definition store.
func NewRecurringScheduler(defs *storage.RecurringStore, tasks *TaskService, logger *slog.Logger) *RecurringScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringScheduler{
		defs:   defs,
		tasks:  tasks,
		logger: logger.With("component", "recurring"),
	}
}

// Start loads the current definitions and begins scheduling.
func (s *RecurringScheduler) Start() error {
	return s.Reload()
}

// Stop cancels all scheduled definitions.
func (s *RecurringScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

// Reload replaces the running schedule with the definitions currently on
// disk. Called on start and whenever the recurring region is invalidated.
func (s *RecurringScheduler) Reload() error {
	defs, err := s.defs.Definitions()
	if err != nil {
		return fmt.Errorf("reloading recurring definitions: %w", err)
	}

	next := cron.New()
	for _, def := range defs {
		if !def.IsEnabled() {
			continue
		}
		def := def
		if _, err := next.AddFunc(def.Schedule, func() { s.materialize(def) }); err != nil {
			s.logger.Warn("skipping recurring definition", "id", def.ID, "error", err)
		}
	}

	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = next
	s.cron.Start()
	s.mu.Unlock()

	s.logger.Info("recurring definitions loaded", "count", len(defs))
	return nil
}

// materialize creates a task instance for the fired definition.
func (s *RecurringScheduler) materialize(def storage.RecurringDef) {
	_, err := s.tasks.CreateTask(def.Title, "", def.Assignees, nil,
		map[string]string{"recurring_id": def.ID})
	if err != nil {
		s.logger.Warn("recurring task creation failed", "id", def.ID, "error", err)
		return
	}
	s.logger.Info("recurring task created", "id", def.ID)
}
