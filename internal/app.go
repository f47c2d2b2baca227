// Package internal provides the App struct that wires all components of the
// dashboard together: stores, cache, watcher, alerting, broadcaster, and the
// HTTP surface.
package internal

import (
	"context"
	"log/slog"
	"time"

	"github.com/valter-silva-au/brainboard/internal/broadcast"
	"github.com/valter-silva-au/brainboard/internal/cache"
	"github.com/valter-silva-au/brainboard/internal/config"
	"github.com/valter-silva-au/brainboard/internal/core"
	"github.com/valter-silva-au/brainboard/internal/observability"
	"github.com/valter-silva-au/brainboard/internal/server"
	"github.com/valter-silva-au/brainboard/internal/storage"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// App holds all service dependencies for the dashboard.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Cache and invalidation
	Cache   *cache.Cache
	Watcher *cache.Watcher

	// Storage layer
	Store     *storage.StructuredStore
	Ideas     *storage.IdeaLog
	Knowledge *storage.KnowledgeFiles
	Drafts    *storage.DraftFiles
	Book      *storage.BookStore
	Schedule  *storage.ScheduleStore
	Recurring *storage.RecurringStore

	// Core services
	Tasks     *core.TaskService
	Agents    *core.AgentService
	Notifs    *core.NotificationService
	Scheduler *core.RecurringScheduler

	// Observability
	Thresholds observability.Thresholds
	Monitor    *observability.StuckTaskMonitor

	// Broadcast and HTTP
	Hub    *broadcast.Hub
	Server *server.Server
}

// NewApp creates and wires all components. Nothing is started; call Start.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	app.Cache = cache.New()

	base := cfg.DataDir
	app.Store = storage.NewStructuredStore(base, app.Cache)
	app.Ideas = storage.NewIdeaLog(base, app.Cache)
	app.Knowledge = storage.NewKnowledgeFiles(base, app.Cache)
	app.Drafts = storage.NewDraftFiles(base, app.Cache)
	app.Book = storage.NewBookStore(base, app.Cache)
	app.Schedule = storage.NewScheduleStore(base, app.Cache)
	app.Recurring = storage.NewRecurringStore(base, app.Cache)

	app.Tasks = core.NewTaskService(app.Store)
	app.Agents = core.NewAgentService(app.Store)
	app.Notifs = core.NewNotificationService(app.Store)
	app.Scheduler = core.NewRecurringScheduler(app.Recurring, app.Tasks, logger)

	app.Thresholds = buildThresholds(cfg)
	app.Monitor = observability.NewStuckTaskMonitor(
		app.Tasks, app.Notifs, app.Thresholds, logger)

	app.Hub = broadcast.NewHub(logger)

	app.Watcher = cache.NewWatcher(app.Cache,
		storage.WatchPaths(base), storage.WatchRules(), cfg.Debounce, logger)
	app.Watcher.OnInvalidate = func(cat cache.Category) {
		app.Hub.OnInvalidate(cat)
		if cat == cache.CategoryRecurring {
			if err := app.Scheduler.Reload(); err != nil {
				logger.Warn("recurring reload failed", "error", err)
			}
		}
	}

	app.Server = server.New(server.Deps{
		Store:      app.Store,
		Tasks:      app.Tasks,
		Agents:     app.Agents,
		Notifs:     app.Notifs,
		Ideas:      app.Ideas,
		Knowledge:  app.Knowledge,
		Drafts:     app.Drafts,
		Book:       app.Book,
		Schedule:   app.Schedule,
		Hub:        app.Hub,
		Thresholds: app.Thresholds,
	}, logger)

	return app
}

// Start brings up the watcher, monitor, recurring scheduler, and HTTP server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Watcher.Start(ctx); err != nil {
		return err
	}
	if err := a.Monitor.Start(a.Config.SweepInterval); err != nil {
		return err
	}
	if err := a.Scheduler.Start(); err != nil {
		a.Logger.Warn("recurring scheduler disabled", "error", err)
	}
	a.Server.Start(a.Config.Listen)
	return nil
}

// Stop tears everything down in reverse order.
func (a *App) Stop(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = a.Server.Stop(shutdownCtx)
	a.Hub.Close()
	a.Scheduler.Stop()
	a.Monitor.Stop()
	a.Watcher.Stop()
}

// buildThresholds applies config overrides on top of the defaults.
func buildThresholds(cfg *config.Config) observability.Thresholds {
	thresholds := observability.DefaultThresholds()
	for name, hours := range cfg.Thresholds {
		status := models.TaskStatus(name)
		t := thresholds[status]
		if hours.Yellow > 0 {
			t.Yellow = time.Duration(hours.Yellow) * time.Hour
		}
		if hours.Red > 0 {
			t.Red = time.Duration(hours.Red) * time.Hour
		}
		thresholds[status] = t
	}
	return thresholds
}
