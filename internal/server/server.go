// Package server exposes the dashboard's read API and the websocket
// invalidation endpoint over HTTP. It is a thin wiring layer: all semantics
// live in core, storage, and observability.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/valter-silva-au/brainboard/internal/broadcast"
	"github.com/valter-silva-au/brainboard/internal/core"
	"github.com/valter-silva-au/brainboard/internal/observability"
	"github.com/valter-silva-au/brainboard/internal/storage"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// Server wires the dashboard services behind an HTTP router.
type Server struct {
	store      *storage.StructuredStore
	tasks      *core.TaskService
	agents     *core.AgentService
	notifs     *core.NotificationService
	ideas      *storage.IdeaLog
	knowledge  *storage.KnowledgeFiles
	drafts     *storage.DraftFiles
	book       *storage.BookStore
	schedule   *storage.ScheduleStore
	hub        *broadcast.Hub
	thresholds observability.Thresholds
	logger     *slog.Logger

	httpServer *http.Server
}

// Deps bundles the services the server reads from.
type Deps struct {
	Store      *storage.StructuredStore
	Tasks      *core.TaskService
	Agents     *core.AgentService
	Notifs     *core.NotificationService
	Ideas      *storage.IdeaLog
	Knowledge  *storage.KnowledgeFiles
	Drafts     *storage.DraftFiles
	Book       *storage.BookStore
	Schedule   *storage.ScheduleStore
	Hub        *broadcast.Hub
	Thresholds observability.Thresholds
}

// New creates the server and its router.
func New(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:      deps.Store,
		tasks:      deps.Tasks,
		agents:     deps.Agents,
		notifs:     deps.Notifs,
		ideas:      deps.Ideas,
		knowledge:  deps.Knowledge,
		drafts:     deps.Drafts,
		book:       deps.Book,
		schedule:   deps.Schedule,
		hub:        deps.Hub,
		thresholds: deps.Thresholds,
		logger:     logger.With("component", "server"),
	}
}

// Router builds the chi router for the API and websocket endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Post("/tasks/{id}/status", s.handleUpdateStatus)
		r.Get("/agents", s.handleListAgents)
		r.Get("/activity", s.handleListActivity)
		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications/{id}/read", s.handleMarkRead)
		r.Get("/ideas", s.handleListIdeas)
		r.Get("/ideas/{number}", s.handleGetIdea)
		r.Get("/knowledge", s.handleKnowledge)
		r.Get("/drafts", s.handleDrafts)
		r.Get("/book", s.handleBook)
		r.Get("/schedule", s.handleSchedule)
	})
	r.Handle("/ws", s.hub)

	return r
}

// Start begins serving on the given address in a background goroutine.
func (s *Server) Start(addr string) {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "error", err)
		}
	}()
	s.logger.Info("listening", "addr", addr)
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// taskView is a task plus its computed time-in-status.
type taskView struct {
	models.Task
	TimeInStatus string                   `json:"time_in_status,omitempty"`
	AlertLevel   observability.AlertLevel `json:"alert_level,omitempty"`
}

func (s *Server) taskToView(t models.Task) taskView {
	view := taskView{Task: t}
	status := observability.ComputeTimeInStatus(&t, time.Now(), s.thresholds)
	if status.Tracked && status.Known {
		view.TimeInStatus = status.Human
		view.AlertLevel = status.Level
	}
	return view
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.GetAllTasks()
	if err != nil {
		// Read failures degrade to an empty collection rather than an
		// error page.
		s.logger.Warn("listing tasks", "error", err)
		tasks = nil
	}
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, s.taskToView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, s.taskToView(*task))
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status  string `json:"status"`
		AgentID string `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.tasks.UpdateTaskStatus(id, models.TaskStatus(body.Status), body.AgentID); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.hub.Broadcast(broadcast.ChannelTasks)
	s.hub.Broadcast(broadcast.ChannelActivity)
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": body.Status})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.agents.GetAllAgents()
	if err != nil {
		s.logger.Warn("listing agents", "error", err)
		agents = nil
	}
	if agents == nil {
		agents = []models.Agent{}
	}
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	activities := []models.Activity{}
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Warn("listing activity", "error", err)
	} else {
		activities = doc.Activities
	}
	writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifs, err := s.notifs.GetAllNotifications()
	if err != nil {
		s.logger.Warn("listing notifications", "error", err)
		notifs = nil
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifs)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.notifs.MarkRead(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.hub.Broadcast(broadcast.ChannelNotifications)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := s.ideas.Ideas()
	if err != nil {
		s.logger.Warn("listing ideas", "error", err)
		ideas = nil
	}
	if ideas == nil {
		ideas = []models.Idea{}
	}
	writeJSON(w, http.StatusOK, ideas)
}

func (s *Server) handleGetIdea(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	idea, err := s.ideas.Find(number)
	if err != nil || idea == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "idea not found"})
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	files, err := s.knowledge.All()
	if err != nil {
		s.logger.Warn("listing knowledge", "error", err)
		files = map[string]string{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	files, err := s.drafts.All()
	if err != nil {
		s.logger.Warn("listing drafts", "error", err)
		files = map[string]string{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	meta, err := s.book.Meta()
	if err != nil {
		s.logger.Warn("reading book metadata", "error", err)
		meta = &storage.BookMeta{}
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	slots, err := s.schedule.Slots()
	if err != nil {
		s.logger.Warn("reading schedule", "error", err)
		slots = []storage.ScheduleSlot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
