// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the dashboard's tasks, ideas, and alerting as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/brainboard/internal/core"
	"github.com/valter-silva-au/brainboard/internal/observability"
	"github.com/valter-silva-au/brainboard/internal/storage"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// Server wraps the dashboard services and exposes them as MCP tools.
type Server struct {
	server     *gomcp.Server
	tasks      *core.TaskService
	notifs     *core.NotificationService
	ideas      *storage.IdeaLog
	thresholds observability.Thresholds
}

// NewServer creates a new MCP server over the given services.
func NewServer(tasks *core.TaskService, notifs *core.NotificationService, ideas *storage.IdeaLog, thresholds observability.Thresholds, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		tasks:      tasks,
		notifs:     notifs,
		ideas:      ideas,
		thresholds: thresholds,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "brainboard", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the unique task identifier"`
}

type taskOutput struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Status       string   `json:"status"`
	Assignees    []string `json:"assignees,omitempty"`
	Reviewers    []string `json:"reviewers,omitempty"`
	Created      string   `json:"created"`
	TimeInStatus string   `json:"time_in_status,omitempty"`
	AlertLevel   string   `json:"alert_level,omitempty"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter tasks by status (assigned, in_progress, review, completed, shipped, blocked)"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the unique task identifier"`
	Status string `json:"status" jsonschema:"required,the new status (assigned, in_progress, review, completed, shipped, blocked)"`
}

type updateTaskStatusOutput struct {
	Message string `json:"message"`
}

type timeInStatusOutput struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	Tracked      bool   `json:"tracked"`
	Known        bool   `json:"known"`
	TimeInStatus string `json:"time_in_status,omitempty"`
	AlertLevel   string `json:"alert_level,omitempty"`
}

type listIdeasInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter ideas by status (captured, assigned, drafted, shipped)"`
}

type ideaOutput struct {
	Number  int      `json:"number"`
	Date    string   `json:"date,omitempty"`
	Quote   string   `json:"quote"`
	Tags    []string `json:"tags,omitempty"`
	Chapter string   `json:"chapter,omitempty"`
	Status  string   `json:"status"`
}

type listIdeasOutput struct {
	Ideas []ideaOutput `json:"ideas"`
	Count int          `json:"count"`
}

type listNotificationsInput struct {
	UnreadOnly bool `json:"unread_only,omitempty" jsonschema:"return only unread notifications"`
}

type notificationOutput struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Read     bool   `json:"read"`
	Priority string `json:"priority"`
	Created  string `json:"created"`
}

type listNotificationsOutput struct {
	Notifications []notificationOutput `json:"notifications"`
	Count         int                  `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by ID, including its computed time-in-status and alert level.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with an optional status filter. Returns task summaries with alert levels.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Update a task's lifecycle status. Valid statuses: assigned, in_progress, review, completed, shipped, blocked.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_time_in_status",
		Description: "Get how long a task has been in its current status and the resulting alert level.",
	}, s.handleGetTimeInStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_ideas",
		Description: "List ideas parsed from the idea log, optionally filtered by status.",
	}, s.handleListIdeas)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_notifications",
		Description: "List notifications, optionally restricted to unread ones.",
	}, s.handleListNotifications)
}

// --- Tool handlers ---

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.tasks.GetTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}

	return nil, s.taskToOutput(task), nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	var tasks []models.Task
	var err error

	if input.Status != "" {
		tasks, err = s.tasks.GetTasksByStatus(models.TaskStatus(input.Status))
	} else {
		tasks, err = s.tasks.GetAllTasks()
	}
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i := range tasks {
		out.Tasks[i] = s.taskToOutput(&tasks[i])
	}
	return nil, out, nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), updateTaskStatusOutput{}, nil
	}

	status := models.TaskStatus(input.Status)
	if !models.IsValidTaskStatus(status) {
		return errorResult(fmt.Sprintf("invalid status %q", input.Status)), updateTaskStatusOutput{}, nil
	}

	if err := s.tasks.UpdateTaskStatus(input.TaskID, status, ""); err != nil {
		return errorResult(fmt.Sprintf("updating task %s status: %s", input.TaskID, err)), updateTaskStatusOutput{}, nil
	}

	return nil, updateTaskStatusOutput{
		Message: fmt.Sprintf("task %s status updated to %s", input.TaskID, input.Status),
	}, nil
}

func (s *Server) handleGetTimeInStatus(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, timeInStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), timeInStatusOutput{}, nil
	}

	task, err := s.tasks.GetTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), timeInStatusOutput{}, nil
	}

	status := observability.ComputeTimeInStatus(task, time.Now(), s.thresholds)
	out := timeInStatusOutput{
		TaskID:  task.ID,
		Status:  string(task.Status),
		Tracked: status.Tracked,
		Known:   status.Known,
	}
	if status.Tracked && status.Known {
		out.TimeInStatus = status.Human
		out.AlertLevel = string(status.Level)
	}
	return nil, out, nil
}

func (s *Server) handleListIdeas(_ context.Context, _ *gomcp.CallToolRequest, input listIdeasInput) (*gomcp.CallToolResult, listIdeasOutput, error) {
	ideas, err := s.ideas.Ideas()
	if err != nil {
		return errorResult(fmt.Sprintf("listing ideas: %s", err)), listIdeasOutput{}, nil
	}

	out := listIdeasOutput{}
	for _, idea := range ideas {
		if input.Status != "" && string(idea.Status) != input.Status {
			continue
		}
		out.Ideas = append(out.Ideas, ideaOutput{
			Number:  idea.Number,
			Date:    idea.Date,
			Quote:   idea.Quote,
			Tags:    idea.Tags,
			Chapter: idea.Chapter,
			Status:  string(idea.Status),
		})
	}
	out.Count = len(out.Ideas)
	return nil, out, nil
}

func (s *Server) handleListNotifications(_ context.Context, _ *gomcp.CallToolRequest, input listNotificationsInput) (*gomcp.CallToolResult, listNotificationsOutput, error) {
	notifs, err := s.notifs.GetAllNotifications()
	if err != nil {
		return errorResult(fmt.Sprintf("listing notifications: %s", err)), listNotificationsOutput{}, nil
	}

	out := listNotificationsOutput{}
	for _, n := range notifs {
		if input.UnreadOnly && n.Read {
			continue
		}
		out.Notifications = append(out.Notifications, notificationOutput{
			ID:       n.ID,
			Type:     n.Type,
			Message:  n.Message,
			Read:     n.Read,
			Priority: string(n.Priority),
			Created:  n.CreatedAt.Format(time.RFC3339),
		})
	}
	out.Count = len(out.Notifications)
	return nil, out, nil
}

// --- Helpers ---

func (s *Server) taskToOutput(t *models.Task) taskOutput {
	out := taskOutput{
		ID:        t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		Assignees: t.Assignees,
		Reviewers: t.Reviewers,
		Created:   t.CreatedAt.Format(time.RFC3339),
	}
	status := observability.ComputeTimeInStatus(t, time.Now(), s.thresholds)
	if status.Tracked && status.Known {
		out.TimeInStatus = status.Human
		out.AlertLevel = string(status.Level)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
