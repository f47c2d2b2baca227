package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/brainboard/pkg/models"
)

// AlertLevel is the tiered alert state for a task's time in its current
// status, strictly determined by threshold comparison. There is no
// hysteresis at this layer; dedup lives in the stuck-task monitor.
type AlertLevel string

const (
	AlertNone   AlertLevel = "none"
	AlertYellow AlertLevel = "yellow"
	AlertRed    AlertLevel = "red"
)

// StatusThresholds holds the yellow and red elapsed-time thresholds for one
// task status.
type StatusThresholds struct {
	Yellow time.Duration
	Red    time.Duration
}

// Thresholds maps each tracked status to its alert thresholds. Review alerts
// sooner than assigned, which alerts sooner than in_progress: review is the
// higher-cost bottleneck.
type Thresholds map[models.TaskStatus]StatusThresholds

// DefaultThresholds returns the standard per-status alert thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		models.StatusReview:     {Yellow: 4 * time.Hour, Red: 8 * time.Hour},
		models.StatusAssigned:   {Yellow: 12 * time.Hour, Red: 24 * time.Hour},
		models.StatusInProgress: {Yellow: 24 * time.Hour, Red: 48 * time.Hour},
	}
}

// TimeInStatus is the result of evaluating one task.
type TimeInStatus struct {
	// Tracked is false for completed and shipped tasks, which are not
	// measured at all.
	Tracked bool
	// Known is false when the current status has no anchor timestamp.
	Known   bool
	Elapsed time.Duration
	// Human renders the elapsed time in tiers: minutes under an hour,
	// hours-and-minutes under a day, days-and-hours beyond.
	Human string
	Level AlertLevel
}

// anchorTime returns the timestamp the task's current status is measured
// against. Review deliberately anchors to the prior completion timestamp,
// i.e. the moment the task left in_progress.
func anchorTime(task *models.Task) (time.Time, bool) {
	switch task.Status {
	case models.StatusAssigned:
		if task.CreatedAt.IsZero() {
			return time.Time{}, false
		}
		return task.CreatedAt, true
	case models.StatusInProgress:
		if task.StartedAt == nil {
			return time.Time{}, false
		}
		return *task.StartedAt, true
	case models.StatusReview:
		if task.CompletedAt == nil {
			return time.Time{}, false
		}
		return *task.CompletedAt, true
	default:
		return time.Time{}, false
	}
}

// ComputeTimeInStatus evaluates how long the task has sat in its current
// status and the resulting alert level. It is a pure function of its inputs.
func ComputeTimeInStatus(task *models.Task, now time.Time, thresholds Thresholds) TimeInStatus {
	if task.Status.IsTerminal() {
		return TimeInStatus{Tracked: false}
	}

	anchor, ok := anchorTime(task)
	if !ok {
		return TimeInStatus{Tracked: true, Known: false, Level: AlertNone}
	}

	elapsed := now.Sub(anchor)
	if elapsed < 0 {
		elapsed = 0
	}

	result := TimeInStatus{
		Tracked: true,
		Known:   true,
		Elapsed: elapsed,
		Human:   FormatElapsed(elapsed),
		Level:   AlertNone,
	}

	t, ok := thresholds[task.Status]
	if !ok {
		return result
	}
	switch {
	case t.Red > 0 && elapsed >= t.Red:
		result.Level = AlertRed
	case t.Yellow > 0 && elapsed >= t.Yellow:
		result.Level = AlertYellow
	}
	return result
}

// FormatElapsed renders a duration as the dashboard's tiered human string.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		days := int(d.Hours()) / 24
		h := int(d.Hours()) - days*24
		return fmt.Sprintf("%dd %dh", days, h)
	}
}
