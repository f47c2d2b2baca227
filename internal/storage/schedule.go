package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/valter-silva-au/brainboard/internal/cache"
	"gopkg.in/yaml.v3"
)

// ScheduleSlot is one planned publishing slot in schedule.yaml.
type ScheduleSlot struct {
	Date       string `yaml:"date"`
	Slot       string `yaml:"slot,omitempty"`
	IdeaNumber int    `yaml:"idea,omitempty"`
	Channel    string `yaml:"channel,omitempty"`
	Notes      string `yaml:"notes,omitempty"`
}

// ScheduleFileData is the top-level structure of schedule.yaml.
type ScheduleFileData struct {
	Version string         `yaml:"version"`
	Slots   []ScheduleSlot `yaml:"slots"`
}

// ScheduleStore reads the schedule data file.
type ScheduleStore struct {
	basePath string
	cache    *cache.Cache
}

// NewScheduleStore creates a schedule reader rooted at base.
func NewScheduleStore(basePath string, c *cache.Cache) *ScheduleStore {
	return &ScheduleStore{basePath: basePath, cache: c}
}

// Slots returns the planned slots. Missing or malformed files degrade to an
// empty list.
func (s *ScheduleStore) Slots() ([]ScheduleSlot, error) {
	v, err := s.cache.Get(cache.CategorySchedule, func() (any, error) {
		data, err := os.ReadFile(filepath.Join(s.basePath, ScheduleFile))
		if err != nil {
			if os.IsNotExist(err) {
				return []ScheduleSlot{}, nil
			}
			return nil, err
		}
		var file ScheduleFileData
		if err := yaml.Unmarshal(data, &file); err != nil {
			return []ScheduleSlot{}, nil
		}
		return file.Slots, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ScheduleSlot), nil
}

// RecurringDef is one recurring task definition in recurring.yaml. Schedule
// holds a standard five-field cron expression or a @-descriptor.
type RecurringDef struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Schedule  string   `yaml:"schedule"`
	Assignees []string `yaml:"assignees,omitempty"`
	Enabled   *bool    `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the definition is active. Definitions default to
// enabled when the field is omitted.
func (r RecurringDef) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// recurringFile is the top-level structure of recurring.yaml.
type recurringFile struct {
	Version string         `yaml:"version"`
	Tasks   []RecurringDef `yaml:"tasks"`
}

// RecurringStore reads the recurring task definitions.
type RecurringStore struct {
	basePath string
	cache    *cache.Cache
}

// NewRecurringStore creates a recurring-definitions reader rooted at base.
func NewRecurringStore(basePath string, c *cache.Cache) *RecurringStore {
	return &RecurringStore{basePath: basePath, cache: c}
}

// Definitions returns the recurring task definitions whose cron schedules
// parse. Definitions with invalid schedules are skipped rather than failing
// the whole read.
func (s *RecurringStore) Definitions() ([]RecurringDef, error) {
	v, err := s.cache.Get(cache.CategoryRecurring, func() (any, error) {
		data, err := os.ReadFile(filepath.Join(s.basePath, RecurringFile))
		if err != nil {
			if os.IsNotExist(err) {
				return []RecurringDef{}, nil
			}
			return nil, err
		}
		var file recurringFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return []RecurringDef{}, nil
		}

		defs := make([]RecurringDef, 0, len(file.Tasks))
		for _, def := range file.Tasks {
			if err := ValidateSchedule(def.Schedule); err != nil {
				continue
			}
			defs = append(defs, def)
		}
		return defs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]RecurringDef), nil
}

// ValidateSchedule checks that a definition's schedule is a parseable
// standard cron expression or descriptor such as "@daily".
func ValidateSchedule(spec string) error {
	if spec == "" {
		return fmt.Errorf("empty schedule")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return nil
}
