// Package storage reads and writes the on-disk resources the dashboard
// mirrors: the structured store document, the markdown idea log, and the
// auxiliary per-category files. All reads go through the cache layer; all
// writes invalidate the owning region synchronously.
package storage

import (
	"path/filepath"

	"github.com/valter-silva-au/brainboard/internal/cache"
)

// File and directory names under the data root, one per cache category.
const (
	StoreFile     = "store.json"
	IdeaLogFile   = "ideas.md"
	KnowledgeDir  = "knowledge"
	DraftsDir     = "drafts"
	BookFile      = "book.yaml"
	ScheduleFile  = "schedule.yaml"
	RecurringFile = "recurring.yaml"
)

// WatchPaths returns the paths under base the file watcher should observe.
func WatchPaths(base string) []string {
	return []string{
		base,
		filepath.Join(base, KnowledgeDir),
		filepath.Join(base, DraftsDir),
	}
}

// WatchRules maps changed paths to their owning cache category. Rules are
// ordered most-specific first; the directories must precede the bare files so
// a draft save inside drafts/ never matches a file rule.
func WatchRules() []cache.PathRule {
	return []cache.PathRule{
		{Substr: KnowledgeDir + "/", Category: cache.CategoryKnowledge},
		{Substr: DraftsDir + "/", Category: cache.CategoryDrafts},
		{Substr: StoreFile, Category: cache.CategoryStore},
		{Substr: IdeaLogFile, Category: cache.CategoryIdeas},
		{Substr: BookFile, Category: cache.CategoryBook},
		{Substr: ScheduleFile, Category: cache.CategorySchedule},
		{Substr: RecurringFile, Category: cache.CategoryRecurring},
	}
}
