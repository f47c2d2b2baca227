package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/brainboard/internal/cache"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// ErrNoChange is returned by a Mutate fn to signal the document was left
// untouched. Mutate treats it as success and skips the save, so a documented
// no-op does not rewrite the file or invalidate the cache.
var ErrNoChange = errors.New("store: no change")

// StructuredStore persists the single JSON document holding tasks, agents,
// activities, and notifications. Load is read-through against the cache;
// Save overwrites the whole file and drops the cache entry so the next Load
// re-reads from disk instead of serving a stale memoized copy.
//
// There is deliberately no locking across Load/Save: mutation paths perform
// an unguarded read-modify-write and the last writer wins, which is accepted
// for a single local writer.
type StructuredStore struct {
	basePath string
	cache    *cache.Cache
}

// NewStructuredStore creates a store rooted at the given base directory.
func NewStructuredStore(basePath string, c *cache.Cache) *StructuredStore {
	return &StructuredStore{basePath: basePath, cache: c}
}

func (s *StructuredStore) filePath() string {
	return filepath.Join(s.basePath, StoreFile)
}

// Load returns the full in-memory document, populating the cache region on a
// miss. A missing file yields an empty-but-valid document so a fresh
// installation starts clean.
func (s *StructuredStore) Load() (*models.StoreDocument, error) {
	v, err := s.cache.Get(cache.CategoryStore, func() (any, error) {
		return s.readDocument()
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.StoreDocument), nil
}

func (s *StructuredStore) readDocument() (*models.StoreDocument, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewStoreDocument(), nil
		}
		return nil, fmt.Errorf("reading store document: %w", err)
	}

	doc := models.NewStoreDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing store document: %w", err)
	}
	return doc, nil
}

// Save persists the whole document in one overwrite and invalidates the
// store region. Filesystem errors here are hard failures surfaced to the
// caller: losing a write silently is the one thing the store must not do.
func (s *StructuredStore) Save(doc *models.StoreDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store document: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(s.filePath(), data, 0o600); err != nil {
		return fmt.Errorf("writing store document: %w", err)
	}

	s.cache.Invalidate(cache.CategoryStore)
	return nil
}

// Mutate runs fn against a freshly loaded document and saves the result.
// Every task/agent/notification mutation goes through here so the
// load-mutate-save sequence stays in one place.
func (s *StructuredStore) Mutate(fn func(doc *models.StoreDocument) error) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}
	return s.Save(doc)
}
