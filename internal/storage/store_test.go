package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/brainboard/internal/cache"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

func newTestStore(t *testing.T) (*StructuredStore, string, *cache.Cache) {
	t.Helper()
	dir := t.TempDir()
	c := cache.New()
	return NewStructuredStore(dir, c), dir, c
}

func TestStructuredStore_MissingFileIsEmptyDocument(t *testing.T) {
	store, _, _ := newTestStore(t)

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("loading missing store: %v", err)
	}
	if len(doc.Tasks) != 0 || len(doc.Agents) != 0 || len(doc.Activities) != 0 || len(doc.Notifications) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestStructuredStore_SaveLoadRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t)

	doc := models.NewStoreDocument()
	doc.Tasks = append(doc.Tasks, models.Task{
		ID:        "t-1",
		Title:     "wire the dashboard",
		Status:    models.StatusAssigned,
		CreatedAt: time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC),
	})
	if err := store.Save(doc); err != nil {
		t.Fatalf("saving store: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("loading store: %v", err)
	}
	if len(loaded.Tasks) != 1 || loaded.Tasks[0].ID != "t-1" {
		t.Fatalf("unexpected tasks after round trip: %+v", loaded.Tasks)
	}
}

func TestStructuredStore_SaveInvalidatesCache(t *testing.T) {
	store, dir, _ := newTestStore(t)

	if err := store.Save(models.NewStoreDocument()); err != nil {
		t.Fatalf("saving store: %v", err)
	}
	if _, err := store.Load(); err != nil {
		t.Fatalf("priming cache: %v", err)
	}

	// Mutate the file behind the store's back, then save again: the save
	// drops the cache entry, so the next load must observe the saved state,
	// not the memoized one.
	doc := models.NewStoreDocument()
	doc.Agents = append(doc.Agents, models.Agent{ID: "agent-1", Status: models.AgentActive})
	if err := store.Save(doc); err != nil {
		t.Fatalf("saving mutated store: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("reloading store: %v", err)
	}
	if len(loaded.Agents) != 1 {
		t.Errorf("expected reload to see saved agent, got %+v", loaded.Agents)
	}

	// Sanity: the document actually hit disk.
	if _, err := os.Stat(filepath.Join(dir, StoreFile)); err != nil {
		t.Errorf("expected store file on disk: %v", err)
	}
}

func TestStructuredStore_ExternalEditVisibleAfterInvalidation(t *testing.T) {
	store, dir, c := newTestStore(t)

	if err := store.Save(models.NewStoreDocument()); err != nil {
		t.Fatalf("saving store: %v", err)
	}
	if _, err := store.Load(); err != nil {
		t.Fatalf("priming cache: %v", err)
	}

	// Simulate an external editor rewriting the file, followed by the
	// watcher dropping the cache entry.
	edited := `{"tasks":[{"id":"ext-1","title":"edited outside","status":"assigned"}]}`
	if err := os.WriteFile(filepath.Join(dir, StoreFile), []byte(edited), 0o600); err != nil {
		t.Fatalf("writing external edit: %v", err)
	}

	stale, err := store.Load()
	if err != nil {
		t.Fatalf("loading store: %v", err)
	}
	if len(stale.Tasks) != 0 {
		t.Fatal("expected cached document before invalidation")
	}

	c.Invalidate(cache.CategoryStore)

	fresh, err := store.Load()
	if err != nil {
		t.Fatalf("reloading store: %v", err)
	}
	if len(fresh.Tasks) != 1 || fresh.Tasks[0].ID != "ext-1" {
		t.Errorf("expected external edit after invalidation, got %+v", fresh.Tasks)
	}
}

func TestStructuredStore_MalformedJSONIsError(t *testing.T) {
	store, dir, _ := newTestStore(t)

	if err := os.WriteFile(filepath.Join(dir, StoreFile), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing malformed store: %v", err)
	}

	if _, err := store.Load(); err == nil {
		t.Fatal("expected error loading malformed store document")
	}
}

func TestStructuredStore_Mutate(t *testing.T) {
	store, _, _ := newTestStore(t)

	err := store.Mutate(func(doc *models.StoreDocument) error {
		doc.Tasks = append(doc.Tasks, models.Task{ID: "t-1", Title: "first", Status: models.StatusAssigned})
		return nil
	})
	if err != nil {
		t.Fatalf("mutating store: %v", err)
	}

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("loading store: %v", err)
	}
	if len(doc.Tasks) != 1 {
		t.Fatalf("expected 1 task after mutate, got %d", len(doc.Tasks))
	}
}

func TestStructuredStore_MutateNoChangeSkipsSave(t *testing.T) {
	store, dir, c := newTestStore(t)

	if _, err := store.Load(); err != nil {
		t.Fatalf("priming cache: %v", err)
	}

	err := store.Mutate(func(doc *models.StoreDocument) error {
		return ErrNoChange
	})
	if err != nil {
		t.Fatalf("no-change mutate must succeed, got %v", err)
	}

	// Nothing was written and the cache entry survived.
	if _, statErr := os.Stat(filepath.Join(dir, StoreFile)); !os.IsNotExist(statErr) {
		t.Error("expected no store file after a no-change mutation")
	}
	if _, ok := c.Peek(cache.CategoryStore); !ok {
		t.Error("no-change mutation must not invalidate the store region")
	}
}

func TestStructuredStore_MutateErrorSkipsSave(t *testing.T) {
	store, dir, _ := newTestStore(t)

	wantErr := os.ErrInvalid
	err := store.Mutate(func(doc *models.StoreDocument) error {
		doc.Tasks = append(doc.Tasks, models.Task{ID: "t-1"})
		return wantErr
	})
	if err == nil {
		t.Fatal("expected mutate error to propagate")
	}

	if _, statErr := os.Stat(filepath.Join(dir, StoreFile)); !os.IsNotExist(statErr) {
		t.Error("expected no store file when the mutation fails")
	}
}
