package cache

import (
	"errors"
	"sync"
	"testing"
)

func TestCache_GetComputesOnce(t *testing.T) {
	c := New()
	calls := 0
	compute := func() (any, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Get(CategoryStore, compute)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if v != "value" {
			t.Fatalf("unexpected value %v", v)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 compute call, got %d", calls)
	}
}

func TestCache_InvalidateForcesRecompute(t *testing.T) {
	c := New()
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	if _, err := c.Get(CategoryIdeas, compute); err != nil {
		t.Fatal(err)
	}
	c.Invalidate(CategoryIdeas)

	v, err := c.Get(CategoryIdeas, compute)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Errorf("expected recompute after invalidation, got %v", v)
	}
}

func TestCache_InvalidateIsLazy(t *testing.T) {
	c := New()
	if _, err := c.Get(CategoryBook, func() (any, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}

	c.Invalidate(CategoryBook)

	// No recompute happens until the next Get.
	if _, ok := c.Peek(CategoryBook); ok {
		t.Error("expected region empty after invalidation")
	}
}

func TestCache_InvalidateDuringComputeDropsResult(t *testing.T) {
	c := New()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Get(CategoryStore, func() (any, error) {
			close(entered)
			<-release
			return "old", nil
		}); err != nil {
			t.Error(err)
		}
	}()

	// Invalidate while the first compute is still running.
	<-entered
	c.Invalidate(CategoryStore)
	close(release)
	<-done

	// The stale result must not have been stored: the next Get recomputes.
	v, err := c.Get(CategoryStore, func() (any, error) { return "new", nil })
	if err != nil {
		t.Fatal(err)
	}
	if v != "new" {
		t.Errorf("expected recompute after mid-flight invalidation, got %v", v)
	}
}

func TestCache_InvalidateAllDuringComputeDropsResult(t *testing.T) {
	c := New()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Get(CategoryIdeas, func() (any, error) {
			close(entered)
			<-release
			return "old", nil
		})
	}()

	<-entered
	c.InvalidateAll()
	close(release)
	<-done

	if _, ok := c.Peek(CategoryIdeas); ok {
		t.Error("region should stay empty when InvalidateAll lands mid-compute")
	}
}

func TestCache_FailedComputeLeavesRegionEmpty(t *testing.T) {
	c := New()
	boom := errors.New("disk gone")

	if _, err := c.Get(CategoryStore, func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped compute error, got %v", err)
	}
	if _, ok := c.Peek(CategoryStore); ok {
		t.Error("failed compute must not populate the region")
	}

	// A later successful compute recovers.
	v, err := c.Get(CategoryStore, func() (any, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("recovery get: %v", err)
	}
	if v != "ok" {
		t.Errorf("unexpected value %v", v)
	}
}

func TestCache_RegionsAreIndependent(t *testing.T) {
	c := New()
	for _, cat := range AllCategories {
		cat := cat
		if _, err := c.Get(cat, func() (any, error) { return string(cat), nil }); err != nil {
			t.Fatal(err)
		}
	}

	c.Invalidate(CategoryDrafts)

	for _, cat := range AllCategories {
		_, ok := c.Peek(cat)
		if cat == CategoryDrafts && ok {
			t.Error("drafts region should be empty")
		}
		if cat != CategoryDrafts && !ok {
			t.Errorf("region %s should still be populated", cat)
		}
	}
}

func TestCache_InvalidateAll(t *testing.T) {
	c := New()
	for _, cat := range AllCategories {
		if _, err := c.Get(cat, func() (any, error) { return 1, nil }); err != nil {
			t.Fatal(err)
		}
	}

	c.InvalidateAll()

	for _, cat := range AllCategories {
		if _, ok := c.Peek(cat); ok {
			t.Errorf("region %s should be empty after InvalidateAll", cat)
		}
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := c.Get(CategoryStore, func() (any, error) { return "v", nil }); err != nil {
					t.Error(err)
					return
				}
				c.Invalidate(CategoryStore)
			}
		}()
	}
	wg.Wait()
}
