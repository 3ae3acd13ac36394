package repository

import (
	"fmt"
	"sync"
	"testing"

	"github.com/okian/marquee/internal/domain/model"
)

func TestListingCache_GetPut(t *testing.T) {
	c := NewListingCache(WithInitialCapacity(8))

	if _, ok := c.Get(1, "a"); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := model.Listing{FilmID: "a", Title: "A", AverageReviewScore: "7.0"}
	if got := c.Put(1, "a", want); got != want {
		t.Errorf("expected put to return stored value, got %+v", got)
	}

	got, ok := c.Get(1, "a")
	if !ok || got != want {
		t.Errorf("expected hit with %+v, got %+v (ok=%v)", want, got, ok)
	}

	if _, ok := c.Get(2, "a"); ok {
		t.Error("expected other generation to miss")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Entries != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestListingCache_PutKeepsFirstValue(t *testing.T) {
	c := NewListingCache()

	first := model.Listing{FilmID: "a", Title: "first"}
	c.Put(1, "a", first)
	got := c.Put(1, "a", model.Listing{FilmID: "a", Title: "second"})

	if got != first {
		t.Errorf("expected first value to win, got %+v", got)
	}
	if l, _ := c.Get(1, "a"); l != first {
		t.Errorf("expected cached first value, got %+v", l)
	}
}

func TestListingCache_Purge(t *testing.T) {
	c := NewListingCache()
	c.Put(1, "a", model.Listing{FilmID: "a"})
	c.Put(1, "b", model.Listing{FilmID: "b"})
	c.Put(2, "a", model.Listing{FilmID: "a"})

	if removed := c.Purge(2); removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", c.Len())
	}
	if _, ok := c.Get(2, "a"); !ok {
		t.Error("expected current generation to survive")
	}

	// stale writers are ignored
	c.Put(1, "c", model.Listing{FilmID: "c"})
	if c.Len() != 1 {
		t.Errorf("expected stale put to be dropped, got %d entries", c.Len())
	}

	// the floor never moves backwards
	c.Purge(1)
	if c.Stats().Floor != 2 {
		t.Errorf("expected floor 2, got %d", c.Stats().Floor)
	}
}

func TestListingCache_ConcurrentAccess(t *testing.T) {
	c := NewListingCache()
	const workers = 16
	const films = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			gen := uint64(w%3 + 1)
			for i := 0; i < films; i++ {
				id := fmt.Sprintf("f%d", i)
				if _, ok := c.Get(gen, id); !ok {
					c.Put(gen, id, model.Listing{FilmID: id})
				}
			}
			if w%5 == 0 {
				c.Purge(gen)
			}
		}(w)
	}
	wg.Wait()

	stats := c.Stats()
	if stats.Hits+stats.Misses != workers*films {
		t.Errorf("expected %d lookups, got %d", workers*films, stats.Hits+stats.Misses)
	}
	if stats.Entries > 3*films {
		t.Errorf("cache grew beyond the key space: %d", stats.Entries)
	}
}
