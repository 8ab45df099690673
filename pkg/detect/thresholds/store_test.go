package thresholds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/singura/singura/pkg/config"
)

// fakeLoader scripts loader behavior per call.
type fakeLoader struct {
	mu    sync.Mutex
	calls int
	sets  []config.ThresholdSet
	errs  []error
}

func (f *fakeLoader) Load(ctx context.Context, orgID string) (config.ThresholdSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return config.ThresholdSet{}, f.errs[i]
	}
	if i < len(f.sets) {
		return f.sets[i], nil
	}
	return config.DefaultThresholds(), nil
}

func customSet() config.ThresholdSet {
	s := config.DefaultThresholds()
	s.Velocity.FilesPerSecond = 42
	s.Version = 7
	s.Source = config.SourceRLOptimized
	return s
}

func TestStore_CachesPerOrganization(t *testing.T) {
	loader := &fakeLoader{sets: []config.ThresholdSet{customSet()}}
	store := NewStore(loader)

	got := store.GetFor(context.Background(), "org-1")
	if got.Velocity.FilesPerSecond != 42 {
		t.Fatalf("FilesPerSecond = %v, want 42", got.Velocity.FilesPerSecond)
	}
	// Second call must hit the cache.
	store.GetFor(context.Background(), "org-1")
	if loader.calls != 1 {
		t.Errorf("loader calls = %d, want 1", loader.calls)
	}
}

func TestStore_RetriesOnceThenFallsBack(t *testing.T) {
	boom := errors.New("db down")
	loader := &fakeLoader{errs: []error{boom, boom}}
	store := NewStore(loader)

	got := store.GetFor(context.Background(), "org-1")
	if got.Source != config.SourceDefault {
		t.Errorf("source = %s, want default fallback", got.Source)
	}
	if loader.calls != 2 {
		t.Errorf("loader calls = %d, want 2 (one retry)", loader.calls)
	}
}

func TestStore_RetrySucceeds(t *testing.T) {
	boom := errors.New("transient")
	loader := &fakeLoader{
		errs: []error{boom, nil},
		sets: []config.ThresholdSet{{}, customSet()},
	}
	store := NewStore(loader)

	got := store.GetFor(context.Background(), "org-1")
	if got.Version != 7 {
		t.Errorf("version = %d, want the retried load", got.Version)
	}
}

func TestStore_InvalidSetFallsBack(t *testing.T) {
	bad := config.DefaultThresholds()
	bad.Velocity.FilesPerSecond = -1
	loader := &fakeLoader{sets: []config.ThresholdSet{bad, bad}}
	store := NewStore(loader)

	got := store.GetFor(context.Background(), "org-1")
	if got.Source != config.SourceDefault {
		t.Errorf("invalid load must fall back to defaults, got source %s", got.Source)
	}
}

func TestStore_RefreshInvalidates(t *testing.T) {
	loader := &fakeLoader{sets: []config.ThresholdSet{customSet(), config.DefaultThresholds()}}
	store := NewStore(loader)

	store.GetFor(context.Background(), "org-1")
	store.Refresh("org-1")
	store.GetFor(context.Background(), "org-1")
	if loader.calls != 2 {
		t.Errorf("loader calls = %d, want reload after refresh", loader.calls)
	}
}

func TestStore_ApplyReplacesWhole(t *testing.T) {
	store := NewStore(nil)
	next := customSet()
	next.UpdatedAt = time.Now()
	if err := store.Apply("org-1", next); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := store.GetFor(context.Background(), "org-1"); got.Version != 7 {
		t.Errorf("version = %d, want the applied set", got.Version)
	}

	// Apply with an invalid set must be rejected.
	bad := customSet()
	bad.Timing.SuspiciousCV = 0
	if err := store.Apply("org-1", bad); err == nil {
		t.Fatal("expected Apply to reject an invalid set")
	}
}

func TestStore_EmptyOrgUsesDefaults(t *testing.T) {
	loader := &fakeLoader{}
	store := NewStore(loader)
	got := store.GetFor(context.Background(), "")
	if got.Source != config.SourceDefault {
		t.Errorf("empty org must resolve defaults, got %s", got.Source)
	}
	if loader.calls != 0 {
		t.Errorf("loader must not be consulted for empty org")
	}
}

func TestStore_ConcurrentReaders(t *testing.T) {
	loader := &fakeLoader{sets: []config.ThresholdSet{customSet()}}
	store := NewStore(loader)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set := store.GetFor(context.Background(), "org-1")
			if !set.Valid() {
				t.Error("reader observed an invalid set")
			}
		}()
	}
	wg.Wait()
}
