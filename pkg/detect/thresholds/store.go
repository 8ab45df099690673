// Package thresholds holds the per-organization threshold cache. Detector
// passes read a whole ThresholdSet by value; replacement is atomic under the
// store mutex, so a pass never observes a half-updated mix.
package thresholds

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/singura/singura/pkg/config"
)

// ErrLoadFailed is returned by Apply when the offered set is invalid. Loader
// failures are not returned: GetFor logs them once per organization and
// serves defaults.
var ErrLoadFailed = errors.New("threshold load failed")

// Loader fetches RL-optimized overrides for an organization. A single bounded
// call to persistence; the store handles retry and fallback.
type Loader interface {
	Load(ctx context.Context, organizationID string) (config.ThresholdSet, error)
}

// Store caches one ThresholdSet per organization.
type Store struct {
	loader   Loader
	defaults config.ThresholdSet
	logger   *slog.Logger

	mu     sync.RWMutex
	cache  map[string]config.ThresholdSet
	warned map[string]bool
}

// Option configures the store.
type Option func(*Store)

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDefaults overrides the shipped calibration constants.
func WithDefaults(d config.ThresholdSet) Option {
	return func(s *Store) { s.defaults = d }
}

// NewStore builds a store. A nil loader means defaults-only operation.
func NewStore(loader Loader, opts ...Option) *Store {
	s := &Store{
		loader:   loader,
		defaults: config.DefaultThresholds(),
		logger:   slog.Default(),
		cache:    make(map[string]config.ThresholdSet),
		warned:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetFor resolves the active threshold set for an organization. Cache miss
// triggers a load with a single retry, then default fallback.
func (s *Store) GetFor(ctx context.Context, organizationID string) config.ThresholdSet {
	if organizationID == "" {
		return s.defaults
	}

	s.mu.RLock()
	set, ok := s.cache[organizationID]
	s.mu.RUnlock()
	if ok {
		return set
	}
	if s.loader == nil {
		return s.defaults
	}

	set, err := s.loader.Load(ctx, organizationID)
	if err != nil {
		set, err = s.loader.Load(ctx, organizationID)
	}
	if err != nil || !set.Valid() {
		s.warnOnce(organizationID, err)
		return s.defaults
	}

	s.mu.Lock()
	s.cache[organizationID] = set
	s.mu.Unlock()
	return set
}

// Apply installs a new set for an organization, replacing the cached one
// whole. Invalid sets are rejected.
func (s *Store) Apply(organizationID string, set config.ThresholdSet) error {
	if !set.Valid() {
		return ErrLoadFailed
	}
	s.mu.Lock()
	s.cache[organizationID] = set
	delete(s.warned, organizationID)
	s.mu.Unlock()
	return nil
}

// Refresh invalidates the cached entry; the next GetFor reloads.
func (s *Store) Refresh(organizationID string) {
	s.mu.Lock()
	delete(s.cache, organizationID)
	s.mu.Unlock()
}

// Defaults returns the fallback set.
func (s *Store) Defaults() config.ThresholdSet {
	return s.defaults
}

func (s *Store) warnOnce(organizationID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warned[organizationID] {
		return
	}
	s.warned[organizationID] = true
	s.logger.Warn("threshold load failed, using defaults",
		"organization", organizationID, "error", err)
}
