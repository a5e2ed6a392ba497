package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	apperrors "resumatch/internal/errors"
)

// ReloadHook observes every reload attempt.
type ReloadHook func(ctx context.Context, snapshot *Snapshot, duration time.Duration, err error)

// Store publishes the current snapshot. Readers always get one complete
// snapshot; a failed reload leaves the previous one in place.
type Store struct {
	source  Source
	current atomic.Pointer[Snapshot]
	logger  *apperrors.Logger

	reloadMu    sync.Mutex
	reloads     atomic.Int64
	failures    atomic.Int64
	lastErrMu   sync.RWMutex
	lastErr     error
	lastErrTime time.Time
	hooks       []ReloadHook
}

// StoreStats reports reload activity.
type StoreStats struct {
	Source        string    `json:"source"`
	Loaded        bool      `json:"loaded"`
	LoadedAt      time.Time `json:"loaded_at,omitzero"`
	Vocabulary    int       `json:"vocabulary_size"`
	Jobs          int       `json:"job_count"`
	Reloads       int64     `json:"reloads"`
	Failures      int64     `json:"failures"`
	LastError     string    `json:"last_error,omitempty"`
	LastErrorTime time.Time `json:"last_error_time,omitzero"`
}

// NewStore creates a store over source. Nothing is loaded until Reload.
func NewStore(source Source, logger *apperrors.Logger, hooks ...ReloadHook) *Store {
	return &Store{
		source: source,
		logger: logger,
		hooks:  hooks,
	}
}

// Source returns the underlying source.
func (s *Store) Source() Source {
	return s.source
}

// Reload loads a fresh snapshot and publishes it on success.
func (s *Store) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	snapshot, err := s.source.Load(ctx)
	duration := time.Since(start)

	for _, hook := range s.hooks {
		hook(ctx, snapshot, duration, err)
	}

	if err != nil {
		s.failures.Add(1)
		s.lastErrMu.Lock()
		s.lastErr = err
		s.lastErrTime = time.Now()
		s.lastErrMu.Unlock()

		s.logger.LogError(err, "Catalog reload failed, keeping previous snapshot",
			"source", s.source.Name(),
			"has_previous", s.current.Load() != nil)
		return err
	}

	s.current.Store(snapshot)
	s.reloads.Add(1)
	s.logger.Info("Catalog loaded",
		"source", snapshot.Source,
		"vocabulary_size", len(snapshot.Vocabulary),
		"job_count", len(snapshot.Jobs),
		"duration", duration.String())
	return nil
}

// Snapshot returns the current snapshot, or a catalog error if nothing has
// loaded yet.
func (s *Store) Snapshot() (*Snapshot, error) {
	snapshot := s.current.Load()
	if snapshot == nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "catalog has not been loaded", nil)
	}
	return snapshot, nil
}

// Stats returns reload counters and the current snapshot summary.
func (s *Store) Stats() StoreStats {
	stats := StoreStats{
		Source:   s.source.Name(),
		Reloads:  s.reloads.Load(),
		Failures: s.failures.Load(),
	}
	if snapshot := s.current.Load(); snapshot != nil {
		stats.Loaded = true
		stats.LoadedAt = snapshot.LoadedAt
		stats.Vocabulary = len(snapshot.Vocabulary)
		stats.Jobs = len(snapshot.Jobs)
	}

	s.lastErrMu.RLock()
	if s.lastErr != nil {
		stats.LastError = s.lastErr.Error()
		stats.LastErrorTime = s.lastErrTime
	}
	s.lastErrMu.RUnlock()
	return stats
}

// Close releases the source.
func (s *Store) Close() error {
	return s.source.Close()
}
