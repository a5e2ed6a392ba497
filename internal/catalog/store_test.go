package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "resumatch/internal/errors"
	"resumatch/internal/types"
)

type stubSource struct {
	mu    sync.Mutex
	vocab []string
	jobs  []types.JobRecord
	err   error
	loads int
}

func (s *stubSource) Name() string { return "stub" }
func (s *stubSource) Close() error { return nil }

func (s *stubSource) Load(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return NewSnapshot(s.Name(), s.vocab, s.jobs)
}

func (s *stubSource) set(vocab []string, jobs []types.JobRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab, s.jobs, s.err = vocab, jobs, err
}

func TestStoreSnapshotBeforeLoad(t *testing.T) {
	store := NewStore(&stubSource{}, testLogger(t))
	_, err := store.Snapshot()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCatalog))
	assert.False(t, store.Stats().Loaded)
}

func TestStoreReloadKeepsPreviousOnFailure(t *testing.T) {
	src := &stubSource{}
	src.set([]string{"go"}, []types.JobRecord{{Role: "Dev", RequiredSkills: []string{"go"}}}, nil)

	var hookCalls int
	var lastHookErr error
	store := NewStore(src, testLogger(t), func(_ context.Context, _ *Snapshot, _ time.Duration, err error) {
		hookCalls++
		lastHookErr = err
	})

	require.NoError(t, store.Reload(context.Background()))
	first, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, first.Vocabulary)

	src.set(nil, nil, errors.New("source down"))
	require.Error(t, store.Reload(context.Background()))

	current, err := store.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, current)

	stats := store.Stats()
	assert.True(t, stats.Loaded)
	assert.Equal(t, int64(1), stats.Reloads)
	assert.Equal(t, int64(1), stats.Failures)
	assert.Equal(t, "source down", stats.LastError)
	assert.Equal(t, 2, hookCalls)
	assert.EqualError(t, lastHookErr, "source down")
}

func TestStoreRejectsInvalidJobs(t *testing.T) {
	src := &stubSource{}
	src.set([]string{"go"}, []types.JobRecord{{Role: ""}}, nil)
	store := NewStore(src, testLogger(t))

	err := store.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestStoreConcurrentReadsSeeWholeSnapshots(t *testing.T) {
	src := &stubSource{}
	src.set([]string{"a"}, []types.JobRecord{{Role: "a"}}, nil)
	store := NewStore(src, testLogger(t))
	require.NoError(t, store.Reload(context.Background()))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := store.Snapshot()
				if !assert.NoError(t, err) {
					return
				}
				// vocabulary and jobs always come from the same load
				assert.Equal(t, snap.Vocabulary[0], snap.Jobs[0].Role)
			}
		}()
	}

	for i := range 50 {
		if i%2 == 0 {
			src.set([]string{"B"}, []types.JobRecord{{Role: "B"}}, nil)
		} else {
			src.set([]string{"a"}, []types.JobRecord{{Role: "a"}}, nil)
		}
		require.NoError(t, store.Reload(context.Background()))
	}
	close(stop)
	wg.Wait()
}
