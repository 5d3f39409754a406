package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aretw0/folio/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]domain.State
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.State)
	}
	s.data[sessionID] = state.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		copied := state.Snapshot()
		return &copied, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newState() domain.State {
	return domain.NewState(false, "", false)
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "race-test"

	initial := newState()
	require.NoError(t, manager.Save(ctx, id, &initial))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update(ctx, id, func(s *domain.State) error {
				s.CurrentExecutionCount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, state.CurrentExecutionCount, "no update may be lost")
}

func TestManager_UpdateErrorSkipsSave(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	initial := newState()
	require.NoError(t, manager.Save(ctx, "doc", &initial))

	boom := errors.New("boom")
	err := manager.Update(ctx, "doc", func(s *domain.State) error {
		s.Busy = false
		return boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, state.Busy)

	err = manager.Update(ctx, "missing", func(*domain.State) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "atomic-init"

	var mu sync.Mutex
	inits := 0
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := manager.LoadOrStart(ctx, id, func() domain.State {
				mu.Lock()
				inits++
				mu.Unlock()
				return domain.NewState(false, "vscode-dark", false)
			})
			assert.NoError(t, err)
			assert.NotNil(t, state)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inits)
	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "vscode-dark", state.BaseTheme)
}

type recordingLocker struct {
	mu    sync.Mutex
	keys  []string
	fail  error
	freed int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.freed++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	initial := newState()
	require.NoError(t, manager.Save(ctx, "doc", &initial))
	require.NoError(t, manager.Delete(ctx, "doc"))
	assert.Equal(t, []string{"doc", "doc"}, locker.keys)
	assert.Equal(t, 2, locker.freed)

	locker.fail = errors.New("redis down")
	err := manager.Save(ctx, "doc", &initial)
	assert.ErrorIs(t, err, locker.fail)
}
