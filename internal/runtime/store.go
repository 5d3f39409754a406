package runtime

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
)

// Store owns the document state. The state is never mutated in place: every
// reducer run replaces it wholesale.
//
// External dispatches are processed one at a time, each to completion (its
// transition plus every follow-up it transitively schedules) before the next
// one begins.
type Store struct {
	reducer Reducer

	mu       sync.Mutex // serializes external dispatches
	stateMu  sync.RWMutex
	state    domain.State
	dispatch DispatchFunc

	// late holds follow-ups scheduled after their reducer settled while an
	// external dispatch is in progress. Nil when the store is idle.
	lateMu sync.Mutex
	late   *[]Envelope

	middleware []Middleware
	listeners  []Listener
	settled    []func(context.Context, domain.State)
	runHooks   []RunHook
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Listener is notified after every committed transition, follow-ups included.
// Listeners run while the store is dispatching: like reducers, they must not
// call Store.Dispatch (or anything that reaches it, such as Editor.Dispatch),
// which would block forever. Use WithSettledHook for work that dispatches.
type Listener func(prev, next domain.State, env Envelope)

// RunHook is called on the dispatching goroutine, with the store held,
// before an external dispatch runs. The returned func, if any, is called once
// the dispatch and all of its follow-ups are committed, still holding the
// store.
type RunHook func(ctx context.Context) func()

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMiddleware adds middleware in front of the queueable dispatcher.
// The first middleware given is the outermost.
func WithMiddleware(mw ...Middleware) StoreOption {
	return func(s *Store) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithListener registers a transition listener.
func WithListener(l Listener) StoreOption {
	return func(s *Store) {
		s.listeners = append(s.listeners, l)
	}
}

// WithSettledHook registers fn to run after each external dispatch has
// completed and the store is free to accept the next one. fn receives the
// context the dispatch was started with.
func WithSettledHook(fn func(context.Context, domain.State)) StoreOption {
	return func(s *Store) {
		s.settled = append(s.settled, fn)
	}
}

// WithRunHook registers a hook bracketing every external dispatch.
func WithRunHook(hook RunHook) StoreOption {
	return func(s *Store) {
		s.runHooks = append(s.runHooks, hook)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) StoreOption {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store around reducer, starting from initial.
// The queueable dispatcher is always installed as the innermost middleware.
func NewStore(reducer Reducer, initial domain.State, opts ...StoreOption) *Store {
	s := &Store{
		reducer: reducer,
		state:   initial,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	chain := append(append([]Middleware{}, s.middleware...), Queueable())
	api := storeAPI{s}
	dispatch := s.reduce
	for i := len(chain) - 1; i >= 0; i-- {
		dispatch = chain[i](api)(dispatch)
	}
	s.dispatch = dispatch
	return s
}

// State returns the current committed state.
func (s *Store) State() domain.State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Dispatch runs action and all of its follow-ups, then returns.
// It must not be called from inside a reducer or a Listener.
func (s *Store) Dispatch(action domain.Action) {
	s.DispatchContext(context.Background(), action)
}

// DispatchContext is Dispatch with a context handed to run and settled hooks.
// The context does not cancel local transitions.
func (s *Store) DispatchContext(ctx context.Context, action domain.Action) {
	state := s.run(ctx, action)
	for _, fn := range s.settled {
		fn(ctx, state)
	}
}

func (s *Store) run(ctx context.Context, action domain.Action) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	var done []func()
	for _, hook := range s.runHooks {
		if fn := hook(ctx); fn != nil {
			done = append(done, fn)
		}
	}
	defer func() {
		for _, fn := range done {
			fn()
		}
	}()

	s.lateMu.Lock()
	s.late = &[]Envelope{}
	s.lateMu.Unlock()

	s.dispatch(Envelope{Action: action})
	for {
		env, ok := s.popLate(true)
		if !ok {
			break
		}
		s.dispatch(env)
	}
	return s.State()
}

// popLate takes the oldest late follow-up. When the queue is empty and
// closing is set, the store is marked idle under the same lock, so a late
// follow-up is either drained here or submitted as a new external dispatch.
func (s *Store) popLate(closing bool) (Envelope, bool) {
	s.lateMu.Lock()
	defer s.lateMu.Unlock()
	if s.late == nil {
		return Envelope{}, false
	}
	if len(*s.late) == 0 {
		if closing {
			s.late = nil
		}
		return Envelope{}, false
	}
	env := (*s.late)[0]
	*s.late = (*s.late)[1:]
	return env, true
}

// submit runs a follow-up scheduled after its reducer settled. While an
// external dispatch is in progress the action joins it and is dispatched at
// the next commit, on the dispatching goroutine; otherwise it becomes a new
// external dispatch.
func (s *Store) submit(action domain.Action, depth int) {
	s.lateMu.Lock()
	if s.late != nil {
		*s.late = append(*s.late, Envelope{Action: action, Depth: depth})
		s.lateMu.Unlock()
		return
	}
	s.lateMu.Unlock()
	s.Dispatch(action)
}

// reduce is the end of the middleware chain.
func (s *Store) reduce(env Envelope) {
	prev := s.State()
	next := s.reducer(prev, env)

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()

	for _, l := range s.listeners {
		l(prev, next, env)
	}

	if s.hooks.OnDispatch != nil && env.Action != nil {
		s.hooks.OnDispatch(context.Background(), &domain.DispatchEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDispatch},
			Kind:      env.Action.Kind(),
			Depth:     env.Depth,
			Changed:   !reflect.DeepEqual(prev, next),
			Cells:     len(next.Cells),
		})
	}

	for {
		late, ok := s.popLate(false)
		if !ok {
			return
		}
		s.dispatch(late)
	}
}

type storeAPI struct {
	s *Store
}

func (a storeAPI) State() domain.State {
	return a.s.State()
}

func (a storeAPI) Dispatch(action domain.Action, depth int) {
	a.s.dispatch(Envelope{Action: action, Depth: depth})
}

func (a storeAPI) Submit(action domain.Action, depth int) {
	a.s.submit(action, depth)
}
