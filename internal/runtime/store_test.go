package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(kind string) domain.Action {
	return domain.RawAction{Type: domain.ActionKind(kind)}
}

// recorder appends every reduced kind to the focused cell id so that the
// order of transitions is visible in the committed state.
func recorder(follow map[string][]string) CaseMap {
	cases := CaseMap{}
	for _, k := range []string{"A", "X", "Y", "Z", "late"} {
		kind := k
		cases[domain.ActionKind(kind)] = func(s domain.State, a domain.Action, queue QueueFunc) domain.State {
			s.FocusedCellID += kind
			for _, next := range follow[kind] {
				queue(raw(next))
			}
			return s
		}
	}
	return cases
}

func TestStore_FollowUpsAreDepthFirst(t *testing.T) {
	store := NewStore(Combine(recorder(map[string][]string{
		"A": {"X", "Y"},
		"X": {"Z"},
	})), domain.NewState(false, "", false))

	store.Dispatch(raw("A"))

	assert.Equal(t, "AXZY", store.State().FocusedCellID)
}

func TestStore_FollowUpSeesCommittedState(t *testing.T) {
	var seen string
	cases := CaseMap{
		"A": func(s domain.State, _ domain.Action, queue QueueFunc) domain.State {
			queue(raw("B"))
			s.SelectedCellID = "from-A"
			return s
		},
		"B": func(s domain.State, _ domain.Action, _ QueueFunc) domain.State {
			seen = s.SelectedCellID
			return s
		},
	}
	store := NewStore(Combine(cases), domain.NewState(false, "", false))

	store.Dispatch(raw("A"))

	assert.Equal(t, "from-A", seen)
}

func TestStore_LateQueueDispatchesImmediately(t *testing.T) {
	var captured QueueFunc
	cases := recorder(nil)
	cases["A"] = func(s domain.State, _ domain.Action, queue QueueFunc) domain.State {
		captured = queue
		s.FocusedCellID += "A"
		return s
	}
	store := NewStore(Combine(cases), domain.NewState(false, "", false))

	store.Dispatch(raw("A"))
	require.NotNil(t, captured)
	assert.Equal(t, "A", store.State().FocusedCellID)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		captured(raw("late"))
	}()
	wg.Wait()

	assert.Equal(t, "Alate", store.State().FocusedCellID)
}

func TestStore_LateQueueFromNestedReducer(t *testing.T) {
	var captured QueueFunc
	cases := recorder(nil)
	cases["A"] = func(s domain.State, _ domain.Action, queue QueueFunc) domain.State {
		captured = queue
		queue(raw("X"))
		s.FocusedCellID += "A"
		return s
	}
	cases["X"] = func(s domain.State, _ domain.Action, queue QueueFunc) domain.State {
		captured(raw("late"))
		queue(raw("Y"))
		s.FocusedCellID += "X"
		return s
	}
	store := NewStore(Combine(cases), domain.NewState(false, "", false))

	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Dispatch(raw("A"))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return")
	}

	assert.Equal(t, "AXlateY", store.State().FocusedCellID)
}

func TestStore_LateQueueDuringForeignDispatch(t *testing.T) {
	var captured QueueFunc
	release := make(chan struct{})
	entered := make(chan struct{})
	cases := recorder(nil)
	cases["A"] = func(s domain.State, _ domain.Action, queue QueueFunc) domain.State {
		captured = queue
		s.FocusedCellID += "A"
		return s
	}
	cases["B"] = func(s domain.State, _ domain.Action, _ QueueFunc) domain.State {
		close(entered)
		<-release
		s.FocusedCellID += "B"
		return s
	}
	store := NewStore(Combine(cases), domain.NewState(false, "", false))
	store.Dispatch(raw("A"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Dispatch(raw("B"))
	}()
	<-entered
	captured(raw("late"))
	close(release)
	<-done

	assert.Equal(t, "ABlate", store.State().FocusedCellID)
}

func TestStore_UnknownKindIsNoop(t *testing.T) {
	initial := domain.NewState(false, "", false)
	initial.FocusedCellID = "keep"
	store := NewStore(Combine(recorder(nil)), initial)

	store.Dispatch(raw("does-not-exist"))

	assert.Equal(t, initial, store.State())
}

func TestStore_CaseTypeMismatchIsNoop(t *testing.T) {
	cases := CaseMap{
		domain.KindFocusCell: Case(func(s domain.State, a domain.FocusCell, _ QueueFunc) domain.State {
			s.FocusedCellID = a.CellID
			return s
		}),
	}
	store := NewStore(Combine(cases), domain.NewState(false, "", false))

	store.Dispatch(domain.RawAction{Type: domain.KindFocusCell})
	assert.Empty(t, store.State().FocusedCellID)

	store.Dispatch(domain.FocusCell{CellID: "c1"})
	assert.Equal(t, "c1", store.State().FocusedCellID)
}

func TestStore_ListenersAndHooks(t *testing.T) {
	var kinds []domain.ActionKind
	var depths []int
	var settled int

	store := NewStore(
		Combine(recorder(map[string][]string{"A": {"X"}})),
		domain.NewState(false, "", false),
		WithListener(func(_, _ domain.State, env Envelope) {
			kinds = append(kinds, env.Action.Kind())
		}),
		WithLifecycleHooks(domain.LifecycleHooks{
			OnDispatch: func(_ context.Context, ev *domain.DispatchEvent) {
				depths = append(depths, ev.Depth)
				assert.True(t, ev.Changed)
			},
		}),
		WithSettledHook(func(context.Context, domain.State) { settled++ }),
	)

	store.Dispatch(raw("A"))

	assert.Equal(t, []domain.ActionKind{"A", "X"}, kinds)
	assert.Equal(t, []int{0, 1}, depths)
	assert.Equal(t, 1, settled)
}

func TestStore_RunHookBracketsFollowUps(t *testing.T) {
	type key struct{}
	var trace []string
	store := NewStore(
		Combine(recorder(map[string][]string{"A": {"X"}})),
		domain.NewState(false, "", false),
		WithListener(func(_, _ domain.State, env Envelope) {
			trace = append(trace, string(env.Action.Kind()))
		}),
		WithRunHook(func(ctx context.Context) func() {
			trace = append(trace, "begin:"+ctx.Value(key{}).(string))
			return func() { trace = append(trace, "end") }
		}),
	)

	store.DispatchContext(context.WithValue(context.Background(), key{}, "run"), raw("A"))

	assert.Equal(t, []string{"begin:run", "A", "X", "end"}, trace)
}

func TestStore_SettledHookCanDispatch(t *testing.T) {
	var store *Store
	once := false
	store = NewStore(Combine(recorder(nil)), domain.NewState(false, "", false),
		WithSettledHook(func(context.Context, domain.State) {
			if !once {
				once = true
				store.Dispatch(raw("Y"))
			}
		}),
	)

	store.Dispatch(raw("A"))

	assert.Equal(t, "AY", store.State().FocusedCellID)
}

func TestStore_MiddlewareOrder(t *testing.T) {
	var trace []string
	tag := func(name string) Middleware {
		return func(API) func(DispatchFunc) DispatchFunc {
			return func(next DispatchFunc) DispatchFunc {
				return func(env Envelope) {
					trace = append(trace, name+":"+string(env.Action.Kind()))
					next(env)
				}
			}
		}
	}
	store := NewStore(
		Combine(recorder(map[string][]string{"A": {"X"}})),
		domain.NewState(false, "", false),
		WithMiddleware(tag("outer"), tag("inner")),
	)

	store.Dispatch(raw("A"))

	assert.Equal(t, []string{"outer:A", "inner:A", "outer:X", "inner:X"}, trace)
}

func TestStore_ConcurrentDispatchesAreSerialized(t *testing.T) {
	cases := CaseMap{
		"inc": func(s domain.State, _ domain.Action, queue QueueFunc) domain.State {
			s.CurrentExecutionCount++
			queue(raw("inc2"))
			return s
		},
		"inc2": func(s domain.State, _ domain.Action, _ QueueFunc) domain.State {
			s.PendingVariableCount++
			return s
		},
	}
	store := NewStore(Combine(cases), domain.NewState(false, "", false))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Dispatch(raw("inc"))
		}()
	}
	wg.Wait()

	st := store.State()
	assert.Equal(t, 50, st.CurrentExecutionCount)
	assert.Equal(t, 50, st.PendingVariableCount)
}
