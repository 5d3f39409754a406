package folio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/folio/internal/cellmatch"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/internal/reducers"
	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/bridge"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/gather"
	"github.com/aretw0/folio/pkg/ports"
)

// DefaultBaseTheme is the theme an editor opens with.
const DefaultBaseTheme = "vscode-light"

// Editor is the high-level entry point of the library. It owns one open
// document: its store, the outbound mailbox, and the host message listeners.
type Editor struct {
	store  *runtime.Store
	post   *bridge.PostOffice
	gather *gather.Listener

	listeners []ports.Listener
	sinks     []ports.MessageSink

	initial      domain.State
	hasInitial   bool
	baseTheme    string
	ignoreTheme  bool
	matcher      *cellmatch.Matcher
	newID        func() string
	middleware   []runtime.Middleware
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	gatherEngine ports.GatherEngine
	exporter     ports.NotebookExporter
	docs         ports.DocumentProvider
	snapshots    ports.StateStore
	snapshotID   string

	// saveMu orders autosaves so an older snapshot never overwrites a newer one.
	saveMu sync.Mutex
	closed atomic.Bool
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithInitialState starts the editor from a previously saved state.
func WithInitialState(state domain.State) Option {
	return func(e *Editor) {
		e.initial = state
		e.hasInitial = true
	}
}

// WithTheme sets the base theme of a fresh document. When ignore is set
// the light theme is forced.
func WithTheme(base string, ignore bool) Option {
	return func(e *Editor) {
		e.baseTheme = base
		e.ignoreTheme = ignore
	}
}

// WithMatcher overrides the cell marker rules.
func WithMatcher(m *cellmatch.Matcher) Option {
	return func(e *Editor) {
		e.matcher = m
	}
}

// WithIDGenerator overrides how new cell ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) {
		e.newID = fn
	}
}

// WithMiddleware adds dispatch middleware outside the logging middleware.
func WithMiddleware(mw ...runtime.Middleware) Option {
	return func(e *Editor) {
		e.middleware = append(e.middleware, mw...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithSink registers a destination for outbound messages. A sink that feeds
// a reply back into the editor synchronously must pass on the context it was
// handed (HandleMessage, DispatchContext); a plain Dispatch from inside a
// sink waits on the delivery that is calling it.
func WithSink(sink ports.MessageSink) Option {
	return func(e *Editor) {
		e.sinks = append(e.sinks, sink)
	}
}

// WithListener registers a listener for inbound host messages. Listeners
// run before the message is turned into an action.
func WithListener(l ports.Listener) Option {
	return func(e *Editor) {
		e.listeners = append(e.listeners, l)
	}
}

// WithGather attaches the gather capability. engine may be nil; gather
// requests then fail with domain.ErrGatherUnavailable. When engine also
// listens to host messages it is registered as a listener.
func WithGather(engine ports.GatherEngine, exporter ports.NotebookExporter, docs ports.DocumentProvider) Option {
	return func(e *Editor) {
		e.gatherEngine = engine
		e.exporter = exporter
		e.docs = docs
	}
}

// WithSnapshotStore saves the state under id after every dispatch.
func WithSnapshotStore(store ports.StateStore, id string) Option {
	return func(e *Editor) {
		e.snapshots = store
		e.snapshotID = id
	}
}

// New creates an editor.
func New(opts ...Option) *Editor {
	e := &Editor{
		baseTheme: DefaultBaseTheme,
		matcher:   cellmatch.Default(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.post = bridge.NewPostOffice(
		bridge.WithHooks(e.hooks),
		bridge.WithLogger(e.logger),
	)
	for _, sink := range e.sinks {
		e.post.AddSink(sink)
	}

	reducerOpts := []reducers.Option{
		reducers.WithMatcher(e.matcher),
		reducers.WithLogger(e.logger),
	}
	if e.newID != nil {
		reducerOpts = append(reducerOpts, reducers.WithIDGenerator(e.newID))
	}
	rs := reducers.New(e.post, reducerOpts...)

	initial := e.initial
	if !e.hasInitial {
		initial = domain.NewState(false, e.baseTheme, e.ignoreTheme)
	}

	middleware := append(append([]runtime.Middleware{}, e.middleware...), runtime.LoggingMiddleware(e.logger))
	e.store = runtime.NewStore(rs.Reducer(), initial,
		runtime.WithMiddleware(middleware...),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
		runtime.WithSettledHook(e.settled),
		runtime.WithRunHook(e.capture),
	)

	if e.exporter != nil && e.docs != nil {
		gatherOpts := []gather.Option{
			gather.WithDispatcher(func(ctx context.Context, a domain.Action) { _ = e.DispatchContext(ctx, a) }),
			gather.WithMatcher(e.matcher),
			gather.WithLogger(e.logger),
		}
		if e.newID != nil {
			gatherOpts = append(gatherOpts, gather.WithIDGenerator(e.newID))
		}
		e.gather = gather.NewListener(e.gatherEngine, e.exporter, e.docs, gatherOpts...)
		if l, ok := e.gatherEngine.(ports.Listener); ok {
			e.listeners = append(e.listeners, l)
		}
		e.listeners = append(e.listeners, e.gather)
	}

	return e
}

type captureKey struct{}

// capture records the messages posted by one external dispatch into the
// slice carried by ctx, if any.
func (e *Editor) capture(ctx context.Context) func() {
	out, ok := ctx.Value(captureKey{}).(*[]domain.Message)
	if !ok {
		return nil
	}
	stop := e.post.Capture()
	return func() { *out = stop() }
}

// settled runs once an external dispatch and all of its follow-ups are done.
func (e *Editor) settled(ctx context.Context, state domain.State) {
	e.post.Flush(ctx)

	if e.snapshots == nil {
		return
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	snapshot := e.store.State().Snapshot()
	if err := e.snapshots.Save(context.WithoutCancel(ctx), e.snapshotID, &snapshot); err != nil {
		e.logger.Error("failed to save snapshot", "document", e.snapshotID, "err", err)
	}
}

// Dispatch runs action and every follow-up it schedules, then delivers
// the outbound messages they produced. It returns once those messages have
// reached every sink, even when another goroutine is delivering.
func (e *Editor) Dispatch(action domain.Action) error {
	return e.DispatchContext(context.Background(), action)
}

// DispatchContext is Dispatch with ctx passed to the sinks. Cancelling ctx
// stops waiting for delivery; it never undoes the transition.
func (e *Editor) DispatchContext(ctx context.Context, action domain.Action) error {
	if e.closed.Load() {
		return domain.ErrClosed
	}
	e.store.DispatchContext(ctx, action)
	return nil
}

// DispatchMessages dispatches action like Dispatch and returns the outbound
// messages this dispatch produced, follow-ups included, in posting order.
// Messages from concurrent dispatches are not included.
func (e *Editor) DispatchMessages(ctx context.Context, action domain.Action) ([]domain.Message, error) {
	var out []domain.Message
	if err := e.DispatchContext(context.WithValue(ctx, captureKey{}, &out), action); err != nil {
		return nil, err
	}
	return out, nil
}

// State returns a snapshot of the current document state.
func (e *Editor) State() domain.State {
	return e.store.State().Snapshot()
}

// Subscribe returns the stream of outbound messages and a cancel function.
func (e *Editor) Subscribe(buffer int) (<-chan domain.Message, func()) {
	return e.post.Subscribe(buffer)
}

// HandleMessage processes one message from the execution host. Every
// listener sees it first; then it is decoded and dispatched. Kinds without
// an action are dispatched as no-ops. Listener errors are joined.
func (e *Editor) HandleMessage(ctx context.Context, msg domain.Message) error {
	if e.closed.Load() {
		return domain.ErrClosed
	}

	var errs []error
	for _, l := range e.listeners {
		if err := l.HandleMessage(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	action, err := bridge.DecodeMessage(msg)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to decode %q: %w", msg.Kind, err))
	} else if err := e.DispatchContext(ctx, action); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run handles inbound messages until the channel closes or ctx is done.
// Message errors are logged, not returned.
func (e *Editor) Run(ctx context.Context, inbound <-chan domain.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			if err := e.HandleMessage(ctx, msg); err != nil {
				if errors.Is(err, domain.ErrClosed) {
					return err
				}
				e.logger.Warn("host message failed", "kind", msg.Kind, "err", err)
			}
		}
	}
}

// Close stops the editor. Queued outbound messages are dropped and every
// subscription is closed.
func (e *Editor) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.post.Close()
	return nil
}
