package runtime

import (
	"log/slog"

	"github.com/aretw0/folio/pkg/domain"
)

// QueueFunc schedules a follow-up action. The action is dispatched only
// after the transition of the scheduling reducer has been committed.
type QueueFunc func(next domain.Action)

// Envelope is what travels through the middleware chain.
type Envelope struct {
	Action domain.Action
	// Queue is set by the queueable dispatcher.
	Queue QueueFunc
	// Depth is 0 for external dispatches and grows by one per follow-up level.
	Depth int
}

// DispatchFunc pushes an envelope down the chain.
type DispatchFunc func(env Envelope)

// API is the view of the store handed to middleware.
type API interface {
	State() domain.State
	// Dispatch runs a nested dispatch through the whole chain. Only valid
	// while an external dispatch is in progress.
	Dispatch(action domain.Action, depth int)
	// Submit dispatches a follow-up whose scheduling reducer has already
	// settled. It joins the external dispatch in progress, if any, and
	// otherwise starts a new one.
	Submit(action domain.Action, depth int)
}

// Middleware wraps the dispatch path.
type Middleware func(api API) func(next DispatchFunc) DispatchFunc

// LoggingMiddleware logs every dispatched action together with a summary
// of the state it produced, follow-ups included.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(api API) func(next DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(env Envelope) {
				next(env)
				if env.Action == nil {
					return
				}
				st := api.State()
				logger.Debug("action dispatched",
					"kind", env.Action.Kind(),
					"depth", env.Depth,
					"cells", len(st.Cells),
					"focused", st.FocusedCellID,
				)
			}
		}
	}
}
