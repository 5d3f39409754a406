package runtime

import (
	"github.com/aretw0/folio/pkg/domain"
)

// Reducer computes the next state for an envelope.
type Reducer func(state domain.State, env Envelope) domain.State

// CaseReducer handles a single action kind.
type CaseReducer func(state domain.State, action domain.Action, queue QueueFunc) domain.State

// CaseMap maps action kinds to their reducers.
type CaseMap map[domain.ActionKind]CaseReducer

// Case adapts a reducer for one concrete action type. An action of the
// right kind but the wrong type leaves the state unchanged.
func Case[A domain.Action](fn func(state domain.State, action A, queue QueueFunc) domain.State) CaseReducer {
	return func(state domain.State, action domain.Action, queue QueueFunc) domain.State {
		typed, ok := action.(A)
		if !ok {
			return state
		}
		return fn(state, typed, queue)
	}
}

// Combine builds the root reducer from a case map.
// Kinds that are not in the map return the state unchanged.
func Combine(cases CaseMap) Reducer {
	return func(state domain.State, env Envelope) domain.State {
		if env.Action == nil {
			return state
		}
		fn, ok := cases[env.Action.Kind()]
		if !ok {
			return state
		}
		queue := env.Queue
		if queue == nil {
			queue = func(domain.Action) {}
		}
		return fn(state, env.Action, queue)
	}
}
