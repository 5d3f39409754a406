package runtime

import (
	"sync"

	"github.com/aretw0/folio/pkg/domain"
)

// Queueable hands every reducer a QueueFunc and flushes what was queued once
// the reducer has returned and its state is committed.
//
// Follow-ups are flushed FIFO. Each one is a full dispatch through the
// chain, so its own follow-ups run before the next sibling: A queues [X, Y],
// X queues [Z], the order is A, X, Z, Y.
//
// A follow-up queued after the reducer returned is dispatched right away: as
// a nested dispatch after the current commit when a dispatch is in progress
// (a later reducer calling an earlier QueueFunc), otherwise as a new
// external dispatch.
func Queueable() Middleware {
	return func(api API) func(next DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(env Envelope) {
				q := &followUps{api: api, depth: env.Depth + 1}
				env.Queue = q.add
				next(env)
				q.settle()
			}
		}
	}
}

type followUps struct {
	api   API
	depth int

	mu      sync.Mutex
	pending []domain.Action
	settled bool
}

func (q *followUps) add(action domain.Action) {
	if action == nil {
		return
	}
	q.mu.Lock()
	if !q.settled {
		q.pending = append(q.pending, action)
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	q.api.Submit(action, q.depth)
}

func (q *followUps) settle() {
	q.mu.Lock()
	q.settled = true
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, action := range pending {
		q.api.Dispatch(action, q.depth)
	}
}
