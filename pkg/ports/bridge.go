package ports

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

// MessageSink receives messages for the execution host.
// Delivery happens after the dispatch that produced the message committed,
// so sinks may dispatch back into the editor.
type MessageSink interface {
	Deliver(ctx context.Context, msg domain.Message) error
}

// MessageSinkFunc adapts a function to MessageSink.
type MessageSinkFunc func(ctx context.Context, msg domain.Message) error

// Deliver calls f.
func (f MessageSinkFunc) Deliver(ctx context.Context, msg domain.Message) error {
	return f(ctx, msg)
}
