package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/folio/pkg/domain"
)

// LoggingHooks logs every dispatch and message at Debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			logger.DebugContext(ctx, "dispatch",
				"kind", e.Kind,
				"depth", e.Depth,
				"changed", e.Changed,
				"cells", e.Cells,
			)
		},
		OnMessage: func(ctx context.Context, e *domain.MessageEvent) {
			logger.DebugContext(ctx, "message", "kind", e.Kind)
		},
	}
}

// Combine returns hooks that call each of hooks in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var onDispatch []func(context.Context, *domain.DispatchEvent)
	var onMessage []func(context.Context, *domain.MessageEvent)
	for _, h := range hooks {
		if h.OnDispatch != nil {
			onDispatch = append(onDispatch, h.OnDispatch)
		}
		if h.OnMessage != nil {
			onMessage = append(onMessage, h.OnMessage)
		}
	}

	var out domain.LifecycleHooks
	if len(onDispatch) > 0 {
		out.OnDispatch = func(ctx context.Context, e *domain.DispatchEvent) {
			for _, fn := range onDispatch {
				fn(ctx, e)
			}
		}
	}
	if len(onMessage) > 0 {
		out.OnMessage = func(ctx context.Context, e *domain.MessageEvent) {
			for _, fn := range onMessage {
				fn(ctx, e)
			}
		}
	}
	return out
}
