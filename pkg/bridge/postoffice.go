package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
)

// PostOffice is a deferred outbound mailbox.
//
// Post only enqueues. Flush delivers what is queued, in order, and keeps
// delivering until the queue is empty. Only one goroutine delivers at a
// time; a Flush that finds another one running waits until every message
// posted before it was called has been delivered. A Flush made by a sink
// with the context it was handed returns at once: the running delivery picks
// up what the sink posted.
type PostOffice struct {
	mu         sync.Mutex
	queue      []domain.Message
	delivering bool
	closed     bool

	posted    uint64
	delivered uint64
	progress  chan struct{} // closed and replaced whenever delivered advances

	captures map[int]*[]domain.Message
	nextCap  int

	sinks   []ports.MessageSink
	subs    map[int]chan domain.Message
	nextSub int

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures a PostOffice.
type Option func(*PostOffice)

// WithSink registers a sink at construction time.
func WithSink(sink ports.MessageSink) Option {
	return func(p *PostOffice) {
		p.sinks = append(p.sinks, sink)
	}
}

// WithHooks registers lifecycle hooks fired for every delivered message.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(p *PostOffice) {
		p.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *PostOffice) {
		p.logger = logger
	}
}

// NewPostOffice creates an empty post office.
func NewPostOffice(opts ...Option) *PostOffice {
	p := &PostOffice{
		subs:     make(map[int]chan domain.Message),
		captures: make(map[int]*[]domain.Message),
		progress: make(chan struct{}),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Post queues msg for the next Flush.
func (p *PostOffice) Post(msg domain.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.queue = append(p.queue, msg)
	p.posted++
	for _, c := range p.captures {
		*c = append(*c, msg)
	}
}

// Capture records every message posted from now on until the returned stop
// func is called; stop returns them in posting order.
func (p *PostOffice) Capture() (stop func() []domain.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextCap
	p.nextCap++
	p.captures[id] = &[]domain.Message{}

	return func() []domain.Message {
		p.mu.Lock()
		defer p.mu.Unlock()
		c, ok := p.captures[id]
		if !ok {
			return nil
		}
		delete(p.captures, id)
		return *c
	}
}

// AddSink registers a sink.
func (p *PostOffice) AddSink(sink ports.MessageSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, sink)
}

// Subscribe returns a channel that receives every delivered message and a
// function that cancels the subscription. A subscriber that falls more
// than buffer messages behind misses messages.
func (p *PostOffice) Subscribe(buffer int) (<-chan domain.Message, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan domain.Message, buffer)
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}
}

// Pending returns the number of queued messages.
func (p *PostOffice) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

type deliveringKey struct{}

// Flush delivers queued messages until none are left. When another goroutine
// is delivering, Flush waits for it to get past every message posted before
// the call, or for ctx to be done. Sink errors are logged and do not stop
// delivery.
func (p *PostOffice) Flush(ctx context.Context) {
	if owner, _ := ctx.Value(deliveringKey{}).(*PostOffice); owner == p {
		return
	}

	p.mu.Lock()
	target := p.posted
	for p.delivering {
		if p.delivered >= target || p.closed {
			p.mu.Unlock()
			return
		}
		wait := p.progress
		p.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return
		}
		p.mu.Lock()
	}
	p.delivering = true
	p.mu.Unlock()

	sinkCtx := context.WithValue(ctx, deliveringKey{}, p)
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.delivering = false
			p.advance()
			p.mu.Unlock()
			return
		}
		msg := p.queue[0]
		p.queue = p.queue[1:]
		sinks := append([]ports.MessageSink(nil), p.sinks...)
		p.mu.Unlock()

		p.deliver(sinkCtx, msg, sinks)

		p.mu.Lock()
		p.delivered++
		p.advance()
		p.mu.Unlock()
	}
}

// advance wakes Flush calls waiting on delivery. Callers hold p.mu.
func (p *PostOffice) advance() {
	close(p.progress)
	p.progress = make(chan struct{})
}

func (p *PostOffice) deliver(ctx context.Context, msg domain.Message, sinks []ports.MessageSink) {
	for _, sink := range sinks {
		if err := sink.Deliver(ctx, msg); err != nil {
			p.logger.Error("message delivery failed", "kind", msg.Kind, "err", err)
		}
	}

	p.mu.Lock()
	for _, ch := range p.subs {
		select {
		case ch <- msg:
		default:
			p.logger.Warn("subscriber is full, dropping message", "kind", msg.Kind)
		}
	}
	p.mu.Unlock()

	if p.hooks.OnMessage != nil {
		p.hooks.OnMessage(ctx, &domain.MessageEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventMessage},
			Kind:      msg.Kind,
		})
	}
}

// Close drops queued messages and closes every subscription.
func (p *PostOffice) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.queue = nil
	p.delivered = p.posted
	p.advance()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}
