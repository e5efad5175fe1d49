package publisher

import (
	"context"
	"sync"
	"time"

	audit "trustgate/pkg/platform/audit"
)

// Publisher fans audit events into a Store, either synchronously or through a
// buffered channel drained by a background goroutine. Domain services depend
// only on the Emit method so the delivery mode stays a wiring decision.
type Publisher struct {
	store audit.Store

	mu     sync.Mutex
	inbox  chan audit.Event
	done   chan struct{}
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous delivery with the
// given channel capacity. Emit never blocks the request path; a full buffer
// drops the event (the store is an observability sink, not a ledger).
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records an audit event, stamping the category from the action and the
// timestamp when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
	default:
		// Buffer full: drop rather than stall a request handler.
	}
	return nil
}

// List returns events for an actor, for admin inspection and tests.
func (p *Publisher) List(ctx context.Context, actorID string) ([]audit.Event, error) {
	return p.store.ListByActor(ctx, actorID)
}

// Close stops the background drain goroutine, flushing buffered events first.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
		<-p.done
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		// Best effort: a failed append only loses an observability record.
		_ = p.store.Append(context.Background(), event)
	}
}
