package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher fans events into a Store, either synchronously or through a
// bounded buffer. Emission never blocks domain logic: when the async
// buffer is full the event is dropped and counted against the logger,
// because lifecycle events are notifications, not state.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox  chan Event
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous emission with a
// buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, n)
	}
}

// WithLogger sets the logger used for drop and append failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit publishes one event. In sync mode it appends directly; in async
// mode it enqueues and drops when the buffer is full.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("event buffer full, dropping event", "type", event.Type)
	}
	return nil
}

// Close stops accepting events and drains the buffer into the store.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.closed.Do(func() {
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("append event", "type", event.Type, "error", err)
		}
	}
}
