package events

import "context"

// Store persists emitted events. The memory store backs tests and
// development; the Postgres store is a transactional outbox drained into
// Kafka by the sink worker.
type Store interface {
	Append(ctx context.Context, event Event) error
}
