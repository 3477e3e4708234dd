package contracts

import "context"

// Sink persists a batch of events. Flush is all-or-nothing from the caller's
// perspective: a non-nil error means no event of the batch may be assumed written.
// Flush blocks until the write is acknowledged or fails.
type Sink interface {
	Flush(ctx context.Context, events []Event) error
}
