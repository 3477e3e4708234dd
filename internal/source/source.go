// Package source adapts a driver's raw message channel into a bounded-wait
// poller and normalizes raw messages into events.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/leandrodaf/midilog/sdk/contracts"
)

// ErrClosed is returned by Poll once the driver channel has been closed.
var ErrClosed = errors.New("midi source closed")

// Source polls raw messages delivered by a driver.
type Source struct {
	messages <-chan contracts.RawMessage
}

// New wraps the channel a driver delivers raw messages on.
func New(messages <-chan contracts.RawMessage) *Source {
	return &Source{messages: messages}
}

// Poll waits up to timeout for the next raw message. A false result with a nil
// error means no input arrived within the bound.
func (s *Source) Poll(ctx context.Context, timeout time.Duration) (contracts.RawMessage, bool, error) {
	// Drain already queued messages without arming a timer.
	select {
	case msg, ok := <-s.messages:
		if !ok {
			return contracts.RawMessage{}, false, ErrClosed
		}
		return msg, true, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-s.messages:
		if !ok {
			return contracts.RawMessage{}, false, ErrClosed
		}
		return msg, true, nil
	case <-timer.C:
		return contracts.RawMessage{}, false, nil
	case <-ctx.Done():
		return contracts.RawMessage{}, false, ctx.Err()
	}
}
