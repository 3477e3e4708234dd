// Package capture runs the poll/buffer/flush cycle: events accumulate while
// input is active and are flushed to the sink once the input has been idle for
// the configured threshold.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/leandrodaf/midilog/sdk/contracts"
)

// Poller waits up to timeout for the next raw message.
type Poller interface {
	Poll(ctx context.Context, timeout time.Duration) (contracts.RawMessage, bool, error)
}

// Normalizer decodes a raw message, reporting false for unrecognized kinds.
type Normalizer interface {
	Normalize(raw contracts.RawMessage) (contracts.Event, bool)
}

// Config holds the loop's intervals. It is not modified after New.
type Config struct {
	PollTimeout          time.Duration // bounded wait per poll
	IdleFlushThreshold   time.Duration // idle time before a flush is attempted
	BufferWarnSize       int           // pending count above which failed flushes warn; 0 disables
	ShutdownFlushTimeout time.Duration // bound on the final flush when Run's context ends; 0 skips it
}

// Validate reports intervals the loop cannot run with.
func (c Config) Validate() error {
	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive, got %s", c.PollTimeout)
	}
	if c.IdleFlushThreshold <= 0 {
		return fmt.Errorf("idle flush threshold must be positive, got %s", c.IdleFlushThreshold)
	}
	return nil
}

// Stats is a snapshot of the loop's buffer and flush counters.
type Stats struct {
	Pending             int       // events buffered and not yet written
	OldestPending       time.Time // timestamp of the first buffered event, zero when empty
	ConsecutiveFailures int       // failed flushes since the last success
	Flushes             int       // successful flushes
	FlushedEvents       int       // events written by successful flushes
}

// Loop owns the buffer and the idle accumulator. Step and Run must be called
// from a single goroutine; Stats may be called from any goroutine.
type Loop struct {
	cfg        Config
	poller     Poller
	normalizer Normalizer
	sink       contracts.Sink
	log        contracts.Logger

	buffer []contracts.Event
	idle   time.Duration

	pending       atomic.Int64
	oldestNanos   atomic.Int64
	failures      atomic.Int64
	flushes       atomic.Int64
	flushedEvents atomic.Int64
}

// New builds a loop. The session id is attached to every log line of the loop.
func New(cfg Config, poller Poller, normalizer Normalizer, sink contracts.Sink, log contracts.Logger) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if poller == nil || normalizer == nil || sink == nil || log == nil {
		return nil, errors.New("capture: poller, normalizer, sink and logger are required")
	}
	return &Loop{
		cfg:        cfg,
		poller:     poller,
		normalizer: normalizer,
		sink:       sink,
		log:        log.With(log.Field().String("session", uuid.NewString())),
	}, nil
}

// Run polls until ctx is done or the poller fails. When ctx ends with events
// still buffered, one last flush is attempted within ShutdownFlushTimeout.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("Listening for MIDI input",
		l.log.Field().Duration("poll_timeout", l.cfg.PollTimeout),
		l.log.Field().Duration("idle_flush_threshold", l.cfg.IdleFlushThreshold))

	for {
		if ctx.Err() != nil {
			l.shutdownFlush()
			return nil
		}
		if err := l.Step(ctx); err != nil && ctx.Err() == nil {
			l.shutdownFlush()
			return err
		}
	}
}

// Step runs one poll cycle.
func (l *Loop) Step(ctx context.Context) error {
	raw, ok, err := l.poller.Poll(ctx, l.cfg.PollTimeout)
	if err != nil {
		return err
	}

	if ok {
		l.idle = 0
		ev, recognized := l.normalizer.Normalize(raw)
		if !recognized {
			l.log.Debug("Ignoring unrecognized MIDI message", l.log.Field().Any("data", raw.Data))
			return nil
		}
		l.append(ev)
		l.log.Info("MIDI event", eventFields(l.log, ev)...)
		return nil
	}

	l.idle += l.cfg.PollTimeout
	if l.idle < l.cfg.IdleFlushThreshold {
		return nil
	}

	l.log.Debug("Silence long enough to attempt a flush", l.log.Field().Duration("idle", l.idle))
	l.idle = 0
	if len(l.buffer) == 0 {
		l.log.Debug("No data recorded, resetting counters")
		return nil
	}
	l.flush(ctx)
	return nil
}

// Stats returns a snapshot of the buffer and flush counters.
func (l *Loop) Stats() Stats {
	s := Stats{
		Pending:             int(l.pending.Load()),
		ConsecutiveFailures: int(l.failures.Load()),
		Flushes:             int(l.flushes.Load()),
		FlushedEvents:       int(l.flushedEvents.Load()),
	}
	if n := l.oldestNanos.Load(); n != 0 {
		s.OldestPending = time.Unix(0, n)
	}
	return s
}

func (l *Loop) append(ev contracts.Event) {
	if len(l.buffer) == 0 {
		l.oldestNanos.Store(ev.Timestamp.UnixNano())
	}
	l.buffer = append(l.buffer, ev)
	l.pending.Store(int64(len(l.buffer)))
}

// flush writes the whole buffer. The buffer is cleared only when the sink
// acknowledges the write; on failure every event stays queued in order.
func (l *Loop) flush(ctx context.Context) bool {
	n := len(l.buffer)
	l.log.Info("Logging events to sink", l.log.Field().Int("events", n))

	start := time.Now()
	if err := l.sink.Flush(ctx, l.buffer); err != nil {
		failures := l.failures.Add(1)
		l.log.Error("Failed to write events; keeping them in buffer",
			l.log.Field().Error("error", err),
			l.log.Field().Int("pending", n),
			l.log.Field().Int64("consecutive_failures", failures),
			l.log.Field().Time("oldest_pending", l.buffer[0].Timestamp))
		if l.cfg.BufferWarnSize > 0 && n > l.cfg.BufferWarnSize {
			l.log.Warn("Pending buffer is growing while the sink is failing",
				l.log.Field().Int("pending", n),
				l.log.Field().Int("warn_size", l.cfg.BufferWarnSize))
		}
		return false
	}

	l.buffer = nil
	l.pending.Store(0)
	l.oldestNanos.Store(0)
	l.failures.Store(0)
	l.flushes.Add(1)
	l.flushedEvents.Add(int64(n))
	l.log.Info("Flushed events", l.log.Field().Int("events", n), l.log.Field().Duration("took", time.Since(start)))
	return true
}

func (l *Loop) shutdownFlush() {
	if len(l.buffer) == 0 || l.cfg.ShutdownFlushTimeout <= 0 {
		if len(l.buffer) > 0 {
			l.log.Warn("Discarding buffered events on shutdown", l.log.Field().Int("events", len(l.buffer)))
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.ShutdownFlushTimeout)
	defer cancel()

	if !l.flush(ctx) {
		l.log.Warn("Discarding buffered events on shutdown", l.log.Field().Int("events", len(l.buffer)))
	}
}

func eventFields(log contracts.Logger, ev contracts.Event) []contracts.Field {
	fields := []contracts.Field{
		log.Field().String("type", string(ev.Kind)),
		log.Field().Uint8("channel", ev.Channel),
	}
	switch ev.Kind {
	case contracts.KindNoteOn:
		fields = append(fields,
			log.Field().String("note", contracts.NoteName(ev.Note)),
			log.Field().Uint8("velocity", ev.Velocity))
	case contracts.KindNoteOff:
		fields = append(fields, log.Field().String("note", contracts.NoteName(ev.Note)))
	case contracts.KindController:
		fields = append(fields,
			log.Field().Uint8("number", ev.Controller),
			log.Field().Uint8("value", ev.Value))
	}
	return fields
}
