package source

import (
	"context"
	"testing"
	"time"

	"github.com/leandrodaf/midilog/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_ReturnsQueuedMessage(t *testing.T) {
	ch := make(chan contracts.RawMessage, 1)
	ch <- contracts.RawMessage{Data: []byte{0x90, 36, 100}}

	msg, ok, err := New(ch).Poll(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x90, 36, 100}, msg.Data)
}

func TestPoll_TimeoutIsNotAnError(t *testing.T) {
	src := New(make(chan contracts.RawMessage))

	start := time.Now()
	_, ok, err := src.Poll(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPoll_ArrivesDuringWait(t *testing.T) {
	ch := make(chan contracts.RawMessage)
	go func() {
		time.Sleep(10 * time.Millisecond)
		ch <- contracts.RawMessage{Data: []byte{0xB0, 1, 2}}
	}()

	_, ok, err := New(ch).Poll(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPoll_Closed(t *testing.T) {
	ch := make(chan contracts.RawMessage)
	close(ch)

	_, ok, err := New(ch).Poll(context.Background(), time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := New(make(chan contracts.RawMessage)).Poll(ctx, time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
