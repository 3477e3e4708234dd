package logsink

import (
	"context"
	"testing"
	"time"

	"github.com/leandrodaf/midilog/internal/logger"
	"github.com/leandrodaf/midilog/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFlush_LogsEachRow(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := New(logger.Wrap(zap.New(core)), "midi_drums_raw")

	err := sink.Flush(context.Background(), []contracts.Event{
		{Timestamp: time.Unix(1, 0), Kind: contracts.KindNoteOn, Channel: 1, Note: 60, Velocity: 1},
		{Timestamp: time.Unix(2, 0), Kind: contracts.KindNoteOff, Channel: 1, Note: 60},
	})
	require.NoError(t, err)
	require.Equal(t, 2, logs.Len())

	first := logs.All()[0].ContextMap()
	assert.Equal(t, "midi_drums_raw", first["table"])
	assert.Contains(t, first["v"], `"value":"C3"`)
}

func TestFlush_UnknownKind(t *testing.T) {
	sink := New(logger.Wrap(zap.NewNop()), "t")
	assert.Error(t, sink.Flush(context.Background(), []contracts.Event{{Kind: "aftertouch"}}))
}
