package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leandrodaf/midilog/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := Wrap(zap.New(core))

	log.Info("flush",
		log.Field().Int("events", 3),
		log.Field().String("table", "midi_drums_raw"),
		log.Field().Duration("took", 2*time.Second),
		log.Field().Error("error", errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "flush", entry.Message)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.EqualValues(t, 3, ctx["events"])
	assert.Equal(t, "midi_drums_raw", ctx["table"])
	assert.Equal(t, 2*time.Second, ctx["took"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestWith_AddsFieldsToChild(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := Wrap(zap.New(core))

	child := log.With(log.Field().String("session", "abc"))
	child.Warn("slow")
	log.Warn("plain")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["session"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "session")
}

func TestToZapLevel(t *testing.T) {
	cases := map[contracts.LogLevel]zapcore.Level{
		contracts.DebugLevel: zapcore.DebugLevel,
		contracts.InfoLevel:  zapcore.InfoLevel,
		contracts.WarnLevel:  zapcore.WarnLevel,
		contracts.ErrorLevel: zapcore.ErrorLevel,
		contracts.FatalLevel: zapcore.FatalLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, toZapLevel(in), "level %d", in)
	}
}

func TestSetLevel_FiltersDebug(t *testing.T) {
	z := NewZapLogger().(*ZapLogger)
	assert.False(t, z.level.Enabled(zapcore.DebugLevel))

	z.SetLevel(contracts.DebugLevel)
	assert.True(t, z.level.Enabled(zapcore.DebugLevel))

	z.SetLevel(contracts.ErrorLevel)
	assert.False(t, z.level.Enabled(zapcore.WarnLevel))
}

func TestNewFileLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")
	log := NewFileLogger(path, RotateConfig{MaxSizeMB: 1, MaxBackups: 1})

	log.Info("observed", log.Field().Uint8("note", 36))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "observed")
	assert.Contains(t, string(data), `"note": 36`)
}
