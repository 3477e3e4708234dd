package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/leandrodaf/midilog/internal/logger"
	"github.com/leandrodaf/midilog/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var at = time.Unix(1700000000, 0)

func sampleEvents() []contracts.Event {
	return []contracts.Event{
		{Timestamp: at, Kind: contracts.KindNoteOn, Channel: 10, Note: 36, Velocity: 100},
		{Timestamp: at, Kind: contracts.KindNoteOff, Channel: 10, Note: 36},
		{Timestamp: at, Kind: contracts.KindController, Channel: 10, Controller: 4, Value: 12},
	}
}

func TestBuildInsert(t *testing.T) {
	stmt, err := BuildInsert("midi_drums_raw", sampleEvents())
	require.NoError(t, err)

	want := `INSERT INTO "midi_drums_raw" (v) VALUES ` +
		`('{"timestamp":1700000000,"midi-data-type":"note on","value":"C1","velocity":100,"channel":10}'), ` +
		`('{"timestamp":1700000000,"midi-data-type":"note off","value":"C1","channel":10}'), ` +
		`('{"timestamp":1700000000,"midi-data-type":"controller","number":4,"value":12,"channel":10}');`
	assert.Equal(t, want, stmt)
}

func TestBuildInsert_SchemaQualifiedTable(t *testing.T) {
	stmt, err := BuildInsert("capture.midi_raw", sampleEvents()[:1])
	require.NoError(t, err)
	assert.Contains(t, stmt, `INSERT INTO "capture"."midi_raw" (v) VALUES (`)
}

func TestBuildInsert_FoldsBareIdentifiers(t *testing.T) {
	cases := map[string]string{
		"MIDI_Drums":           `"midi_drums"`,
		"Capture.MIDI_Raw":     `"capture"."midi_raw"`,
		`capture."Drums"`:      `"capture"."Drums"`,
		`"Odd""Name"`:          `"Odd""Name"`,
		` capture . midi_raw `: `"capture"."midi_raw"`,
	}
	for table, want := range cases {
		stmt, err := BuildInsert(table, sampleEvents()[:1])
		require.NoError(t, err, table)
		assert.Contains(t, stmt, "INSERT INTO "+want+" (v) VALUES (", table)
	}
}

func TestBuildInsert_RejectsUnknownKind(t *testing.T) {
	_, err := BuildInsert("t", []contracts.Event{{Kind: "sysex"}})
	assert.Error(t, err)
}

type fakeExecer struct {
	queries []string
	err     error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	return nil, f.err
}

func TestSink_Flush(t *testing.T) {
	db := &fakeExecer{}
	sink, err := NewSink(db, "midi_drums_raw")
	require.NoError(t, err)

	require.NoError(t, sink.Flush(context.Background(), sampleEvents()))
	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], `"midi-data-type":"controller"`)

	require.NoError(t, sink.Flush(context.Background(), nil))
	assert.Len(t, db.queries, 1, "empty batch does not touch the database")
}

func TestSink_FlushError(t *testing.T) {
	db := &fakeExecer{err: errors.New(`relation "midi_drums_raw" does not exist`)}
	sink, err := NewSink(db, "midi_drums_raw")
	require.NoError(t, err)

	err = sink.Flush(context.Background(), sampleEvents())
	assert.ErrorIs(t, err, ErrSinkWrite)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestNewSink_RequiresTable(t *testing.T) {
	_, err := NewSink(&fakeExecer{}, " ")
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := DBConfig{User: "rtmltd", Host: "db", Port: "5432", Name: "rtmltd", SSLMode: "disable"}
	assert.Equal(t, "postgres://rtmltd:p%40ss@db:5432/rtmltd?connect_timeout=10&sslmode=disable", cfg.DSN("p@ss"))

	cfg.ConnectTimeout = 1500 * time.Millisecond
	assert.Contains(t, cfg.DSN("x"), "connect_timeout=2")
}

func TestConnect_AttemptsAreBounded(t *testing.T) {
	cfg := DBConfig{Host: "10.255.255.1", Port: "5432", Name: "d", ConnectTimeout: 20 * time.Millisecond}
	var deadlines []time.Duration
	open := func(ctx context.Context, _ string) (*sql.DB, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok, "each attempt carries a deadline")
		deadlines = append(deadlines, time.Until(deadline))
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	_, err := connect(context.Background(), cfg, logger.Wrap(zap.NewNop()), open)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Len(t, deadlines, 2)
	assert.Less(t, time.Since(start), 5*time.Second)
	for _, d := range deadlines {
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
}

func TestConnect_FallsBackToRawPassword(t *testing.T) {
	cfg := DBConfig{User: "u", Password: "a b", Host: "localhost", Port: "5432", Name: "d"}
	var dsns []string
	open := func(_ context.Context, dsn string) (*sql.DB, error) {
		dsns = append(dsns, dsn)
		if len(dsns) == 1 {
			return nil, errors.New("password authentication failed")
		}
		return nil, nil
	}

	_, err := connect(context.Background(), cfg, logger.Wrap(zap.NewNop()), open)
	require.NoError(t, err)
	require.Len(t, dsns, 2)
	assert.Equal(t, cfg.DSN("a+b"), dsns[0])
	assert.Equal(t, cfg.DSN("a b"), dsns[1])
}

func TestConnect_BothAttemptsFail(t *testing.T) {
	calls := 0
	open := func(context.Context, string) (*sql.DB, error) {
		calls++
		return nil, errors.New("connection refused")
	}

	_, err := connect(context.Background(), DBConfig{Host: "h", Port: "1", Name: "d"}, logger.Wrap(zap.NewNop()), open)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, 2, calls)
}

func TestConnect_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	open := func(context.Context, string) (*sql.DB, error) {
		calls++
		return nil, nil
	}

	_, err := connect(context.Background(), DBConfig{Host: "h", Port: "1", Name: "d"}, logger.Wrap(zap.NewNop()), open)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
