package logger

import (
	"os"
	"time"

	"github.com/leandrodaf/midilog/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig configures the rotating log file.
type RotateConfig struct {
	MaxSizeMB  int
	MaxBackups int
}

// DefaultRotate keeps five 1 MB files.
var DefaultRotate = RotateConfig{MaxSizeMB: 1, MaxBackups: 5}

// ZapLogger is an implementation of contracts.Logger backed by zap.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
	rotate RotateConfig
	fields []zap.Field
}

// NewZapLogger creates a console logger at info level.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	z := &ZapLogger{level: level, rotate: DefaultRotate}
	z.logger = zap.New(z.consoleCore(), zap.AddCaller(), zap.AddCallerSkip(1))
	return z
}

// NewFileLogger creates a logger writing to the console and to a rotating file at path.
func NewFileLogger(path string, rotate RotateConfig) contracts.Logger {
	z := NewZapLogger().(*ZapLogger)
	z.rotate = rotate
	z.SetDestination(contracts.FileLog, path)
	return z
}

// Wrap adapts an existing zap logger, e.g. zaptest/observer in tests.
func Wrap(l *zap.Logger) contracts.Logger {
	return &ZapLogger{logger: l.WithOptions(zap.AddCallerSkip(1)), level: zap.NewAtomicLevelAt(zapcore.DebugLevel), rotate: DefaultRotate}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func (z *ZapLogger) consoleCore() zapcore.Core {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stdout), z.level)
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.logger.Info(msg, toZap(fields)...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.logger.Error(msg, toZap(fields)...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.logger.Debug(msg, toZap(fields)...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.logger.Warn(msg, toZap(fields)...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.logger.Fatal(msg, toZap(fields)...)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// With returns a child logger carrying the given fields.
func (z *ZapLogger) With(fields ...contracts.Field) contracts.Logger {
	zf := toZap(fields)
	return &ZapLogger{
		logger: z.logger.With(zf...),
		level:  z.level,
		rotate: z.rotate,
		fields: append(append([]zap.Field{}, z.fields...), zf...),
	}
}

// SetLevel sets the logging level. Children created with With share the level.
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination switches between console-only and console plus rotating file output.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	core := z.consoleCore()
	if dest == contracts.FileLog && len(filePath) > 0 && filePath[0] != "" {
		file := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filePath[0],
			MaxSize:    z.rotate.MaxSizeMB,
			MaxBackups: z.rotate.MaxBackups,
		})
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), file, z.level))
	}
	z.logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(z.fields...)
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.logger.Sync()
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func toZap(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(*zapField); ok {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return &zapField{zap.Bool(key, val)}
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return &zapField{zap.Int(key, val)}
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return &zapField{zap.Float64(key, val)}
}

func (f *zapField) String(key string, val string) contracts.Field {
	return &zapField{zap.String(key, val)}
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return &zapField{zap.Time(key, val)}
}

func (f *zapField) Duration(key string, val time.Duration) contracts.Field {
	return &zapField{zap.Duration(key, val)}
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return &zapField{zap.Int64(key, val)}
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return &zapField{zap.NamedError(key, val)}
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return &zapField{zap.Uint64(key, val)}
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return &zapField{zap.Uint8(key, val)}
}

func (f *zapField) Any(key string, val interface{}) contracts.Field {
	return &zapField{zap.Any(key, val)}
}
