package contracts

import "time"

// LogLevel represents the severity level for logging, ordered from most to least verbose.
type LogLevel int

const (
	// DebugLevel indicates debug messages, such as idle ticks and skipped flushes.
	DebugLevel LogLevel = iota - 1
	// InfoLevel indicates informational messages: observed events and flush outcomes.
	InfoLevel
	// WarnLevel indicates potentially harmful situations that should be monitored.
	WarnLevel
	// ErrorLevel indicates failures that were recovered from, such as a failed flush.
	ErrorLevel
	// FatalLevel indicates errors that abort the process.
	FatalLevel
)

// LogDestination specifies where the log messages should be directed.
type LogDestination string

const (
	// ConsoleLog directs log messages to the console output only.
	ConsoleLog LogDestination = "console"
	// FileLog directs log messages to the console and to a rotating file.
	FileLog LogDestination = "file"
)

// Field builds a structured log field.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Time(key string, val time.Time) Field
	Duration(key string, val time.Duration) Field
	Int64(key string, val int64) Field
	Error(key string, val error) Field
	Uint64(key string, val uint64) Field
	Uint8(key string, val uint8) Field
	Any(key string, val interface{}) Field
}

// Logger provides leveled, structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Field() Field

	// With returns a child logger that adds the given fields to every entry.
	With(fields ...Field) Logger

	SetLevel(level LogLevel)
	SetDestination(dest LogDestination, filePath ...string)

	// Sync flushes any buffered entries.
	Sync() error
}
