package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type CaptureConfig struct {
	ListenIntervalMS     int           `yaml:"listen_interval_ms"` // poll timeout
	BufferIntervalS      int           `yaml:"buffer_interval_s"`  // idle flush threshold
	ListenMIDIDevice     string        `yaml:"listen_midi_device"` // exact port name
	Driver               string        `yaml:"driver"`             // auto | rtmidi
	BufferWarnSize       int           `yaml:"buffer_warn_size"`
	ShutdownFlushTimeout time.Duration `yaml:"shutdown_flush_timeout"`
}

type DatabaseConfig struct {
	DestTable      string        `yaml:"dest_table"` // bare names fold to lower case; "Quoted" parts keep case
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type LogConfig struct {
	File       string `yaml:"file"` // empty logs to the console only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Level      string `yaml:"level"` // debug | info | warn | error
}

// DBEnv holds the database connection settings, which come from the environment only.
type DBEnv struct {
	User     string `yaml:"-"`
	Password string `yaml:"-"`
	Host     string `yaml:"-"`
	Port     string `yaml:"-"`
	Name     string `yaml:"-"`
	SSLMode  string `yaml:"-"`
}

type Config struct {
	Capture  CaptureConfig  `yaml:"capture"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	DB       DBEnv          `yaml:"-"`
}

// PollTimeout is the bounded wait per poll.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Capture.ListenIntervalMS) * time.Millisecond
}

// IdleFlushThreshold is the idle time after which buffered events are flushed.
func (c *Config) IdleFlushThreshold() time.Duration {
	return time.Duration(c.Capture.BufferIntervalS) * time.Second
}

// Load reads the YAML file at path over Defaults, then applies the
// environment, loading a .env file from the working directory when present.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse yaml %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot load .env: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the database settings with non-empty POSTGRES_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.DB.User, "POSTGRES_USER")
	set(&c.DB.Password, "POSTGRES_PASSWORD")
	set(&c.DB.Host, "POSTGRES_HOST")
	set(&c.DB.Port, "POSTGRES_PORT")
	set(&c.DB.Name, "POSTGRES_DB")
	set(&c.DB.SSLMode, "POSTGRES_SSLMODE")
}

// Validate checks the values the capture loop and sinks depend on.
func (c *Config) Validate() error {
	if c.Capture.ListenIntervalMS <= 0 {
		return fmt.Errorf("%w: capture.listen_interval_ms must be positive, got %d", ErrInvalid, c.Capture.ListenIntervalMS)
	}
	if c.Capture.BufferIntervalS <= 0 {
		return fmt.Errorf("%w: capture.buffer_interval_s must be positive, got %d", ErrInvalid, c.Capture.BufferIntervalS)
	}
	switch c.Capture.Driver {
	case "auto", "rtmidi":
	default:
		return fmt.Errorf("%w: capture.driver must be auto or rtmidi, got %q", ErrInvalid, c.Capture.Driver)
	}
	if strings.TrimSpace(c.Database.DestTable) == "" {
		return fmt.Errorf("%w: database.dest_table is empty", ErrInvalid)
	}
	if c.Database.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: database.connect_timeout must be positive, got %s", ErrInvalid, c.Database.ConnectTimeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level must be debug, info, warn or error, got %q", ErrInvalid, c.Log.Level)
	}
	return nil
}
