package config

import (
	"time"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "./config/midilog.yml"

func Defaults() *Config {

	return &Config{
		Capture: CaptureConfig{
			ListenIntervalMS:     250,
			BufferIntervalS:      2,
			Driver:               "auto",
			BufferWarnSize:       10000,
			ShutdownFlushTimeout: 5 * time.Second,
		},

		Database: DatabaseConfig{
			DestTable:      "midi_drums_raw",
			ConnectTimeout: 10 * time.Second,
		},

		Log: LogConfig{
			File:       "logs/rtmidi_logging_to_database.log",
			MaxSizeMB:  1,
			MaxBackups: 5,
			Level:      "info",
		},

		DB: DBEnv{
			User:    "rtmltd",
			Host:    "localhost",
			Port:    "5432",
			Name:    "rtmltd",
			SSLMode: "disable",
		},
	}
}
