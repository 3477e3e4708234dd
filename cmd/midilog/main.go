package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/leandrodaf/midilog/internal/capture"
	"github.com/leandrodaf/midilog/internal/config"
	"github.com/leandrodaf/midilog/internal/logger"
	"github.com/leandrodaf/midilog/internal/sink/logsink"
	"github.com/leandrodaf/midilog/internal/sink/postgres"
	"github.com/leandrodaf/midilog/internal/source"
	"github.com/leandrodaf/midilog/sdk/contracts"
	"github.com/leandrodaf/midilog/sdk/midi"
)

// Overridable with -ldflags "-X main.version=1.2.3 -X main.commit=abcd123".
var (
	version = "dev"
	commit  = "none"
)

var (
	configFlag    = flag.String("config", config.DefaultPath, "Path to the YAML config file")
	listPortsFlag = flag.Bool("list-ports", false, "List MIDI input ports and exit")
	dryRunFlag    = flag.Bool("dry-run", false, "Log rows instead of writing them to the database")
	debugFlag     = flag.Bool("debug", false, "Enable debug logging")
	versionFlag   = flag.Bool("version", false, "Print version and exit")
)

// eventChannelSize bounds the backlog between the driver callback and the capture loop.
const eventChannelSize = 1024

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag {
		fmt.Printf("midilog %s (%s)\n", version, commit)
		return
	}
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	log := newLogger(cfg)
	defer log.Sync()

	client, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithLogLevel(logLevel(cfg)),
		contracts.WithDriver(contracts.Driver(cfg.Capture.Driver)),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		return 1
	}
	defer client.Stop()

	if *listPortsFlag {
		return listPorts(client)
	}
	if cfg.Capture.ListenMIDIDevice == "" {
		log.Error("capture.listen_midi_device is empty; run with -list-ports to see available ports")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	sink, db, err := newSink(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to set up sink", log.Field().Error("error", err))
		return 1
	}
	if db != nil {
		defer db.Close()
	}

	if _, err := midi.SelectPortByName(client, cfg.Capture.ListenMIDIDevice, log); err != nil {
		log.Error("Cannot open MIDI input", log.Field().Error("error", err))
		return 1
	}

	events := make(chan contracts.RawMessage, eventChannelSize)
	client.StartCapture(events)

	loop, err := capture.New(capture.Config{
		PollTimeout:          cfg.PollTimeout(),
		IdleFlushThreshold:   cfg.IdleFlushThreshold(),
		BufferWarnSize:       cfg.Capture.BufferWarnSize,
		ShutdownFlushTimeout: cfg.Capture.ShutdownFlushTimeout,
	}, source.New(events), source.NewNormalizer(nil), sink, log)
	if err != nil {
		log.Error("Invalid capture settings", log.Field().Error("error", err))
		return 1
	}

	runErr := loop.Run(ctx)
	stats := loop.Stats()
	log.Info("Capture stopped",
		log.Field().Int("flushes", stats.Flushes),
		log.Field().Int("flushed_events", stats.FlushedEvents),
		log.Field().Int("pending", stats.Pending))
	if runErr != nil {
		log.Error("Capture loop failed", log.Field().Error("error", runErr))
		return 1
	}
	return 0
}

func newLogger(cfg *config.Config) contracts.Logger {
	if cfg.Log.File == "" {
		log := logger.NewZapLogger()
		log.SetLevel(logLevel(cfg))
		return log
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "log directory: %v; logging to console only\n", err)
		log := logger.NewZapLogger()
		log.SetLevel(logLevel(cfg))
		return log
	}
	log := logger.NewFileLogger(cfg.Log.File, logger.RotateConfig{MaxSizeMB: cfg.Log.MaxSizeMB, MaxBackups: cfg.Log.MaxBackups})
	log.SetLevel(logLevel(cfg))
	return log
}

func logLevel(cfg *config.Config) contracts.LogLevel {
	if *debugFlag {
		return contracts.DebugLevel
	}
	switch cfg.Log.Level {
	case "debug":
		return contracts.DebugLevel
	case "warn":
		return contracts.WarnLevel
	case "error":
		return contracts.ErrorLevel
	}
	return contracts.InfoLevel
}

func newSink(ctx context.Context, cfg *config.Config, log contracts.Logger) (contracts.Sink, *sql.DB, error) {
	if *dryRunFlag {
		log.Warn("Dry run: rows are logged, not written", log.Field().String("table", cfg.Database.DestTable))
		return logsink.New(log, cfg.Database.DestTable), nil, nil
	}

	db, err := postgres.Connect(ctx, postgres.DBConfig{
		User:           cfg.DB.User,
		Password:       cfg.DB.Password,
		Host:           cfg.DB.Host,
		Port:           cfg.DB.Port,
		Name:           cfg.DB.Name,
		SSLMode:        cfg.DB.SSLMode,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	sink, err := postgres.NewSink(db, cfg.Database.DestTable)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sink, db, nil
}

func listPorts(client contracts.ClientMIDI) int {
	devices, err := client.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list ports: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Println("(no MIDI input ports)")
		return 0
	}
	for _, d := range devices {
		fmt.Printf("%d | %s\n", d.ID, d.Name)
	}
	return 0
}
