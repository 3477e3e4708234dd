package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/leandrodaf/midilog/internal/capture"
	"github.com/leandrodaf/midilog/internal/logger"
	"github.com/leandrodaf/midilog/internal/sink/logsink"
	"github.com/leandrodaf/midilog/internal/source"
	"github.com/leandrodaf/midilog/sdk/contracts"
	"github.com/leandrodaf/midilog/sdk/midi"
)

// Captures from the port named by the first argument and logs each batch after one second of silence.
func main() {
	log := logger.NewZapLogger()

	client, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		return
	}
	defer client.Stop()

	if len(os.Args) < 2 {
		devices, err := client.ListDevices()
		if err != nil {
			log.Error("No MIDI devices found", log.Field().Error("error", err))
			return
		}
		fmt.Println("Available MIDI devices:", devices)
		return
	}

	if _, err = midi.SelectPortByName(client, os.Args[1], log); err != nil {
		log.Error("Failed to select MIDI device", log.Field().Error("error", err))
		return
	}

	events := make(chan contracts.RawMessage, 100)
	client.StartCapture(events)

	loop, err := capture.New(capture.Config{
		PollTimeout:        100 * time.Millisecond,
		IdleFlushThreshold: time.Second,
	}, source.New(events), source.NewNormalizer(nil), logsink.New(log, "example"), log)
	if err != nil {
		log.Error("Failed to create capture loop", log.Field().Error("error", err))
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Println("Capturing MIDI events... Press Ctrl+C to exit.")
	if err := loop.Run(ctx); err != nil {
		log.Error("Capture stopped", log.Field().Error("error", err))
	}
}
