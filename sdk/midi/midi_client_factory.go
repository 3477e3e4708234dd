package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midilog/internal/midi/mididarwin"
	"github.com/leandrodaf/midilog/internal/midi/midirtmidi"
	"github.com/leandrodaf/midilog/internal/midi/midiwindows"
	"github.com/leandrodaf/midilog/sdk/contracts"
)

// ErrUnsupportedOS is returned when no backend is available for the operating system.
var ErrUnsupportedOS = errors.New("unsupported operating system")

type clientInitializer func(*contracts.ClientOptions) (contracts.ClientMIDI, error)

// nativeInitializers maps OS names to their native MIDI client initializers.
var nativeInitializers = map[string]clientInitializer{
	"darwin":  mididarwin.NewMIDIClient,  // CoreMIDI
	"windows": midiwindows.NewMIDIClient, // winmm
}

// rtmidiOS lists the systems rtmidi supports without a native backend here.
var rtmidiOS = map[string]bool{
	"linux":   true,
	"freebsd": true,
	"openbsd": true,
	"netbsd":  true,
}

// NewClient initializes a MIDI client for the current operating system.
// DriverAuto prefers the native backend and falls back to rtmidi; DriverRtMidi always uses rtmidi.
//
// opts *contracts.ClientOptions: Configuration options for the MIDI client.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the MIDI client.
//   - error: An error if the operating system is unsupported or if initialization fails.
func NewClient(opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return newClientFor(runtime.GOOS, opts)
}

func newClientFor(goos string, opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if opts.Driver == contracts.DriverRtMidi {
		return midirtmidi.NewMIDIClient(opts)
	}
	if initializer, exists := nativeInitializers[goos]; exists {
		return initializer(opts)
	}
	if rtmidiOS[goos] {
		return midirtmidi.NewMIDIClient(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}
