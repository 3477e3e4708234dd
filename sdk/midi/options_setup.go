package midi

import (
	"fmt"

	"github.com/leandrodaf/midilog/internal/logger"
	"github.com/leandrodaf/midilog/sdk/contracts"
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if an option holds an unknown value.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.Driver == "" {
		options.Driver = contracts.DriverAuto
	}
	if options.Driver != contracts.DriverAuto && options.Driver != contracts.DriverRtMidi {
		return contracts.ClientOptions{}, fmt.Errorf("unknown MIDI driver %q", options.Driver)
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "midilog"}
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
