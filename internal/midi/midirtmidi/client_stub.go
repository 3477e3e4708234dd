//go:build !cgo || nortmidi

package midirtmidi

import (
	"errors"

	"github.com/leandrodaf/midilog/sdk/contracts"
)

// NewMIDIClient reports that rtmidi support was not compiled in.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return nil, errors.New("rtmidi driver is not included in this build (requires cgo, built without -tags nortmidi)")
}
