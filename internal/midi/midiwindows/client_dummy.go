//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/midilog/sdk/contracts"
)

var errUnavailable = errors.New("winmm MIDI is only available on Windows")

// NewMIDIClient refuses to build a winmm client outside Windows.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return nil, errUnavailable
}
