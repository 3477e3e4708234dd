//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/midilog/sdk/contracts"
)

var errUnavailable = errors.New("CoreMIDI is only available on macOS")

// NewMIDIClient refuses to build a CoreMIDI client outside macOS.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return nil, errUnavailable
}
