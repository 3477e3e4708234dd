package midi

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midilog/sdk/contracts"
)

var (
	// ErrNoInputPorts is returned when the driver reports no input ports at all.
	ErrNoInputPorts = errors.New("no MIDI input ports")
	// ErrPortNotFound is returned when no port name matches the configured device exactly.
	ErrPortNotFound = errors.New("no MIDI input port matches the configured device")
)

// SelectPortByName lists the client's ports, logs each of them and opens the
// first one whose name equals name exactly.
func SelectPortByName(client contracts.ClientMIDI, name string, log contracts.Logger) (contracts.DeviceInfo, error) {
	devices, err := client.ListDevices()
	if err != nil {
		return contracts.DeviceInfo{}, fmt.Errorf("%w: %v", ErrNoInputPorts, err)
	}
	if len(devices) == 0 {
		return contracts.DeviceInfo{}, ErrNoInputPorts
	}

	log.Info("Checking available MIDI input ports", log.Field().Int("count", len(devices)))
	for _, d := range devices {
		log.Info("MIDI input port", log.Field().Int("port", d.ID), log.Field().String("name", d.Name))
	}

	for _, d := range devices {
		if d.Name != name {
			continue
		}
		log.Info("Opening MIDI input port", log.Field().Int("port", d.ID), log.Field().String("name", d.Name))
		if err := client.SelectDevice(d.ID); err != nil {
			return contracts.DeviceInfo{}, fmt.Errorf("open port %d (%s): %w", d.ID, d.Name, err)
		}
		return d, nil
	}
	return contracts.DeviceInfo{}, fmt.Errorf("%w: %q", ErrPortNotFound, name)
}
