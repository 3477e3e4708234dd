//go:build cgo && !nortmidi

package midirtmidi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midilog/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// ErrInvalidMIDIDevice is returned when SelectDevice gets an unknown port number.
var ErrInvalidMIDIDevice = errors.New("invalid MIDI input port")

// ClientMid captures raw MIDI messages through rtmidi.
type ClientMid struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver
	in     drivers.In
	stopFn func()
	mu     sync.Mutex
	once   sync.Once
}

// NewMIDIClient initializes the rtmidi driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv.New: %w", err)
	}
	options.Logger.Debug("rtmidi MIDI client created")
	return &ClientMid{logger: options.Logger, drv: drv}, nil
}

// ListDevices lists the rtmidi input ports.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := m.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	devices := make([]contracts.DeviceInfo, 0, len(ins))
	for _, in := range ins {
		devices = append(devices, contracts.DeviceInfo{
			ID:         in.Number(),
			Name:       in.String(),
			EntityName: in.String(),
		})
	}
	return devices, nil
}

// SelectDevice opens the input port with the given number.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ins, err := m.drv.Ins()
	if err != nil {
		return fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	var found drivers.In
	for _, in := range ins {
		if in.Number() == deviceID {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("%w: %d", ErrInvalidMIDIDevice, deviceID)
	}

	m.closeInput()
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %s: %w", found.String(), err)
	}
	m.in = found
	m.logger.Debug("rtmidi input opened", m.logger.Field().String("name", found.String()))
	return nil
}

// StartCapture starts listening on the selected port and forwards each message to eventChannel.
func (m *ClientMid) StartCapture(eventChannel chan contracts.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.in == nil {
		m.logger.Error("Cannot start capture: no MIDI input selected")
		return
	}
	if m.stopFn != nil {
		m.logger.Warn("Capture already started")
		return
	}

	stop, err := midi.ListenTo(m.in, func(msg midi.Message, _ int32) {
		data := make([]byte, len(msg))
		copy(data, msg)
		select {
		case eventChannel <- contracts.RawMessage{Data: data, Received: time.Now()}:
		default:
			m.logger.Warn("Event channel full; dropping MIDI message")
		}
	}, midi.HandleError(func(err error) {
		m.logger.Error("MIDI listener error", m.logger.Field().Error("error", err))
	}))
	if err != nil {
		m.logger.Error("Failed to start MIDI listener", m.logger.Field().Error("error", err))
		return
	}
	m.stopFn = stop
	m.logger.Debug("rtmidi capture started")
}

func (m *ClientMid) closeInput() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.in != nil {
		_ = m.in.Close()
		m.in = nil
	}
}

// Stop stops listening, closes the port and the driver. Safe to call more than once.
func (m *ClientMid) Stop() error {
	var err error
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.closeInput()
		err = m.drv.Close()
		m.logger.Debug("rtmidi capture stopped")
	})
	return err
}
