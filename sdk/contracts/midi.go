package contracts

import (
	"encoding/json"
	"fmt"
	"time"
)

// RawMessage is an undecoded MIDI message as delivered by a driver.
type RawMessage struct {
	Data     []byte    // Status byte followed by the data bytes.
	Received time.Time // Arrival time at the driver callback.
}

// Kind is the type of a normalized MIDI event.
type Kind string

const (
	// KindNoteOn is a note-on with a non-zero velocity.
	KindNoteOn Kind = "note on"
	// KindNoteOff is a note-off, or a note-on with zero velocity.
	KindNoteOff Kind = "note off"
	// KindController is a control change.
	KindController Kind = "controller"
)

// Event is a normalized MIDI event. Values are never mutated after creation.
type Event struct {
	Timestamp  time.Time // Capture-side clock at normalization.
	Kind       Kind
	Channel    uint8 // 1-16
	Note       uint8 // note on / note off
	Velocity   uint8 // note on
	Controller uint8 // controller
	Value      uint8 // controller
}

// MarshalJSON encodes the event as a single database row value.
func (e Event) MarshalJSON() ([]byte, error) {
	ts := float64(e.Timestamp.UnixNano()) / float64(time.Second)

	switch e.Kind {
	case KindNoteOn:
		return json.Marshal(struct {
			Timestamp float64 `json:"timestamp"`
			Type      Kind    `json:"midi-data-type"`
			Value     string  `json:"value"`
			Velocity  uint8   `json:"velocity"`
			Channel   uint8   `json:"channel"`
		}{ts, e.Kind, NoteName(e.Note), e.Velocity, e.Channel})
	case KindNoteOff:
		return json.Marshal(struct {
			Timestamp float64 `json:"timestamp"`
			Type      Kind    `json:"midi-data-type"`
			Value     string  `json:"value"`
			Channel   uint8   `json:"channel"`
		}{ts, e.Kind, NoteName(e.Note), e.Channel})
	case KindController:
		return json.Marshal(struct {
			Timestamp float64 `json:"timestamp"`
			Type      Kind    `json:"midi-data-type"`
			Number    uint8   `json:"number"`
			Value     uint8   `json:"value"`
			Channel   uint8   `json:"channel"`
		}{ts, e.Kind, e.Controller, e.Value, e.Channel})
	}
	return nil, fmt.Errorf("unknown event kind %q", e.Kind)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the sharp-spelled name of a MIDI note number with middle C (60) as C3.
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-2)
}

// ClientMIDI defines an interface for MIDI input drivers.
type ClientMIDI interface {
	Stop() error                               // Stops capture and releases the port.
	ListDevices() ([]DeviceInfo, error)        // Lists all available MIDI input ports.
	SelectDevice(deviceID int) error           // Opens the input port with the given ID.
	StartCapture(eventChannel chan RawMessage) // Starts delivering raw messages to the channel.
}
