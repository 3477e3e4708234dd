package source

import (
	"time"

	"github.com/leandrodaf/midilog/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

// Normalizer turns raw messages into events stamped with its clock.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer returns a Normalizer reading time.Now. A nil clock means time.Now.
func NewNormalizer(clock func() time.Time) *Normalizer {
	if clock == nil {
		clock = time.Now
	}
	return &Normalizer{now: clock}
}

// Normalize decodes note on, note off and control change messages. Any other
// message, including truncated ones, yields false.
func (n *Normalizer) Normalize(raw contracts.RawMessage) (contracts.Event, bool) {
	// Every recognized kind is a three byte channel message.
	if len(raw.Data) < 3 {
		return contracts.Event{}, false
	}
	msg := midi.Message(raw.Data[:3])
	var ch, key, vel, cc, val uint8

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return contracts.Event{Timestamp: n.now(), Kind: contracts.KindNoteOn, Channel: ch + 1, Note: key, Velocity: vel}, true
	case msg.GetNoteEnd(&ch, &key):
		return contracts.Event{Timestamp: n.now(), Kind: contracts.KindNoteOff, Channel: ch + 1, Note: key}, true
	case msg.GetControlChange(&ch, &cc, &val):
		return contracts.Event{Timestamp: n.now(), Kind: contracts.KindController, Channel: ch + 1, Controller: cc, Value: val}, true
	}
	return contracts.Event{}, false
}
