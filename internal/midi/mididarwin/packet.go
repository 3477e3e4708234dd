package mididarwin

import (
	"sync"
	"time"

	"github.com/leandrodaf/midilog/sdk/contracts"
)

// messageLength returns the length of the message starting with status, or 0
// for bytes that do not start a fixed-length message.
func messageLength(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 3
	case 0xC0, 0xD0:
		return 2
	}
	switch status {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	case 0xF6:
		return 1
	}
	return 0
}

// splitPacket cuts a CoreMIDI packet into individual messages. Realtime bytes
// are skipped wherever they appear, sysex is dropped up to its terminator,
// running status is expanded and a truncated trailing message is discarded.
// Every returned slice is a fresh copy.
func splitPacket(data []byte) [][]byte {
	var (
		msgs    [][]byte
		running byte
	)
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b >= 0xF8:
			i++
			continue
		case b == 0xF0:
			running = 0
			for i < len(data) && data[i] != 0xF7 {
				i++
			}
			i++
			continue
		case b < 0x80:
			if running == 0 {
				i++
				continue
			}
			b = running
		default:
			i++
			if b < 0xF0 {
				running = b
			} else {
				running = 0
			}
		}

		n := messageLength(b)
		if n == 0 {
			continue
		}
		msg := make([]byte, 0, n)
		msg = append(msg, b)
		for len(msg) < n && i < len(data) {
			if d := data[i]; d >= 0xF8 {
				i++
				continue
			} else if d >= 0x80 {
				break
			}
			msg = append(msg, data[i])
			i++
		}
		if len(msg) == n {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// forwarder hands packet contents to the capture channel. After close it
// accepts no new callbacks, and close returns once in-flight ones are done.
type forwarder struct {
	log contracts.Logger

	mu sync.Mutex
	ch chan contracts.RawMessage
	wg sync.WaitGroup
}

func (f *forwarder) open(ch chan contracts.RawMessage) {
	f.mu.Lock()
	f.ch = ch
	f.mu.Unlock()
}

func (f *forwarder) close() {
	f.mu.Lock()
	f.ch = nil
	f.mu.Unlock()
	f.wg.Wait()
}

// forward sends every message of the packet and returns how many were queued.
func (f *forwarder) forward(data []byte, received time.Time) int {
	f.mu.Lock()
	ch := f.ch
	if ch == nil {
		f.mu.Unlock()
		return 0
	}
	f.wg.Add(1)
	f.mu.Unlock()
	defer f.wg.Done()

	sent := 0
	for _, msg := range splitPacket(data) {
		select {
		case ch <- contracts.RawMessage{Data: msg, Received: received}:
			sent++
		default:
			f.log.Warn("Event channel full; dropping MIDI message", f.log.Field().Any("data", msg))
		}
	}
	return sent
}
