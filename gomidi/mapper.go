// Package gomidi connects MIDI inputs to the engine.
package gomidi

import (
	"sync"
	"time"

	"github.com/cypher-audio/cypher/engine"
	"gitlab.com/gomidi/midi/v2"
)

const (
	// DebounceTime filters repeated presses of a mapped button.
	DebounceTime = 50 * time.Millisecond
	// HoldCheckInterval is how often Run looks for long presses.
	HoldCheckInterval = 50 * time.Millisecond
	// DefaultLongPress is the hold time that clears a looper.
	DefaultLongPress = 500 * time.Millisecond
)

// Mapper turns incoming messages into engine commands. Notes and control
// changes are forwarded as MidiMessage; control changes mapped to a looper
// also press it, and holding one clears the looper.
type Mapper struct {
	send      func(engine.Command)
	loopers   map[uint8]int
	longPress time.Duration

	mu        sync.Mutex
	held      map[uint8]time.Time
	lastPress map[uint8]time.Time
}

// NewMapper maps looperCCs[i] to looper i. Negative entries are skipped.
func NewMapper(send func(engine.Command), looperCCs []int, longPress time.Duration) *Mapper {
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	m := &Mapper{
		send:      send,
		loopers:   map[uint8]int{},
		longPress: longPress,
		held:      map[uint8]time.Time{},
		lastPress: map[uint8]time.Time{},
	}
	for i, cc := range looperCCs {
		if cc >= 0 && cc < 128 {
			m.loopers[uint8(cc)] = i
		}
	}
	return m
}

// Handle processes one message received at now.
func (m *Mapper) Handle(msg midi.Message, now time.Time) {
	if len(msg) < 3 {
		return
	}
	switch msg[0] & 0xF0 {
	case 0x80, 0x90:
		m.send(engine.MidiMessage{Status: msg[0], Data1: msg[1], Data2: msg[2]})
	case 0xB0:
		m.send(engine.MidiMessage{Status: msg[0], Data1: msg[1], Data2: msg[2]})
		var ch, cc, val uint8
		if msg.GetControlChange(&ch, &cc, &val) {
			m.control(cc, val, now)
		}
	}
}

func (m *Mapper) control(cc, val uint8, now time.Time) {
	track, ok := m.loopers[cc]
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if val <= 64 {
		delete(m.held, cc)
		return
	}
	if last, ok := m.lastPress[cc]; !ok || now.Sub(last) > DebounceTime {
		m.send(engine.LooperPress{Track: track})
		m.lastPress[cc] = now
	}
	if _, ok := m.held[cc]; !ok {
		m.held[cc] = now
	}
}

// CheckHolds clears the loopers whose buttons have been held long enough.
func (m *Mapper) CheckHolds(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cc, t := range m.held {
		if now.Sub(t) >= m.longPress {
			m.send(engine.ClearLooper{Track: m.loopers[cc]})
			delete(m.held, cc)
		}
	}
}

// Run checks for long presses until done is closed.
func (m *Mapper) Run(done <-chan struct{}) {
	t := time.NewTicker(HoldCheckInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-t.C:
			m.CheckHolds(now)
		}
	}
}
