// Package looper implements a bank of overdub capable loop recorders that
// share a single transport. All transitions except arming and clearing are
// applied at the transport wrap, the sample at which the global playhead
// returns to zero.
package looper

import (
	"sync"
	"sync/atomic"

	"github.com/cypher-audio/cypher"
)

const (
	NumLoopers = 12

	// ArmThreshold is the input level that starts the first recording.
	ArmThreshold = 0.05
	// SummaryChunk is the number of samples per high resolution peak.
	SummaryChunk = 256
	// SummarySize is the maximum number of peaks in a waveform summary.
	SummarySize = 512
)

type (
	State uint32

	// Shared is the part of a track visible to the UI. The audio goroutine
	// is the only writer.
	Shared struct {
		state      atomic.Uint32
		cycles     atomic.Uint32
		playhead   atomic.Int64
		length     atomic.Int64
		pending    atomic.Bool
		stopQueued atomic.Bool
		Peak       cypher.Meter

		summaryMu  sync.RWMutex
		summary    [SummarySize]float32
		summaryLen int
	}

	// Transport is the shared loop clock. Len is 0 until the first
	// recording is finalized.
	Transport struct {
		len      atomic.Int64
		playhead atomic.Int64
		playing  atomic.Bool
	}
)

const (
	Empty State = iota
	Armed
	Recording
	Playing
	Overdubbing
	Stopped
)

var stateNames = [...]string{"empty", "armed", "recording", "playing", "overdubbing", "stopped"}

func (s State) String() string {
	if int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s *Shared) State() State { return State(s.state.Load()) }

// Cycles is the length of the loop in transport cycles.
func (s *Shared) Cycles() uint32   { return s.cycles.Load() }
func (s *Shared) Playhead() int    { return int(s.playhead.Load()) }
func (s *Shared) Len() int         { return int(s.length.Load()) }
func (s *Shared) Pending() bool    { return s.pending.Load() }
func (s *Shared) StopQueued() bool { return s.stopQueued.Load() }

// Summary copies the waveform summary into dst and returns it.
func (s *Shared) Summary(dst []float32) []float32 {
	s.summaryMu.RLock()
	defer s.summaryMu.RUnlock()
	return append(dst[:0], s.summary[:s.summaryLen]...)
}

// publishSummary downsamples peaks into the summary. It gives up instead of
// waiting if the UI holds the lock; the next update retries.
func (s *Shared) publishSummary(peaks []float32) bool {
	if !s.summaryMu.TryLock() {
		return false
	}
	defer s.summaryMu.Unlock()
	if len(peaks) == 0 {
		s.summaryLen = 0
		return true
	}
	chunk := (len(peaks) + SummarySize - 1) / SummarySize
	n := 0
	for i := 0; i < len(peaks); i += chunk {
		var p float32
		for _, v := range peaks[i:min(i+chunk, len(peaks))] {
			p = max(p, v)
		}
		s.summary[n] = p
		n++
	}
	s.summaryLen = n
	return true
}

func (t *Transport) Len() int      { return int(t.len.Load()) }
func (t *Transport) Playhead() int { return int(t.playhead.Load()) }
func (t *Transport) Playing() bool { return t.playing.Load() }
