package looper

import (
	"math"
	"slices"

	"github.com/viterin/vek/vek32"
)

type (
	// Bank owns the tracks and the transport. Every method except Shared
	// and the Transport getters must be called from the audio goroutine.
	Bank struct {
		Transport Transport

		tracks      [NumLoopers]track
		shared      [NumLoopers]Shared
		sampleRate  int
		bpmRounding bool

		len, playhead int
		playing       bool

		scratch [SummaryChunk]float32
	}

	track struct {
		shared *Shared
		state  State
		audio  []float32

		pending    bool
		stopQueued bool
		cycles     uint32
		playhead   int
		blockPeak  float32

		// peaks holds one peak per SummaryChunk samples.
		peaks       []float32
		chunkPeak   float32
		chunkLen    int
		sinceVisual int
		dirtyFrom   int
		dirtyTo     int
		stale       bool
	}
)

func New(sampleRate int, bpmRounding bool) *Bank {
	b := &Bank{sampleRate: sampleRate, bpmRounding: bpmRounding, playing: true}
	for i := range b.tracks {
		b.tracks[i].shared = &b.shared[i]
		b.tracks[i].dirtyFrom = -1
	}
	b.publishTransport()
	return b
}

func (b *Bank) Shared(i int) *Shared { return &b.shared[i] }

func (b *Bank) SetBPMRounding(enabled bool) { b.bpmRounding = enabled }

// Position returns the transport playhead and length as seen by the audio
// goroutine.
func (b *Bank) Position() (playhead, length int) { return b.playhead, b.len }
func (b *Bank) Playing() bool                    { return b.playing }

// Audio returns the recorded audio of a track. The slice is owned by the
// bank; copy it before handing it to another goroutine.
func (b *Bank) Audio(i int) []float32 { return b.tracks[i].audio }

// Cycles returns the loop length of a track in transport cycles.
func (b *Bank) Cycles(i int) uint32 { return b.tracks[i].cycles }

func (t *track) setState(s State) {
	t.state = s
	t.shared.state.Store(uint32(s))
}

func (t *track) setPending(p bool) {
	t.pending = p
	t.shared.pending.Store(p)
}

func (t *track) setStopQueued(q bool) {
	t.stopQueued = q
	t.shared.stopQueued.Store(q)
}

func (t *track) setCycles(c uint32) {
	t.cycles = c
	t.shared.cycles.Store(c)
}

func (b *Bank) publishTransport() {
	b.Transport.len.Store(int64(b.len))
	b.Transport.playhead.Store(int64(b.playhead))
	b.Transport.playing.Store(b.playing)
}

// Press is the single button interface of a track. With no transport an
// empty track is armed; an armed track is disarmed; otherwise the press is
// queued and applied at the next wrap. While the first loop is being
// recorded, presses on other tracks wait for the wrap that starts the
// transport.
func (b *Bank) Press(i int) {
	if i < 0 || i >= NumLoopers {
		return
	}
	t := &b.tracks[i]
	switch t.state {
	case Empty:
		if b.len == 0 && b.recordingFirst() {
			if b.playing {
				b.queue(i)
			}
		} else if b.len == 0 {
			b.arm(i)
			t.audio = slices.Grow(t.audio[:0], 5*b.sampleRate)
		} else if b.playing {
			b.queue(i)
		}
	case Armed:
		b.Clear(i)
	default:
		if b.playing {
			b.queue(i)
		}
	}
}

func (b *Bank) recordingFirst() bool {
	for i := range b.tracks {
		if b.tracks[i].state == Recording {
			return true
		}
	}
	return false
}

func (b *Bank) queue(i int) {
	t := &b.tracks[i]
	t.setPending(true)
	if t.state == Empty {
		t.setState(Armed)
	}
}

func (b *Bank) arm(i int) {
	for j := range b.tracks {
		if j != i && b.tracks[j].state == Armed {
			b.tracks[j].setState(Empty)
		}
	}
	b.tracks[i].setState(Armed)
}

// TogglePlayback stops a playing track at once; a stopped track resumes
// from its start at the next wrap.
func (b *Bank) TogglePlayback(i int) {
	if i < 0 || i >= NumLoopers {
		return
	}
	t := &b.tracks[i]
	switch t.state {
	case Playing, Overdubbing:
		if t.state == Overdubbing {
			b.regenerate(t)
		}
		t.setState(Stopped)
		t.setPending(false)
	case Stopped:
		t.setPending(true)
	}
}

// Clear empties a track. Clearing the last non-empty track also resets the
// transport.
func (b *Bank) Clear(i int) {
	if i < 0 || i >= NumLoopers {
		return
	}
	t := &b.tracks[i]
	t.audio = t.audio[:0]
	t.playhead = 0
	t.setPending(false)
	t.setStopQueued(false)
	t.setCycles(0)
	t.peaks = t.peaks[:0]
	t.chunkPeak, t.chunkLen, t.sinceVisual = 0, 0, 0
	t.dirtyFrom = -1
	t.setState(Empty)
	t.shared.playhead.Store(0)
	t.shared.length.Store(0)
	t.stale = !t.shared.publishSummary(nil)

	for j := range b.tracks {
		if len(b.tracks[j].audio) > 0 {
			return
		}
	}
	b.len, b.playhead = 0, 0
	// presses queued for a wrap of the old transport would otherwise be
	// taken for the stop of a new first recording
	for j := range b.tracks {
		o := &b.tracks[j]
		if o.state != Empty && o.state != Armed {
			continue
		}
		if o.pending && o.state == Armed {
			o.setState(Empty)
		}
		o.setPending(false)
		o.setStopQueued(false)
	}
	b.publishTransport()
}

// ClearAll empties every track and resets the transport, leaving it playing
// or paused.
func (b *Bank) ClearAll(play bool) {
	b.playing = play
	b.len, b.playhead = 0, 0
	for i := range b.tracks {
		b.Clear(i)
	}
	b.publishTransport()
}

func (b *Bank) Play() {
	b.playing = true
	b.publishTransport()
}

// Stop pauses the transport and rewinds it and every track to the start.
func (b *Bank) Stop() {
	b.playing = false
	b.playhead = 0
	for i := range b.tracks {
		b.tracks[i].playhead = 0
		b.shared[i].playhead.Store(0)
	}
	b.publishTransport()
}

func (b *Bank) ToggleTransport() {
	if b.playing {
		b.Stop()
	} else {
		b.Play()
	}
}

func (b *Bank) SetLen(n int) {
	b.len = max(n, 0)
	if b.len > 0 {
		b.playhead %= b.len
	} else {
		b.playhead = 0
	}
	b.recount()
	b.publishTransport()
}

// DoubleTempo halves the transport length when it divides evenly.
func (b *Bank) DoubleTempo() {
	if b.len > 1 && b.len%2 == 0 {
		b.SetLen(b.len / 2)
	}
}

// HalveTempo doubles the transport length.
func (b *Bank) HalveTempo() {
	if b.len > 0 {
		b.SetLen(b.len * 2)
	}
}

func (b *Bank) recount() {
	for i := range b.tracks {
		t := &b.tracks[i]
		if len(t.audio) == 0 || b.len == 0 || (t.state != Playing && t.state != Overdubbing && t.state != Stopped) {
			continue
		}
		t.setCycles(uint32(max(len(t.audio)/b.len, 1)))
	}
}

// Load replaces the audio of a track with a finished loop, which starts
// playing from its beginning.
func (b *Bank) Load(i int, data []float32) {
	if i < 0 || i >= NumLoopers || len(data) == 0 {
		return
	}
	t := &b.tracks[i]
	t.audio = data
	t.playhead = 0
	t.setPending(false)
	t.setStopQueued(false)
	t.setCycles(1)
	t.setState(Playing)
	t.shared.length.Store(int64(len(data)))
	t.shared.playhead.Store(0)
	b.regenerate(t)
}

// Process advances the bank by one sample. in is the signal being recorded;
// gains holds the audible gain of every track (0 for muted tracks). It
// returns the sum of the audible tracks.
func (b *Bank) Process(in float32, gains *[NumLoopers]float32) float32 {
	if b.len > 0 && b.playhead == 0 && b.playing {
		b.wrap()
	}
	if b.len == 0 {
		b.finalizeFirst()
	}

	var out float32
	absIn := float32(math.Abs(float64(in)))
	for i := range b.tracks {
		t := &b.tracks[i]
		switch t.state {
		case Armed:
			if b.playing && b.len == 0 && !t.pending && absIn > ArmThreshold {
				t.setState(Recording)
				t.setCycles(1)
			}
		case Recording:
			if !b.playing {
				continue
			}
			t.audio = append(t.audio, in)
			t.chunkPeak = max(t.chunkPeak, absIn)
			if t.chunkLen++; t.chunkLen >= SummaryChunk {
				t.peaks = append(t.peaks, t.chunkPeak)
				t.chunkPeak, t.chunkLen = 0, 0
			}
			t.sinceVisual++
		case Playing, Overdubbing:
			if len(t.audio) == 0 {
				continue
			}
			s := t.audio[t.playhead]
			t.blockPeak = max(t.blockPeak, float32(math.Abs(float64(s))))
			if !b.playing {
				continue
			}
			out += s * gains[i]
			if t.state == Overdubbing {
				t.audio[t.playhead] = min(max(s+in, -1), 1)
				t.markDirty(t.playhead / SummaryChunk)
				t.sinceVisual++
			}
			t.playhead = (t.playhead + 1) % len(t.audio)
		}
	}

	if b.len > 0 && b.playing {
		b.playhead = (b.playhead + 1) % b.len
	}
	return out
}

func (b *Bank) wrap() {
	for i := range b.tracks {
		t := &b.tracks[i]
		wasOverdubbing := t.state == Overdubbing
		if t.pending {
			switch t.state {
			case Recording:
				t.setStopQueued(true)
			case Empty, Armed:
				t.audio = t.audio[:0]
				t.playhead = 0
				t.setCycles(0)
				t.peaks = t.peaks[:0]
				t.chunkPeak, t.chunkLen = 0, 0
				t.setStopQueued(false)
				t.setState(Recording)
			case Playing:
				t.setState(Overdubbing)
			case Overdubbing:
				t.setState(Playing)
			case Stopped:
				t.playhead = 0
				t.setState(Playing)
			}
			t.setPending(false)
		}
		if wasOverdubbing {
			b.regenerate(t)
		}
	}
	for i := range b.tracks {
		t := &b.tracks[i]
		if !t.stopQueued {
			continue
		}
		t.setStopQueued(false)
		finalLen := b.len * int(t.cycles)
		if finalLen == 0 {
			b.Clear(i)
			continue
		}
		t.audio = resize(t.audio, finalLen)
		t.playhead = 0
		t.setState(Playing)
		t.shared.length.Store(int64(finalLen))
		b.regenerate(t)
	}
	for i := range b.tracks {
		t := &b.tracks[i]
		if t.state == Recording {
			t.setCycles(t.cycles + 1)
			if b.len > 0 {
				t.audio = slices.Grow(t.audio, b.len)
				t.peaks = slices.Grow(t.peaks, b.len/SummaryChunk)
			}
		}
	}
}

// finalizeFirst turns the first stopped recording into the transport.
func (b *Bank) finalizeFirst() {
	for i := range b.tracks {
		t := &b.tracks[i]
		if !t.pending || t.state != Recording {
			continue
		}
		n := len(t.audio)
		if n == 0 {
			return
		}
		if b.bpmRounding {
			bar := float64(b.sampleRate) * 240
			if bpm := math.Round(bar / float64(n)); bpm > 0 {
				n = int(bar / bpm)
				t.audio = resize(t.audio, n)
			}
		}
		b.len, b.playhead = n, 0
		t.playhead = 0
		t.setState(Playing)
		t.setCycles(1)
		t.setPending(false)
		t.shared.length.Store(int64(n))
		b.regenerate(t)
		b.publishTransport()
		// the transport starts here, so this is its first wrap
		b.wrap()
		return
	}
}

func resize(a []float32, n int) []float32 {
	if n <= len(a) {
		return a[:n]
	}
	return append(a, make([]float32, n-len(a))...)
}

func (t *track) markDirty(chunk int) {
	if t.dirtyFrom < 0 {
		t.dirtyFrom, t.dirtyTo = chunk, chunk
		return
	}
	t.dirtyFrom = min(t.dirtyFrom, chunk)
	t.dirtyTo = max(t.dirtyTo, chunk)
}

func (b *Bank) chunkPeak(chunk []float32) float32 {
	s := b.scratch[:len(chunk)]
	vek32.Abs_Into(s, chunk)
	return vek32.Max(s)
}

// regenerate recomputes the peaks of the whole track and republishes the
// summary.
func (b *Bank) regenerate(t *track) {
	t.peaks = t.peaks[:0]
	t.chunkPeak, t.chunkLen = 0, 0
	t.dirtyFrom = -1
	for i := 0; i < len(t.audio); i += SummaryChunk {
		t.peaks = append(t.peaks, b.chunkPeak(t.audio[i:min(i+SummaryChunk, len(t.audio))]))
	}
	t.stale = !t.shared.publishSummary(t.peaks)
}

func (b *Bank) updateDirty(t *track) {
	if t.dirtyFrom < 0 {
		return
	}
	for c := t.dirtyFrom; c <= t.dirtyTo && c < len(t.peaks); c++ {
		start := c * SummaryChunk
		end := min(start+SummaryChunk, len(t.audio))
		if start < end {
			t.peaks[c] = b.chunkPeak(t.audio[start:end])
		}
	}
	t.dirtyFrom = -1
}

// EndBlock publishes meters, playheads and waveform summaries after a block
// of samples.
func (b *Bank) EndBlock() {
	for i := range b.tracks {
		t := &b.tracks[i]
		if t.sinceVisual >= SummaryChunk || t.stale {
			if t.state == Overdubbing {
				b.updateDirty(t)
			}
			t.stale = !t.shared.publishSummary(t.peaks)
			t.sinceVisual = 0
		}
		t.shared.Peak.Store(min(t.blockPeak, 1))
		t.blockPeak = 0
		t.shared.playhead.Store(int64(t.playhead))
		if t.state == Recording {
			t.shared.length.Store(int64(len(t.audio)))
		}
	}
	b.publishTransport()
}
