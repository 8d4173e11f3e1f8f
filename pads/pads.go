// Package pads implements the one-shot pad sampler: sixteen pads mapped to
// consecutive MIDI notes, each with its own envelope, distortion and gated
// reverb.
package pads

import (
	"math"
	"sync/atomic"

	"github.com/cypher-audio/cypher/synth"
)

const (
	NumPads = 16
	// FirstNote is the MIDI note of pad 0.
	FirstNote = 48
)

type (
	FX struct {
		Volume     float32            `yaml:"volume"`
		Pitch      float32            `yaml:"pitch"` // semitones
		ADSR       synth.ADSRSettings `yaml:"adsr"`
		Distortion float32            `yaml:"distortion"`
		ReverbMix  float32            `yaml:"reverbmix"`
		ReverbSize float32            `yaml:"reverbsize"`
		Decay      float32            `yaml:"reverbdecay"`
		Gated      bool               `yaml:"gated,omitempty"`
		GateMs     float32            `yaml:"gatems,omitempty"`
	}

	pad struct {
		audio     []float32
		playhead  float32
		rate      float32
		velocity  float32
		fx        FX
		env       synth.ADSR
		reverb    *Reverb
		gate      int
		gateWasOn bool
	}

	// Bank is owned by the audio goroutine, except for Playing.
	Bank struct {
		// Playing has bit i set while pad i is sounding.
		Playing atomic.Uint32

		pads       [NumPads]pad
		sampleRate float32
	}
)

func DefaultFX() FX {
	return FX{
		Volume:     1,
		ADSR:       synth.ADSRSettings{Attack: 0, Decay: 0, Sustain: 1, Release: 4},
		ReverbSize: 0.7,
		Decay:      0.8,
	}
}

func New(sampleRate float32) *Bank {
	b := &Bank{sampleRate: sampleRate}
	for i := range b.pads {
		p := &b.pads[i]
		p.env = synth.NewADSR(sampleRate)
		p.reverb = NewReverb(sampleRate)
		p.setFX(DefaultFX())
	}
	return b
}

// Pad returns the pad index of a note and whether the note is on a pad.
func Pad(note byte) (int, bool) {
	if note < FirstNote || note >= FirstNote+NumPads {
		return 0, false
	}
	return int(note - FirstNote), true
}

func (p *pad) setFX(fx FX) {
	p.fx = fx
	p.rate = float32(math.Exp2(float64(fx.Pitch) / 12))
	p.env.Settings = fx.ADSR
	p.reverb.SetParams(0.5+fx.ReverbSize*0.5, fx.Decay)
}

// Load replaces the audio of a pad and resets its effects.
func (b *Bank) Load(i int, data []float32) {
	if i < 0 || i >= NumPads {
		return
	}
	p := &b.pads[i]
	p.audio = data
	p.setFX(DefaultFX())
}

func (b *Bank) Clear(i int) {
	if i < 0 || i >= NumPads {
		return
	}
	p := &b.pads[i]
	p.audio = nil
	p.env.Reset()
	p.setFX(DefaultFX())
}

func (b *Bank) SetFX(i int, fx FX) {
	if i >= 0 && i < NumPads {
		b.pads[i].setFX(fx)
	}
}

func (b *Bank) FX(i int) FX {
	if i < 0 || i >= NumPads {
		return DefaultFX()
	}
	return b.pads[i].fx
}

func (b *Bank) Loaded(i int) bool {
	return i >= 0 && i < NumPads && len(b.pads[i].audio) > 0
}

// NoteOn triggers a pad and returns its index. It reports false when the
// note is not on a pad or the pad is empty, so the caller can route the note
// elsewhere.
func (b *Bank) NoteOn(note, velocity byte) (int, bool) {
	i, ok := Pad(note)
	if !ok || !b.Loaded(i) {
		return 0, false
	}
	p := &b.pads[i]
	p.velocity = float32(velocity) / 127
	p.playhead = 0
	p.env.NoteOn()
	p.gate = int(p.fx.GateMs / 1000 * b.sampleRate)
	p.gateWasOn = true
	return i, true
}

func (b *Bank) NoteOff(note byte) {
	if i, ok := Pad(note); ok {
		b.pads[i].env.NoteOff()
	}
}

// Process renders the pads into out and publishes the playing mask.
func (b *Bank) Process(out []float32) {
	clear(out)
	var mask uint32
	for i := range b.pads {
		p := &b.pads[i]
		if !p.env.Active() {
			continue
		}
		mask |= 1 << i
		for s := range out {
			out[s] += p.next()
			if !p.env.Active() {
				break
			}
		}
	}
	b.Playing.Store(mask)
}

func (p *pad) next() float32 {
	n := len(p.audio)
	if int(p.playhead) >= n && p.env.State() != synth.Release {
		p.env.NoteOff()
	}
	var dry float32
	if i := int(p.playhead); i < n {
		frac := p.playhead - float32(i)
		var next float32
		if i+1 < n {
			next = p.audio[i+1]
		}
		dry = p.audio[i] + frac*(next-p.audio[i])
	}
	x := dry * p.env.Next() * p.velocity * p.fx.Volume
	if p.fx.Distortion > 0 {
		drive := 1 + p.fx.Distortion*20
		x = min(max(x*drive, -0.8), 0.8) / float32(math.Sqrt(float64(drive)))
	}

	var wet float32
	if p.fx.ReverbMix > 0 {
		if !p.fx.Gated {
			wet = p.reverb.Process(x) * p.fx.ReverbMix
		} else {
			if p.gate > 0 {
				p.gate--
			}
			open := p.gate > 0
			if p.gateWasOn && !open {
				p.reverb.Clear()
			}
			if open {
				wet = p.reverb.Process(x) * p.fx.ReverbMix
			}
			p.gateWasOn = open
		}
	}

	if int(p.playhead) < n {
		p.playhead += p.rate
	}
	return x*(1-p.fx.ReverbMix) + wet
}
