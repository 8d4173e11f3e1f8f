package synth

import (
	"sync/atomic"

	"github.com/cypher-audio/cypher"
)

type (
	// EngineKind names the concrete backend of an engine slot.
	EngineKind int

	// Engine is a polyphonic sound source. All methods are called on the
	// audio goroutine.
	Engine interface {
		Kind() EngineKind
		// Process overwrites out with the next len(out) samples.
		Process(out []float32, transportLen int, cc *CCTable)
		NoteOn(note, velocity byte)
		NoteOff(note byte)
		SetPolyphonic(poly bool)
		SetAmpADSR(s ADSRSettings)
		SetFilterADSR(s ADSRSettings)
		ResetToDefaults()
		// SetWavetable replaces one wavetable slot; engines without
		// wavetables ignore it.
		SetWavetable(slot int, t Wavetable)
	}

	// EngineParams is the parameter set the UI shares with an engine. It is
	// either a *wavetable.Params or a *sampler.Params.
	EngineParams interface {
		Kind() EngineKind
		Common() *Params
	}

	// Params are the parameters every engine kind has. Envelope settings
	// and the polyphony flag reach the voices through commands; the copies
	// here mirror what was last sent, for display and presets.
	Params struct {
		Volume     cypher.Param
		Peak       cypher.Meter
		AmpADSR    cypher.Locked[ADSRSettings]
		FilterADSR cypher.Locked[ADSRSettings]
		Polyphonic atomic.Bool
		Filter     cypher.Locked[FilterSettings]
		LFO1, LFO2 cypher.Locked[LFOSettings]
		Saturation cypher.Locked[SaturationSettings]
		Mods       ModMatrix
		Feedback   Feedback
	}

	// Feedback is written by the audio goroutine once per block for display.
	// Bipolar modulation values are mapped from -1..1 to 0..1.
	Feedback struct {
		LFO1, LFO2        cypher.Param
		Env2              cypher.Param
		Pitch, Amplitude  cypher.Param
		BellPosition      cypher.Param
		BellAmount        cypher.Param
		BellWidth         cypher.Param
		Saturation        cypher.Param // drive / 10
		WavetablePosition cypher.Param // final morph position in table units
		Cutoff            cypher.Param // final normalized cutoff
	}

	// Synth runs two engine slots side by side. Both receive every note.
	Synth struct {
		Engines [2]Engine
	}
)

const (
	WavetableEngine EngineKind = iota
	SamplerEngine
)

func (k EngineKind) String() string {
	if k == SamplerEngine {
		return "sampler"
	}
	return "wavetable"
}

// Reset puts every parameter back to its default value.
func (p *Params) Reset() {
	p.Volume.Store(1)
	p.AmpADSR.Store(DefaultADSRSettings())
	p.FilterADSR.Store(DefaultADSRSettings())
	p.Polyphonic.Store(true)
	p.Filter.Store(DefaultFilterSettings())
	p.LFO1.Store(DefaultLFOSettings())
	p.LFO2.Store(DefaultLFOSettings())
	p.Saturation.Store(DefaultSaturationSettings())
	p.Mods.Store(nil)
	p.Feedback.Pitch.Store(0.5)
	p.Feedback.Amplitude.Store(0.5)
	p.Feedback.BellPosition.Store(0.5)
	p.Feedback.BellAmount.Store(0.5)
	p.Feedback.BellWidth.Store(0.5)
	p.Feedback.Cutoff.Store(1)
}

func bipolar(v float32) float32 { return min(max(v*0.5+0.5, 0), 1) }

// Publish stores the feedback values of one block. mods, env2 and drive come
// from the youngest active voice, or from the idle modulation when nothing
// plays.
func (f *Feedback) Publish(lfo1, lfo2 float32, mods ModValues, env2, drive float32) {
	f.LFO1.Store(bipolar(lfo1))
	f.LFO2.Store(bipolar(lfo2))
	f.Env2.Store(env2)
	f.Pitch.Store(bipolar(mods[ModPitch]))
	f.Amplitude.Store(bipolar(mods[ModAmplitude]))
	f.BellPosition.Store(bipolar(mods[ModBellPosition]))
	f.BellAmount.Store(bipolar(mods[ModBellAmount]))
	f.BellWidth.Store(bipolar(mods[ModBellWidth]))
	f.Saturation.Store(min(max(drive, 0), 1))
}

// Last returns the final element of a block buffer, or 0.
func Last(buf []float32) float32 {
	if len(buf) == 0 {
		return 0
	}
	return buf[len(buf)-1]
}

func (s *Synth) Process(out0, out1 []float32, transportLen int, cc *CCTable) {
	s.Engines[0].Process(out0, transportLen, cc)
	s.Engines[1].Process(out1, transportLen, cc)
}

func (s *Synth) NoteOn(note, velocity byte) {
	s.Engines[0].NoteOn(note, velocity)
	s.Engines[1].NoteOn(note, velocity)
}

func (s *Synth) NoteOff(note byte) {
	s.Engines[0].NoteOff(note)
	s.Engines[1].NoteOff(note)
}
