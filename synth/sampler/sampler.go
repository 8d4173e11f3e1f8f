// Package sampler implements a polyphonic multi-sample player. Up to
// NumSlots mono samples are mapped across the keyboard by octave.
package sampler

import (
	"sync/atomic"

	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/synth"
)

const (
	NumVoices = 16
	NumSlots  = 8
)

type (
	// Settings are the sampler specific parameters.
	Settings struct {
		RootNotes [NumSlots]byte `yaml:"rootnotes,flow"`
		FineTune  float32        `yaml:"finetune"` // cents
		FadeOut   float32        `yaml:"fadeout"`  // fraction of the sample, 0..0.5
	}

	Params struct {
		synth.Params
		Settings cypher.Locked[Settings]
		// LastSlot is the slot the most recent note on played from.
		LastSlot atomic.Int32
	}

	Engine struct {
		params     *Params
		voices     [NumVoices]voice
		slots      [NumSlots][]float32
		settings   Settings
		mods       synth.Modulators
		poly       bool
		sampleRate float32
	}

	voice struct {
		synth.VoiceCore
		data  []float32
		phase float32
		ratio float32
	}

	block struct {
		routings  []synth.ModRouting
		filter    synth.FilterSettings
		sat       synth.SaturationSettings
		centRatio float32
		fadeOut   float32
	}
)

func DefaultSettings() Settings {
	s := Settings{FadeOut: 0.01}
	for i := range s.RootNotes {
		s.RootNotes[i] = byte(24 + 12*i)
	}
	return s
}

func NewParams() *Params {
	p := &Params{}
	p.Reset()
	return p
}

func (p *Params) Kind() synth.EngineKind { return synth.SamplerEngine }
func (p *Params) Common() *synth.Params  { return &p.Params }

func (p *Params) Reset() {
	p.Params.Reset()
	p.Settings.Store(DefaultSettings())
	p.LastSlot.Store(0)
}

func New(sampleRate float32, params *Params) *Engine {
	e := &Engine{
		params:     params,
		settings:   params.Settings.Load(),
		poly:       params.Polyphonic.Load(),
		sampleRate: sampleRate,
		mods:       synth.NewModulators(sampleRate),
	}
	amp, env2 := params.AmpADSR.Load(), params.FilterADSR.Load()
	for i := range e.voices {
		e.voices[i].VoiceCore = synth.NewVoiceCore(sampleRate)
		e.voices[i].SetADSR(amp, env2)
		e.voices[i].ratio = 1
	}
	return e
}

func (e *Engine) Kind() synth.EngineKind { return synth.SamplerEngine }
func (e *Engine) Params() *Params        { return e.params }

// Active also requires sample data: a voice whose slot was empty never
// sounds.
func (v *voice) Active() bool {
	return v.Amp.Active() && len(v.data) > 0
}

// LoadSample replaces the audio of a slot. Voices already playing the old
// buffer keep it until they finish.
func (e *Engine) LoadSample(slot int, data []float32) {
	if slot >= 0 && slot < NumSlots {
		e.slots[slot] = data
	}
}

// SetSettings applies root notes, fine tune and fade out.
func (e *Engine) SetSettings(s Settings) {
	e.settings = s
}

func (e *Engine) Process(out []float32, transportLen int, cc *synth.CCTable) {
	clear(out)
	p := e.params
	b := block{
		routings:  p.Mods.Load(),
		filter:    p.Filter.Load(),
		sat:       p.Saturation.Load(),
		centRatio: synth.Pow2(e.settings.FineTune / 100),
		fadeOut:   e.settings.FadeOut,
	}
	lfo1, lfo2 := e.mods.Run(len(out), p.LFO1.Load(), p.LFO2.Load(), transportLen, nil)
	base := e.mods.Base(b.routings, cc)
	for i := range e.voices {
		v := &e.voices[i]
		if !v.Active() {
			continue
		}
		v.Filter.Settings = b.filter
		for s := range out {
			out[s] += v.process(&b, base[s])
		}
	}

	var mods synth.ModValues
	var env2, drive float32
	if i := synth.Youngest(e.voices[:]); i >= 0 {
		v := &e.voices[i]
		mods, env2, drive = v.Mods, v.Env2Value, v.Drive
	} else {
		mods = synth.BaseMods(b.routings, synth.Last(lfo1), synth.Last(lfo2), cc)
		drive = b.sat.DriveAmount(mods[synth.ModSaturation]) / 10
	}
	p.Feedback.Publish(synth.Last(lfo1), synth.Last(lfo2), mods, env2, drive)
	p.Feedback.Cutoff.Store(min(max(b.filter.Cutoff+mods[synth.ModFilterCutoff], 0), 1))
}

func (v *voice) process(b *block, base synth.ModValues) float32 {
	v.Tick()
	amp := v.Amp.Next()
	if amp < 1e-6 {
		return 0
	}
	v.Env2Value = v.Env2.Next()
	m := synth.VoiceMods(base, b.routings, v.Env2Value, v.Velocity)

	n := len(v.data)
	fade := float32(1)
	if fadeLen := int(float32(n) * min(max(b.fadeOut, 0), 0.5)); fadeLen > 0 {
		start := float32(n - fadeLen)
		if v.phase >= start {
			fade = min(max(1-(v.phase-start)/float32(fadeLen), 0), 1)
		}
	}

	drive := b.sat.DriveAmount(m[synth.ModSaturation])
	y := b.sat.Process(interpolate(v.data, v.phase), drive)
	y = v.Filter.Process(y, min(max(b.filter.Cutoff+m[synth.ModFilterCutoff], 0), 1))
	out := y * 0.8 * v.Velocity * amp * max(1+m[synth.ModAmplitude], 0) * fade

	v.phase += v.ratio * b.centRatio * synth.Pow2(m[synth.ModPitch])
	if v.phase >= float32(n-1) || v.phase < 0 {
		v.Amp.Reset()
	}
	v.Mods = m
	v.Drive = drive / 10
	return out
}

func interpolate(data []float32, phase float32) float32 {
	if len(data) < 2 {
		if len(data) == 1 {
			return data[0]
		}
		return 0
	}
	i := int(phase)
	if i+1 >= len(data) {
		return data[min(i, len(data)-1)]
	}
	frac := phase - float32(i)
	return data[i]*(1-frac) + data[i+1]*frac
}

// SelectSlot picks the slot a note plays from. The ideal slot is the note's
// octave minus one; if it is empty the nearest non-empty slot above it is
// used, then the nearest below it. Returns -1 when every slot is empty.
func SelectSlot(slots *[NumSlots][]float32, note byte) int {
	ideal := min(max(int(note)/12-1, 0), NumSlots-1)
	for i := ideal; i < NumSlots; i++ {
		if len(slots[i]) > 0 {
			return i
		}
	}
	for i := ideal - 1; i >= 0; i-- {
		if len(slots[i]) > 0 {
			return i
		}
	}
	return -1
}

func (e *Engine) NoteOn(note, velocity byte) {
	e.mods.Retrigger(e.params.LFO1.Load(), e.params.LFO2.Load())
	slot := SelectSlot(&e.slots, note)
	if slot < 0 {
		return
	}
	e.params.LastSlot.Store(int32(slot))
	var i int
	if e.poly {
		i = synth.PickVoice(e.voices[:])
	} else {
		i = synth.MonoVoice(e.voices[:])
	}
	v := &e.voices[i]
	v.data = e.slots[slot]
	v.phase = 0
	v.ratio = synth.NoteToFreq(note) / synth.NoteToFreq(e.settings.RootNotes[slot])
	v.VoiceCore.NoteOn(note, velocity)
}

func (e *Engine) NoteOff(note byte) {
	synth.ReleaseNote(e.voices[:], note)
}

func (e *Engine) SetPolyphonic(poly bool) {
	e.poly = poly
	if !poly {
		synth.ReleaseAllButYoungest(e.voices[:])
	}
}

func (e *Engine) SetAmpADSR(s synth.ADSRSettings) {
	for i := range e.voices {
		e.voices[i].Amp.Settings = s
	}
}

func (e *Engine) SetFilterADSR(s synth.ADSRSettings) {
	for i := range e.voices {
		e.voices[i].Env2.Settings = s
	}
}

// ResetToDefaults empties every slot. Playing voices finish their sample.
func (e *Engine) ResetToDefaults() {
	e.slots = [NumSlots][]float32{}
}

func (e *Engine) SetWavetable(int, synth.Wavetable) {}
