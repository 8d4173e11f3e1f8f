// Package wavetable implements a polyphonic morphing wavetable synthesizer.
package wavetable

import (
	"math"
	"sync/atomic"

	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/synth"
)

// NumVoices is the size of the voice pool.
const NumVoices = 10

type (
	// Layers are the volumes of the four table layers followed by the
	// volume of the morphing layer.
	Layers [5]float32

	Params struct {
		synth.Params
		Position cypher.Param // morph position in table units
		Layers   cypher.Locked[Layers]
		Tables   atomic.Pointer[synth.WavetableSet]
	}

	Engine struct {
		params     *Params
		voices     [NumVoices]voice
		mods       synth.Modulators
		poly       bool
		sampleRate float32
	}

	voice struct {
		synth.VoiceCore
		phase float32
		freq  float32
	}

	// block is the parameter snapshot taken at the start of a block.
	block struct {
		routings []synth.ModRouting
		tables   *synth.WavetableSet
		layers   Layers
		filter   synth.FilterSettings
		sat      synth.SaturationSettings
		position float32
	}
)

var basicTables = synth.BasicWavetables()

func DefaultLayers() Layers { return Layers{0, 0, 0, 0, 1} }

func NewParams() *Params {
	p := &Params{}
	p.Reset()
	return p
}

func (p *Params) Kind() synth.EngineKind { return synth.WavetableEngine }
func (p *Params) Common() *synth.Params  { return &p.Params }

func (p *Params) Reset() {
	p.Params.Reset()
	p.Position.Store(0)
	p.Layers.Store(DefaultLayers())
	p.Tables.Store(basicTables)
	p.Feedback.WavetablePosition.Store(0)
}

func New(sampleRate float32, params *Params) *Engine {
	e := &Engine{params: params, poly: params.Polyphonic.Load(), sampleRate: sampleRate, mods: synth.NewModulators(sampleRate)}
	amp, env2 := params.AmpADSR.Load(), params.FilterADSR.Load()
	for i := range e.voices {
		e.voices[i].VoiceCore = synth.NewVoiceCore(sampleRate)
		e.voices[i].SetADSR(amp, env2)
	}
	return e
}

func (e *Engine) Kind() synth.EngineKind { return synth.WavetableEngine }
func (e *Engine) Params() *Params        { return e.params }

func (e *Engine) Process(out []float32, transportLen int, cc *synth.CCTable) {
	clear(out)
	p := e.params
	lfo1s, lfo2s := p.LFO1.Load(), p.LFO2.Load()
	b := block{
		routings: p.Mods.Load(),
		tables:   p.Tables.Load(),
		layers:   p.Layers.Load(),
		filter:   p.Filter.Load(),
		sat:      p.Saturation.Load(),
		position: p.Position.Load(),
	}
	lfo1, lfo2 := e.mods.Run(len(out), lfo1s, lfo2s, transportLen, b.tables)
	base := e.mods.Base(b.routings, cc)
	for i := range e.voices {
		v := &e.voices[i]
		if !v.Active() {
			continue
		}
		v.Filter.Settings = b.filter
		for s := range out {
			out[s] += v.process(&b, base[s], e.sampleRate)
		}
	}
	e.publish(&b, synth.Last(lfo1), synth.Last(lfo2), cc)
}

func (e *Engine) publish(b *block, lfo1, lfo2 float32, cc *synth.CCTable) {
	var mods synth.ModValues
	var env2, drive float32
	if i := synth.Youngest(e.voices[:]); i >= 0 {
		v := &e.voices[i]
		mods, env2, drive = v.Mods, v.Env2Value, v.Drive
	} else {
		mods = synth.BaseMods(b.routings, lfo1, lfo2, cc)
		drive = b.sat.DriveAmount(mods[synth.ModSaturation]) / 10
	}
	f := &e.params.Feedback
	f.Publish(lfo1, lfo2, mods, env2, drive)
	n := float32(max(b.tables.Len(), 1))
	f.WavetablePosition.Store(min(max(b.position+mods[synth.ModWavetablePosition]*n, 0), n-1))
	f.Cutoff.Store(min(max(b.filter.Cutoff+mods[synth.ModFilterCutoff], 0), 1))
}

func (v *voice) process(b *block, base synth.ModValues, sampleRate float32) float32 {
	v.Tick()
	amp := v.Amp.Next()
	v.Env2Value = v.Env2.Next()
	m := synth.VoiceMods(base, b.routings, v.Env2Value, v.Velocity)

	n := float32(max(b.tables.Len(), 1))
	morph := b.position + m[synth.ModWavetablePosition]*n
	freq := v.freq * synth.Pow2(m[synth.ModPitch])
	v.phase = float32(math.Mod(float64(v.phase+freq/sampleRate*synth.WavetableSize), synth.WavetableSize))

	var osc float32
	for l := 0; l < 4; l++ {
		if b.layers[l] > 1e-6 {
			osc += b.tables.Sample(l, v.phase) * b.layers[l]
		}
	}
	if b.layers[4] > 1e-6 {
		x := b.tables.Morph(morph, v.phase)
		bellPos := min(max(m[synth.ModBellPosition]*0.5+0.5, 0), 1)
		sigma := min(max(0.15*synth.Pow2(-2*m[synth.ModBellWidth]), 0.02), 1)
		d := v.phase/synth.WavetableSize - bellPos
		bell := synth.ExpNeg(d*d/(2*sigma*sigma)) * m[synth.ModBellAmount]
		osc += x * (1 + bell) * b.layers[4]
	}

	drive := b.sat.DriveAmount(m[synth.ModSaturation])
	y := b.sat.Process(osc, drive)
	y = v.Filter.Process(y, min(max(b.filter.Cutoff+m[synth.ModFilterCutoff], 0), 1))

	v.Mods = m
	v.Drive = drive / 10
	return y * 0.5 * v.Velocity * amp * (1 + m[synth.ModAmplitude])
}

func (e *Engine) NoteOn(note, velocity byte) {
	e.mods.Retrigger(e.params.LFO1.Load(), e.params.LFO2.Load())
	var i int
	if e.poly {
		i = synth.PickVoice(e.voices[:])
	} else {
		i = synth.MonoVoice(e.voices[:])
	}
	v := &e.voices[i]
	v.freq = synth.NoteToFreq(note)
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

// ResetToDefaults restores the four basic wavetables.
func (e *Engine) ResetToDefaults() {
	e.params.Tables.Store(basicTables)
}

func (e *Engine) SetWavetable(slot int, t synth.Wavetable) {
	e.params.Tables.Store(e.params.Tables.Load().WithTable(slot, t))
}
