package engine

import (
	"github.com/cypher-audio/cypher/synth"
	"github.com/cypher-audio/cypher/synth/sampler"
	"github.com/cypher-audio/cypher/synth/wavetable"
)

// Controller is the control surface side of the engine. Commands whose
// settings are also mirrored in the shared parameters go through here so
// the mirror and the audio goroutine stay in step.
type Controller struct {
	Broker     *Broker
	Shared     *Shared
	SampleRate int
}

func NewController(b *Broker, e *Engine) *Controller {
	return &Controller{Broker: b, Shared: e.Shared(), SampleRate: e.SampleRate()}
}

func (c *Controller) Send(cmd Command) { c.Broker.Send(cmd) }

// Params returns the parameter set of an engine slot.
func (c *Controller) Params(slot int) synth.EngineParams {
	return c.Shared.Engines[slot&1].Load()
}

// ChangeEngineType builds a new engine for the slot and hands it to the
// audio goroutine.
func (c *Controller) ChangeEngineType(slot int, kind synth.EngineKind) synth.EngineParams {
	slot &= 1
	en, p := NewEngine(kind, c.SampleRate)
	c.Shared.Engines[slot].Store(p)
	c.Send(ChangeEngineType{Engine: slot, New: en, Params: p})
	return p
}

func (c *Controller) SetAmpADSR(slot int, s synth.ADSRSettings) {
	c.Params(slot).Common().AmpADSR.Store(s)
	c.Send(SetAmpADSR{Engine: slot & 1, Settings: s})
}

func (c *Controller) SetFilterADSR(slot int, s synth.ADSRSettings) {
	c.Params(slot).Common().FilterADSR.Store(s)
	c.Send(SetFilterADSR{Engine: slot & 1, Settings: s})
}

func (c *Controller) SetPolyphonic(slot int, poly bool) {
	c.Params(slot).Common().Polyphonic.Store(poly)
	c.Send(SetSynthMode{Engine: slot & 1, Polyphonic: poly})
}

func (c *Controller) SetSamplerSettings(slot int, s sampler.Settings) {
	if p, ok := c.Params(slot).(*sampler.Params); ok {
		p.Settings.Store(s)
		c.Send(SetSamplerSettings{Engine: slot & 1, Settings: s})
	}
}

// ApplyWavetablePreset loads a preset into a wavetable slot, changing the
// slot's engine type if needed. Envelope and polyphony settings reach the
// voices through commands.
func (c *Controller) ApplyWavetablePreset(slot int, pr wavetable.Preset) {
	p, ok := c.Params(slot).(*wavetable.Params)
	if !ok {
		p = c.ChangeEngineType(slot, synth.WavetableEngine).(*wavetable.Params)
	}
	p.ApplyPreset(pr)
	c.sendCommon(slot, p.Common())
}

// ApplySamplerPreset is ApplyWavetablePreset for sampler slots. Sample
// files named in the preset are not loaded here.
func (c *Controller) ApplySamplerPreset(slot int, pr sampler.Preset) {
	p, ok := c.Params(slot).(*sampler.Params)
	if !ok {
		p = c.ChangeEngineType(slot, synth.SamplerEngine).(*sampler.Params)
	}
	p.ApplyPreset(pr)
	c.sendCommon(slot, p.Common())
	c.Send(SetSamplerSettings{Engine: slot & 1, Settings: p.Settings.Load()})
}

func (c *Controller) sendCommon(slot int, p *synth.Params) {
	c.Send(SetAmpADSR{Engine: slot & 1, Settings: p.AmpADSR.Load()})
	c.Send(SetFilterADSR{Engine: slot & 1, Settings: p.FilterADSR.Load()})
	c.Send(SetSynthMode{Engine: slot & 1, Polyphonic: p.Polyphonic.Load()})
}
