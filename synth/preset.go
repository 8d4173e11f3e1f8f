package synth

import (
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gopkg.in/yaml.v3"
)

// SavePreset writes an engine preset as YAML.
func SavePreset(path string, preset any) error {
	b, err := yaml.Marshal(preset)
	if err != nil {
		return fault.Wrap(err, fmsg.With("could not marshal preset"), ftag.With(ftag.Internal))
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fault.Wrap(err, fmsg.With("could not write preset"), ftag.With(ftag.Internal))
	}
	return nil
}

// LoadPreset reads a YAML preset into preset, which should already hold the
// defaults for fields missing from the file.
func LoadPreset(path string, preset any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fault.Wrap(err, fmsg.With("could not read preset"), ftag.With(ftag.NotFound))
	}
	if err := yaml.Unmarshal(b, preset); err != nil {
		return fault.Wrap(err,
			fmsg.WithDesc("could not unmarshal preset", "The preset file is not valid"),
			ftag.With(ftag.InvalidArgument))
	}
	return nil
}

// CommonPreset is the part of a preset every engine kind shares.
type CommonPreset struct {
	Volume     float32            `yaml:"volume"`
	AmpADSR    ADSRSettings       `yaml:"ampadsr"`
	FilterADSR ADSRSettings       `yaml:"filteradsr"`
	Polyphonic bool               `yaml:"polyphonic"`
	Filter     FilterSettings     `yaml:"filter"`
	LFO1       LFOSettings        `yaml:"lfo1"`
	LFO2       LFOSettings        `yaml:"lfo2"`
	Saturation SaturationSettings `yaml:"saturation"`
	Mods       []ModRouting       `yaml:"mods,omitempty"`
}

func (p *Params) Preset() CommonPreset {
	return CommonPreset{
		Volume:     p.Volume.Load(),
		AmpADSR:    p.AmpADSR.Load(),
		FilterADSR: p.FilterADSR.Load(),
		Polyphonic: p.Polyphonic.Load(),
		Filter:     p.Filter.Load(),
		LFO1:       p.LFO1.Load(),
		LFO2:       p.LFO2.Load(),
		Saturation: p.Saturation.Load(),
		Mods:       append([]ModRouting(nil), p.Mods.Load()...),
	}
}

// ApplyPreset stores the preset values. The envelopes and the polyphony flag
// still need to be sent to the running engine.
func (p *Params) ApplyPreset(c CommonPreset) {
	p.Volume.Store(c.Volume)
	p.AmpADSR.Store(c.AmpADSR)
	p.FilterADSR.Store(c.FilterADSR)
	p.Polyphonic.Store(c.Polyphonic)
	p.Filter.Store(c.Filter)
	p.LFO1.Store(c.LFO1)
	p.LFO2.Store(c.LFO2)
	p.Saturation.Store(c.Saturation)
	p.Mods.Store(c.Mods)
}

func DefaultCommonPreset() CommonPreset {
	return CommonPreset{
		Volume:     1,
		AmpADSR:    DefaultADSRSettings(),
		FilterADSR: DefaultADSRSettings(),
		Polyphonic: true,
		Filter:     DefaultFilterSettings(),
		LFO1:       DefaultLFOSettings(),
		LFO2:       DefaultLFOSettings(),
		Saturation: DefaultSaturationSettings(),
	}
}
