package sampler

import "github.com/cypher-audio/cypher/synth"

type Preset struct {
	synth.CommonPreset `yaml:",inline"`
	Settings           Settings         `yaml:"settings"`
	Samples            [NumSlots]string `yaml:"samples"` // file per slot, empty for none
}

func DefaultPreset() Preset {
	return Preset{CommonPreset: synth.DefaultCommonPreset(), Settings: DefaultSettings()}
}

// Preset snapshots the parameters. Sample paths are not known to the engine
// and are filled in by the caller.
func (p *Params) Preset() Preset {
	return Preset{CommonPreset: p.Params.Preset(), Settings: p.Settings.Load()}
}

func (p *Params) ApplyPreset(pr Preset) {
	p.Params.ApplyPreset(pr.CommonPreset)
	p.Settings.Store(pr.Settings)
}

func LoadPreset(path string) (Preset, error) {
	pr := DefaultPreset()
	err := synth.LoadPreset(path, &pr)
	return pr, err
}
