package wavetable

import "github.com/cypher-audio/cypher/synth"

type Preset struct {
	synth.CommonPreset `yaml:",inline"`
	Position           float32  `yaml:"position"`
	Layers             Layers   `yaml:"layers,flow"`
	Wavetables         []string `yaml:"wavetables,omitempty"` // table names, for display
}

func DefaultPreset() Preset {
	return Preset{CommonPreset: synth.DefaultCommonPreset(), Layers: DefaultLayers()}
}

func (p *Params) Preset() Preset {
	ret := Preset{
		CommonPreset: p.Params.Preset(),
		Position:     p.Position.Load(),
		Layers:       p.Layers.Load(),
	}
	for _, t := range p.Tables.Load().Tables {
		ret.Wavetables = append(ret.Wavetables, t.Name)
	}
	return ret
}

func (p *Params) ApplyPreset(pr Preset) {
	p.Params.ApplyPreset(pr.CommonPreset)
	p.Position.Store(pr.Position)
	p.Layers.Store(pr.Layers)
}

// LoadPreset reads a preset file, filling missing fields with defaults.
func LoadPreset(path string) (Preset, error) {
	pr := DefaultPreset()
	err := synth.LoadPreset(path, &pr)
	return pr, err
}
