package session

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/cypher-audio/cypher/engine"
	"github.com/cypher-audio/cypher/pads"
	"github.com/cypher-audio/cypher/samples"
	"github.com/cypher-audio/cypher/synth/sampler"
)

// LoadKit decodes the samples of a pad kit and returns the commands that
// install it. Pads without a sample are cleared.
func LoadKit(path string, sampleRate int) ([]engine.Command, error) {
	k, err := pads.LoadKit(path)
	if err != nil {
		return nil, err
	}
	var cmds []engine.Command
	for i, p := range k.Pads {
		if p.Path == "" {
			cmds = append(cmds, engine.ClearPad{Pad: i})
			continue
		}
		data, err := samples.Load(p.Path, sampleRate)
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("cannot load kit"))
		}
		cmds = append(cmds, engine.LoadPadSample{Pad: i, Data: data}, engine.SetPadFX{Pad: i, FX: p.FX})
	}
	return cmds, nil
}

// LoadSamplerSlots decodes samples into the slots of a sampler engine, the
// first path going to slot 0. Empty paths leave their slot alone.
func LoadSamplerSlots(slot int, paths []string, sampleRate int) ([]engine.Command, error) {
	var cmds []engine.Command
	for i, p := range paths {
		if i >= sampler.NumSlots {
			break
		}
		if p == "" {
			continue
		}
		data, err := samples.Load(p, sampleRate)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, engine.LoadSampleForSlot{Engine: slot, Slot: i, Data: data})
	}
	return cmds, nil
}

// LoadWavetables reads single cycle waveforms into the tables of a
// wavetable engine, the first path going to table 0.
func LoadWavetables(slot int, paths []string) ([]engine.Command, error) {
	var cmds []engine.Command
	for i, p := range paths {
		t, err := samples.LoadWavetable(p)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, engine.SetWavetable{Engine: slot, Slot: i, Table: t})
	}
	return cmds, nil
}
