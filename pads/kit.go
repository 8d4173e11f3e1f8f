package pads

import (
	"path/filepath"

	"github.com/cypher-audio/cypher/synth"
)

type (
	KitPad struct {
		Path string `yaml:"path,omitempty"`
		FX   FX     `yaml:"fx"`
	}

	// Kit is the on-disk description of all pads: which sample each pad
	// plays and its effect settings.
	Kit struct {
		Pads [NumPads]KitPad `yaml:"pads"`
	}
)

func DefaultKit() Kit {
	var k Kit
	for i := range k.Pads {
		k.Pads[i].FX = DefaultFX()
	}
	return k
}

func SaveKit(path string, k Kit) error {
	return synth.SavePreset(path, k)
}

// LoadKit reads a kit. Relative sample paths are resolved against the
// directory of the kit file.
func LoadKit(path string) (Kit, error) {
	k := DefaultKit()
	if err := synth.LoadPreset(path, &k); err != nil {
		return Kit{}, err
	}
	dir := filepath.Dir(path)
	for i := range k.Pads {
		if p := k.Pads[i].Path; p != "" && !filepath.IsAbs(p) {
			k.Pads[i].Path = filepath.Join(dir, p)
		}
	}
	return k, nil
}
