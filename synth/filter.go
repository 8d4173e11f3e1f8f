package synth

import "math"

type (
	FilterMode int

	FilterSettings struct {
		Mode      FilterMode `yaml:"mode"`
		Cutoff    float32    `yaml:"cutoff"` // normalized, 0..1 maps to 20 Hz..20 kHz
		Resonance float32    `yaml:"resonance"`
	}

	// Filter is a trapezoidal state variable filter.
	Filter struct {
		Settings   FilterSettings
		sampleRate float32
		z1, z2     float32
	}
)

const (
	LowPass FilterMode = iota
	HighPass
	BandPass
)

func (m FilterMode) String() string {
	switch m {
	case HighPass:
		return "highpass"
	case BandPass:
		return "bandpass"
	}
	return "lowpass"
}

func DefaultFilterSettings() FilterSettings {
	return FilterSettings{Mode: LowPass, Cutoff: 0.99}
}

func NewFilter(sampleRate float32) Filter {
	return Filter{Settings: DefaultFilterSettings(), sampleRate: sampleRate}
}

// CutoffHz maps a normalized cutoff to frequency on an exponential scale.
func CutoffHz(norm float32) float32 {
	return float32(20 * math.Pow(1000, float64(norm)))
}

func (f *Filter) Reset() { f.z1, f.z2 = 0, 0 }

// Process filters one sample with the given normalized cutoff, which already
// includes any modulation.
func (f *Filter) Process(in, cutoff float32) float32 {
	fc := min(CutoffHz(cutoff), f.sampleRate*0.49)
	g := float32(math.Tan(math.Pi * float64(fc/f.sampleRate)))
	k := 2 - 2*min(max(f.Settings.Resonance, 0), 0.99)
	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2
	v3 := in - f.z2
	v1 := a1*f.z1 + a2*v3
	v2 := f.z2 + a2*f.z1 + a3*v3
	f.z1 = 2*v1 - f.z1
	f.z2 = 2*v2 - f.z2
	switch f.Settings.Mode {
	case HighPass:
		return in - k*v1 - v2
	case BandPass:
		return v1
	}
	return v2
}
