package synth

// SaturationSettings shape the tanh saturation stage. Drive is the depth
// reached when the saturation modulation is fully positive; Compensation and
// Bias shape the makeup gain curve.
type SaturationSettings struct {
	Drive        float32 `yaml:"drive"`
	Compensation float32 `yaml:"compensation"`
	Bias         float32 `yaml:"bias"`
}

func DefaultSaturationSettings() SaturationSettings {
	return SaturationSettings{Drive: 0, Compensation: 0.5, Bias: 0.5}
}

// DriveAmount returns the total drive, 0..10, for a summed saturation
// modulation.
func (s SaturationSettings) DriveAmount(mod float32) float32 {
	return max(0, min(max(mod, -1), 1)*s.Drive*10)
}

// Process saturates x with the given drive amount and applies makeup gain
// along a quadratic Bezier curve from 1 to 1-Compensation.
func (s SaturationSettings) Process(x, drive float32) float32 {
	y := FastTanh(x * (1 + drive))
	t := min(max(drive/10, 0), 1)
	const p0 = 1
	p2 := 1 - s.Compensation
	p1 := p0 + (p2-p0)*s.Bias
	u := 1 - t
	return y * (u*u*p0 + 2*u*t*p1 + t*t*p2)
}
