package synth

type (
	// ADSRState is the stage of an envelope.
	ADSRState int

	// ADSRSettings are envelope times in seconds and the sustain level in
	// [0, 1].
	ADSRSettings struct {
		Attack  float32 `yaml:"attack"`
		Decay   float32 `yaml:"decay"`
		Sustain float32 `yaml:"sustain"`
		Release float32 `yaml:"release"`
	}

	// ADSR is a linear attack/decay, exponential release envelope. The zero
	// value is idle with zero settings; use NewADSR for the defaults.
	ADSR struct {
		Settings   ADSRSettings
		state      ADSRState
		level      float32
		sampleRate float32
	}
)

const (
	Idle ADSRState = iota
	Attack
	Decay
	Sustain
	Release
)

func (s ADSRState) String() string {
	switch s {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	}
	return "idle"
}

func DefaultADSRSettings() ADSRSettings {
	return ADSRSettings{Attack: 0.01, Decay: 0.1, Sustain: 0.8, Release: 0.2}
}

func NewADSR(sampleRate float32) ADSR {
	return ADSR{Settings: DefaultADSRSettings(), sampleRate: sampleRate}
}

func (a *ADSR) State() ADSRState { return a.state }
func (a *ADSR) Level() float32   { return a.level }
func (a *ADSR) Active() bool     { return a.state != Idle }

// NoteOn restarts the attack from the current level.
func (a *ADSR) NoteOn() { a.state = Attack }

// NoteOff enters release unless the envelope is already idle.
func (a *ADSR) NoteOff() {
	if a.state != Idle {
		a.state = Release
	}
}

// Reset silences the envelope immediately.
func (a *ADSR) Reset() {
	a.state = Idle
	a.level = 0
}

// Next advances the envelope by one sample and returns the new level.
func (a *ADSR) Next() float32 {
	sr := a.sampleRate
	switch a.state {
	case Attack:
		if a.Settings.Attack > 0 {
			a.level += 1 / (a.Settings.Attack * sr)
		} else {
			a.level = 1
		}
		if a.level >= 1 {
			a.level = 1
			a.state = Decay
		}
	case Decay:
		s := a.Settings.Sustain
		if a.Settings.Decay > 0 {
			a.level -= (1 - s) / (a.Settings.Decay * sr)
		} else {
			a.level = s
		}
		if a.level <= s {
			a.level = s
			a.state = Sustain
		}
	case Sustain:
		a.level = a.Settings.Sustain
	case Release:
		if a.Settings.Release > 0 {
			a.level -= a.level / (a.Settings.Release * sr)
		} else {
			a.level = 0
		}
		if a.level <= 1e-6 {
			a.level = 0
			a.state = Idle
		}
	}
	return a.level
}
