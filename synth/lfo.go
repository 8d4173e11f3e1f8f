package synth

import (
	"math"
	"math/rand/v2"
)

type (
	LFOWaveform int
	RateMode    int

	LFOSettings struct {
		Waveform  LFOWaveform `yaml:"waveform"`
		Rate      float32     `yaml:"rate"` // Hz
		Sync      float32     `yaml:"sync"` // cycles per transport loop
		Mode      RateMode    `yaml:"mode"`
		Retrigger bool        `yaml:"retrigger"`
	}

	// LFO is a low frequency oscillator with a phase in [0, 1).
	LFO struct {
		phase      float32
		held       float32
		sampleRate float32
	}

	// Modulators is the LFO pair of an engine together with block buffers
	// holding their output for the current block.
	Modulators struct {
		LFO1, LFO2 LFO
		buf1, buf2 []float32
		base       []ModValues
	}
)

const (
	LFOSine LFOWaveform = iota
	LFOTriangle
	LFOSaw
	LFOInvSaw
	LFOSquare
	LFORandom
	LFOWavetable1
	LFOWavetable2
	LFOWavetable3
	LFOWavetable4
)

const (
	RateHz RateMode = iota
	RateSync
)

var lfoWaveformNames = [...]string{"sine", "triangle", "saw", "inverse saw", "square", "random", "wavetable 1", "wavetable 2", "wavetable 3", "wavetable 4"}

func (w LFOWaveform) String() string {
	if w < 0 || int(w) >= len(lfoWaveformNames) {
		return "unknown"
	}
	return lfoWaveformNames[w]
}

func DefaultLFOSettings() LFOSettings {
	return LFOSettings{Waveform: LFOSine, Rate: 2, Sync: 1, Mode: RateHz}
}

// Frequency returns the LFO rate in Hz. In sync mode the rate follows the
// transport; without a transport the LFO stands still.
func (s LFOSettings) Frequency(sampleRate float32, transportLen int) float32 {
	if s.Mode == RateHz {
		return s.Rate
	}
	if transportLen <= 0 {
		return 0
	}
	return sampleRate / float32(transportLen) * s.Sync
}

func NewLFO(sampleRate float32) LFO {
	return LFO{sampleRate: sampleRate}
}

func (l *LFO) Reset() { l.phase = 0 }

// Next advances the phase and returns the output in [-1, 1]. tables is used
// by the wavetable waveforms and may be nil.
func (l *LFO) Next(freq float32, w LFOWaveform, tables *WavetableSet) float32 {
	inc := freq / l.sampleRate
	l.phase = float32(math.Mod(float64(l.phase+inc), 1))
	p := l.phase
	switch w {
	case LFOSine:
		return float32(math.Sin(2 * math.Pi * float64(p)))
	case LFOTriangle:
		return 1 - 4*float32(math.Abs(float64(p-0.5)))
	case LFOSaw:
		return 2*p - 1
	case LFOInvSaw:
		return 1 - 2*p
	case LFOSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case LFORandom:
		if p < inc {
			l.held = rand.Float32()*2 - 1
		}
		return l.held
	case LFOWavetable1, LFOWavetable2, LFOWavetable3, LFOWavetable4:
		if tables == nil {
			return 0
		}
		i := int(w - LFOWavetable1)
		if i >= tables.Len() || len(tables.Tables[i].Data) == 0 {
			return 0
		}
		return tables.Sample(i, p*float32(len(tables.Tables[i].Data)))
	}
	return 0
}

func NewModulators(sampleRate float32) Modulators {
	return Modulators{LFO1: NewLFO(sampleRate), LFO2: NewLFO(sampleRate)}
}

// Retrigger resets the phase of the LFOs that ask for it.
func (m *Modulators) Retrigger(s1, s2 LFOSettings) {
	if s1.Retrigger {
		m.LFO1.Reset()
	}
	if s2.Retrigger {
		m.LFO2.Reset()
	}
}

// Run renders n samples of both LFOs. The returned slices are reused by the
// next call.
func (m *Modulators) Run(n int, s1, s2 LFOSettings, transportLen int, tables *WavetableSet) (lfo1, lfo2 []float32) {
	if cap(m.buf1) < n {
		m.buf1 = make([]float32, n)
		m.buf2 = make([]float32, n)
	}
	m.buf1, m.buf2 = m.buf1[:n], m.buf2[:n]
	f1 := s1.Frequency(m.LFO1.sampleRate, transportLen)
	f2 := s2.Frequency(m.LFO2.sampleRate, transportLen)
	for i := 0; i < n; i++ {
		m.buf1[i] = m.LFO1.Next(f1, s1.Waveform, tables)
		m.buf2[i] = m.LFO2.Next(f2, s2.Waveform, tables)
	}
	return m.buf1, m.buf2
}

// Base resolves the voice independent modulation of every sample of the
// block rendered by the last Run. The result is shared by all voices and
// reused by the next call.
func (m *Modulators) Base(routings []ModRouting, cc *CCTable) []ModValues {
	n := len(m.buf1)
	if cap(m.base) < n {
		m.base = make([]ModValues, n)
	}
	m.base = m.base[:n]
	for i := range m.base {
		m.base[i] = BaseMods(routings, m.buf1[i], m.buf2[i], cc)
	}
	return m.base
}
