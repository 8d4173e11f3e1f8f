package synth

import (
	"math"
)

// WavetableSize is the length of every single-cycle wavetable.
const WavetableSize = 2048

type (
	Wavetable struct {
		Name string
		Data []float32
	}

	// WavetableSet is an ordered list of wavetables the oscillator morphs
	// across. A set is immutable once published to the audio goroutine;
	// WithTable returns a modified copy.
	WavetableSet struct {
		Tables []Wavetable
	}
)

// BasicWavetables returns the four default tables: sine, saw, square and
// triangle.
func BasicWavetables() *WavetableSet {
	gen := func(name string, f func(p float64) float64) Wavetable {
		t := Wavetable{Name: name, Data: make([]float32, WavetableSize)}
		for i := range t.Data {
			t.Data[i] = float32(f(float64(i) / WavetableSize))
		}
		return t
	}
	return &WavetableSet{Tables: []Wavetable{
		gen("Sine", func(p float64) float64 { return math.Sin(2 * math.Pi * p) }),
		gen("Saw", func(p float64) float64 { return 2 * (p - math.Round(p)) }),
		gen("Square", func(p float64) float64 {
			if p < 0.5 {
				return 1
			}
			return -1
		}),
		gen("Triangle", func(p float64) float64 { return math.Abs(2*p-1)*2 - 1 }),
	}}
}

// NewWavetable resamples an arbitrary single cycle to WavetableSize samples
// with linear interpolation.
func NewWavetable(name string, cycle []float32) Wavetable {
	t := Wavetable{Name: name, Data: make([]float32, WavetableSize)}
	if len(cycle) == 0 {
		return t
	}
	step := float32(len(cycle)) / WavetableSize
	for i := range t.Data {
		t.Data[i] = interpolateWrapped(cycle, float32(i)*step)
	}
	return t
}

func (s *WavetableSet) Len() int { return len(s.Tables) }

// WithTable returns a copy of the set with table slot replaced. Slots past
// the end are ignored. An empty name keeps the old one.
func (s *WavetableSet) WithTable(slot int, t Wavetable) *WavetableSet {
	ret := &WavetableSet{Tables: append([]Wavetable(nil), s.Tables...)}
	if slot < 0 || slot >= len(ret.Tables) {
		return ret
	}
	if t.Name == "" {
		t.Name = ret.Tables[slot].Name
	}
	ret.Tables[slot] = t
	return ret
}

// Sample reads table index at a phase given in table samples.
func (s *WavetableSet) Sample(index int, phase float32) float32 {
	if index < 0 || index >= len(s.Tables) {
		return 0
	}
	return interpolateWrapped(s.Tables[index].Data, phase)
}

// Morph crossfades between neighbouring tables. morph is a fractional table
// index.
func (s *WavetableSet) Morph(morph, phase float32) float32 {
	n := len(s.Tables)
	if n == 0 {
		return 0
	}
	morph = min(max(morph, 0), float32(n)-1.0001)
	if morph < 0 {
		morph = 0
	}
	i := int(morph)
	frac := morph - float32(i)
	a := interpolateWrapped(s.Tables[i].Data, phase)
	if i+1 >= n {
		return a
	}
	b := interpolateWrapped(s.Tables[i+1].Data, phase)
	return a*(1-frac) + b*frac
}

func interpolateWrapped(table []float32, phase float32) float32 {
	n := len(table)
	if n == 0 {
		return 0
	}
	p := float32(math.Mod(float64(phase), float64(n)))
	if p < 0 {
		p += float32(n)
	}
	i := int(p)
	if i >= n {
		i = n - 1
	}
	frac := p - float32(i)
	return table[i]*(1-frac) + table[(i+1)%n]*frac
}
