package synth

import "math"

// LUTSize is the number of entries in every lookup table.
const LUTSize = 4096

// LUT is a lookup table for an expensive function over a closed input range.
// Inputs outside the range are clamped; lookups interpolate linearly.
type LUT struct {
	table    [LUTSize]float32
	min, max float32
	scale    float32
}

var (
	pow2LUT = NewLUT(-60, 60, func(x float64) float64 { return math.Pow(2, x/12) })
	expLUT  = NewLUT(0, 10, func(x float64) float64 { return math.Exp(-x) })
)

func NewLUT(lo, hi float32, f func(float64) float64) *LUT {
	l := &LUT{min: lo, max: hi, scale: (LUTSize - 1) / (hi - lo)}
	for i := range l.table {
		x := float64(lo) + float64(i)/(LUTSize-1)*float64(hi-lo)
		l.table[i] = float32(f(x))
	}
	return l
}

func (l *LUT) Lookup(x float32) float32 {
	if x < l.min {
		x = l.min
	} else if x > l.max {
		x = l.max
	}
	pos := (x - l.min) * l.scale
	i := int(pos)
	if i >= LUTSize-1 {
		return l.table[LUTSize-1]
	}
	frac := pos - float32(i)
	return l.table[i] + frac*(l.table[i+1]-l.table[i])
}

// Pow2 returns 2^(semitones/12) for semitones in [-60, 60].
func Pow2(semitones float32) float32 { return pow2LUT.Lookup(semitones) }

// ExpNeg returns exp(-x) for x in [0, 10].
func ExpNeg(x float32) float32 { return expLUT.Lookup(x) }

// FastTanh is a Padé approximation of tanh, accurate for |x| < 3.
func FastTanh(x float32) float32 {
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// NoteToFreq returns the equal tempered frequency of a MIDI note, A4 = 440 Hz.
func NoteToFreq(note byte) float32 {
	return float32(440 * math.Pow(2, (float64(note)-69)/12))
}
