package mixer

import (
	"math"

	"github.com/cypher-audio/cypher"
	"github.com/viterin/vek/vek32"
)

// MaxGainReduction is the largest gain reduction reported, in dB.
const MaxGainReduction = 24

// Limiter is a peak limiter with a fixed 10 µs attack and an adjustable
// release. The gain reduction of the latest sample is published to
// Reduction.
type Limiter struct {
	Reduction  *cypher.Param
	attack     float32
	envelope   float32
	sampleRate float32
}

func NewLimiter(sampleRate float32, reduction *cypher.Param) *Limiter {
	return &Limiter{
		Reduction:  reduction,
		attack:     coefficient(0.01 * 0.001 * sampleRate),
		sampleRate: sampleRate,
	}
}

func coefficient(samples float32) float32 {
	if samples <= 0 {
		return 0
	}
	return float32(math.Exp(-1 / float64(samples)))
}

// ReleaseCoefficient returns the per sample release coefficient for the
// current settings. In sync mode the release lasts transportLen/Sync
// samples; without a transport it falls back to 80 ms.
func (l *Limiter) ReleaseCoefficient(s LimiterSettings, transportLen int) float32 {
	if s.Mode == ReleaseSync && transportLen > 0 && s.Sync > 0 {
		return coefficient(float32(transportLen) / s.Sync)
	}
	ms := s.ReleaseMs
	if s.Mode == ReleaseSync {
		ms = 80
	}
	return coefficient(ms * 0.001 * l.sampleRate)
}

func (l *Limiter) Process(x, threshold, release float32) float32 {
	a := float32(math.Abs(float64(x)))
	c := release
	if a > l.envelope {
		c = l.attack
	}
	l.envelope = max(c*(l.envelope-a)+a, 1e-6)
	gain := float32(1)
	if l.envelope > threshold {
		gain = threshold / l.envelope
	}
	db := 20 * math.Log10(float64(gain))
	l.Reduction.Store(float32(-min(max(db, -MaxGainReduction), 0)))
	return x * gain
}

// Bypass hard clips the signal and reports no gain reduction.
func (l *Limiter) Bypass(x float32) float32 {
	l.Reduction.Store(0)
	return min(max(x, -1), 1)
}

// Peak returns the largest absolute value in buf, using scratch (at least as
// long as buf) as working space.
func Peak(buf, scratch []float32) float32 {
	if len(buf) == 0 {
		return 0
	}
	s := scratch[:len(buf)]
	vek32.Abs_Into(s, buf)
	return vek32.Max(s)
}
