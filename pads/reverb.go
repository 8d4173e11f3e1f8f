package pads

import "math"

var (
	combDelays    = [4]float32{1116, 1188, 1277, 1356}
	allpassDelays = [2]float32{225, 556}
)

type (
	delayLine struct {
		buf   []float32
		index int
		delay int
	}

	// Reverb is a small Schroeder reverb: four parallel combs followed by
	// two allpasses. Delay times are given at 44.1 kHz and scaled to the
	// sample rate.
	Reverb struct {
		combs      [4]delayLine
		allpasses  [2]delayLine
		feedback   float32
		sampleRate float32
	}
)

func newDelayLine(n int) delayLine {
	n = max(n, 1)
	return delayLine{buf: make([]float32, n), delay: n}
}

func (d *delayLine) read() float32 {
	return d.buf[(d.index+len(d.buf)-d.delay)%len(d.buf)]
}

func (d *delayLine) write(v float32) {
	d.buf[d.index] = v
	d.index = (d.index + 1) % len(d.buf)
}

func NewReverb(sampleRate float32) *Reverb {
	r := &Reverb{sampleRate: sampleRate}
	f := sampleRate / 44100
	for i, d := range combDelays {
		r.combs[i] = newDelayLine(int(d * f))
	}
	for i, d := range allpassDelays {
		r.allpasses[i] = newDelayLine(int(d * f))
	}
	return r
}

// SetParams scales the delay lines by size (at most 1) and sets the comb
// feedback.
func (r *Reverb) SetParams(size, decay float32) {
	f := r.sampleRate / 44100
	for i := range r.combs {
		r.combs[i].delay = scaledDelay(combDelays[i]*size*f, len(r.combs[i].buf))
	}
	for i := range r.allpasses {
		r.allpasses[i].delay = scaledDelay(allpassDelays[i]*size*f, len(r.allpasses[i].buf))
	}
	r.feedback = decay
}

func scaledDelay(d float32, limit int) int {
	return min(max(int(math.Round(float64(d))), 1), limit)
}

func (r *Reverb) Process(in float32) float32 {
	var sum float32
	for i := range r.combs {
		c := &r.combs[i]
		out := c.read()
		c.write(in + out*r.feedback)
		sum += out
	}
	x := sum * 0.25
	for i := range r.allpasses {
		a := &r.allpasses[i]
		d := a.read()
		a.write(x + d*0.5)
		x = d - x
	}
	return x
}

// Clear empties the delay lines.
func (r *Reverb) Clear() {
	for i := range r.combs {
		clear(r.combs[i].buf)
	}
	for i := range r.allpasses {
		clear(r.allpasses[i].buf)
	}
}
