// Package malgo captures live input from the default recording device and
// hands it to the audio goroutine through a lock-free ring.
package malgo

import (
	"sync/atomic"

	"github.com/cypher-audio/cypher"
)

// Ring is a single producer, single consumer queue of samples. The capture
// callback writes and the audio goroutine reads; neither side blocks.
type Ring struct {
	buf         []float32
	mask        uint64
	read, write atomic.Uint64

	// Overruns counts writes that did not fit, Underruns reads that found
	// too few samples.
	Overruns, Underruns atomic.Uint64
}

// NewRing returns a ring holding at least size samples.
func NewRing(size int) *Ring {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring{buf: make([]float32, n), mask: uint64(n - 1)}
}

// Write appends as much of data as fits and returns the number of samples
// written. The rest is dropped.
func (r *Ring) Write(data []float32) int {
	w, rd := r.write.Load(), r.read.Load()
	n := min(uint64(len(data)), uint64(len(r.buf))-(w-rd))
	for i := range n {
		r.buf[(w+i)&r.mask] = data[i]
	}
	r.write.Store(w + n)
	if n < uint64(len(data)) {
		r.Overruns.Add(1)
	}
	return int(n)
}

// Len is the number of samples waiting to be read.
func (r *Ring) Len() int { return int(r.write.Load() - r.read.Load()) }

// ReadInput implements cypher.InputSource. Missing samples are silence.
func (r *Ring) ReadInput(buf cypher.AudioBuffer) {
	rd, w := r.read.Load(), r.write.Load()
	n := min(uint64(len(buf)), w-rd)
	for i := range n {
		buf[i] = r.buf[(rd+i)&r.mask]
	}
	r.read.Store(rd + n)
	if n < uint64(len(buf)) {
		clear(buf[n:])
		r.Underruns.Add(1)
	}
}
