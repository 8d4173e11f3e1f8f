package cypher

import (
	"math"
	"sync"
	"sync/atomic"
)

type (
	// Param is a float parameter shared between the UI and the audio
	// goroutine. The value is stored as a fixed-point integer inside an atomic
	// cell: Load and Store never block and never allocate. The precision is
	// 1/Scale; most parameters use Scale = 1e6, limiter release times use
	// Scale = 1e3 (milliseconds stored in microseconds).
	//
	// Negative values cannot be represented and are stored as 0. The zero
	// value is a usable Param holding 0 with DefaultScale.
	Param struct {
		bits  atomic.Uint32
		scale float32
	}

	// Meter is a peak level in [0, 1] written once per audio block by the
	// audio goroutine and read by the UI. The full uint32 range is used.
	Meter struct {
		bits atomic.Uint32
	}

	// Locked guards a small value type with a reader-writer lock. The audio
	// goroutine only ever calls Load (a brief read-lock and a copy), the UI
	// calls Store or Update.
	Locked[T any] struct {
		mu sync.RWMutex
		v  T
	}
)

// DefaultScale is the fixed-point scale used by NewParam.
const DefaultScale = 1_000_000

func NewParam(v float32) *Param {
	return NewScaledParam(v, DefaultScale)
}

func NewScaledParam(v float32, scale float32) *Param {
	p := &Param{scale: scale}
	p.Store(v)
	return p
}

func (p *Param) Load() float32 {
	return float32(p.bits.Load()) / p.Scale()
}

func (p *Param) Store(v float32) {
	p.bits.Store(toFixed(v, p.Scale()))
}

// Raw returns the stored fixed-point value.
func (p *Param) Raw() uint32 { return p.bits.Load() }

// StoreRaw stores an already scaled fixed-point value.
func (p *Param) StoreRaw(v uint32) { p.bits.Store(v) }

func (p *Param) Scale() float32 {
	if p.scale == 0 {
		return DefaultScale
	}
	return p.scale
}

func toFixed(v, scale float32) uint32 {
	f := float64(v) * float64(scale)
	switch {
	case f != f || f <= 0: // NaN
		return 0
	case f >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(f)
}

func (m *Meter) Load() float32 {
	return float32(float64(m.bits.Load()) / math.MaxUint32)
}

func (m *Meter) Store(peak float32) {
	m.bits.Store(toFixed(min(peak, 1), math.MaxUint32))
}

func NewLocked[T any](v T) *Locked[T] {
	return &Locked[T]{v: v}
}

func (l *Locked[T]) Load() T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v
}

func (l *Locked[T]) Store(v T) {
	l.mu.Lock()
	l.v = v
	l.mu.Unlock()
}

// Update applies f to the guarded value under the write lock.
func (l *Locked[T]) Update(f func(*T)) {
	l.mu.Lock()
	f(&l.v)
	l.mu.Unlock()
}
