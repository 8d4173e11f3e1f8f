package cypher_test

import (
	"sync"
	"testing"

	"github.com/cypher-audio/cypher"
)

func TestParamFixedPoint(t *testing.T) {
	p := cypher.NewParam(0.75)
	if p.Raw() != 750_000 {
		t.Fatalf("raw value was %v, expected 750000", p.Raw())
	}
	p.Store(-1)
	if p.Load() != 0 {
		t.Fatalf("negative values should store as 0, got %v", p.Load())
	}
	ms := cypher.NewScaledParam(80, 1000)
	if ms.Raw() != 80_000 {
		t.Fatalf("millisecond param raw value was %v, expected 80000", ms.Raw())
	}
}

func TestMeterRange(t *testing.T) {
	var m cypher.Meter
	m.Store(2)
	if m.Load() != 1 {
		t.Fatalf("meter should saturate at 1, got %v", m.Load())
	}
	m.Store(0.5)
	if v := m.Load(); v < 0.499 || v > 0.501 {
		t.Fatalf("meter value was %v, expected 0.5", v)
	}
}

func TestLockedConcurrentAccess(t *testing.T) {
	type settings struct{ A, B float32 }
	l := cypher.NewLocked(settings{1, 1})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			l.Update(func(s *settings) { s.A++; s.B++ })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if s := l.Load(); s.A != s.B {
				t.Errorf("torn read: %+v", s)
				return
			}
		}
	}()
	wg.Wait()
}
