package sampler_test

import (
	"math"
	"testing"

	"github.com/cypher-audio/cypher/synth"
	"github.com/cypher-audio/cypher/synth/sampler"
)

const sampleRate = 48000

func dc(n int) []float32 {
	ret := make([]float32, n)
	for i := range ret {
		ret[i] = 0.5
	}
	return ret
}

func peak(buf []float32) float32 {
	var p float32
	for _, v := range buf {
		p = max(p, float32(math.Abs(float64(v))))
	}
	return p
}

func TestSelectSlotPrefersNearestForward(t *testing.T) {
	var slots [sampler.NumSlots][]float32
	slots[2] = dc(10)
	slots[4] = dc(10)
	// note 48 is octave 4, ideal slot 3
	if got := sampler.SelectSlot(&slots, 48); got != 4 {
		t.Fatalf("selected slot %v, expected 4", got)
	}
	if got := sampler.SelectSlot(&slots, 127); got != 4 {
		t.Fatalf("high notes should fall back downwards, got slot %v", got)
	}
	if got := sampler.SelectSlot(&slots, 0); got != 2 {
		t.Fatalf("low notes should search upwards, got slot %v", got)
	}
	var empty [sampler.NumSlots][]float32
	if got := sampler.SelectSlot(&empty, 60); got != -1 {
		t.Fatalf("expected -1 for empty slots, got %v", got)
	}
}

func TestNoteOnPublishesSlot(t *testing.T) {
	p := sampler.NewParams()
	e := sampler.New(sampleRate, p)
	e.LoadSample(2, dc(sampleRate))
	e.LoadSample(4, dc(sampleRate))
	e.NoteOn(48, 127)
	if got := p.LastSlot.Load(); got != 4 {
		t.Fatalf("last slot was %v, expected 4", got)
	}
	buf := make([]float32, 480)
	e.Process(buf, 0, nil)
	if peak(buf) == 0 {
		t.Fatal("expected the note to sound")
	}
}

func TestEmptySlotsAreSilent(t *testing.T) {
	e := sampler.New(sampleRate, sampler.NewParams())
	e.NoteOn(60, 127)
	buf := make([]float32, 480)
	e.Process(buf, 0, nil)
	if peak(buf) != 0 {
		t.Fatal("a sampler without samples should be silent")
	}
}

func TestEndOfSampleStopsVoice(t *testing.T) {
	p := sampler.NewParams()
	e := sampler.New(sampleRate, p)
	e.SetAmpADSR(synth.ADSRSettings{Sustain: 1})
	e.LoadSample(0, dc(1000))
	e.NoteOn(24, 127) // root note of slot 0, plays at unity rate
	buf := make([]float32, 2000)
	e.Process(buf, 0, nil)
	if buf[500] == 0 {
		t.Fatal("the voice should still play in the middle of the sample")
	}
	for i := 1000; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("sample %v was %v after the end of the sample", i, buf[i])
		}
	}
	// the fade out window covers the last 10 samples
	if math.Abs(float64(buf[995])) >= math.Abs(float64(buf[500])) {
		t.Fatal("the tail of the sample should fade out")
	}
}

func TestPitchRatioFollowsRootNote(t *testing.T) {
	p := sampler.NewParams()
	e := sampler.New(sampleRate, p)
	e.SetAmpADSR(synth.ADSRSettings{Sustain: 1})
	e.LoadSample(0, dc(1000))
	e.NoteOn(36, 127) // an octave above the root, twice the speed
	buf := make([]float32, 1000)
	e.Process(buf, 0, nil)
	if buf[490] == 0 || buf[510] != 0 {
		t.Fatalf("an octave up should finish after about 500 samples, got %v at 490 and %v at 510", buf[490], buf[510])
	}
}

func TestResetEmptiesSlots(t *testing.T) {
	p := sampler.NewParams()
	e := sampler.New(sampleRate, p)
	e.LoadSample(0, dc(1000))
	e.ResetToDefaults()
	e.NoteOn(24, 127)
	buf := make([]float32, 100)
	e.Process(buf, 0, nil)
	if peak(buf) != 0 {
		t.Fatal("reset should empty every slot")
	}
}
