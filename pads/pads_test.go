package pads_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cypher-audio/cypher/pads"
)

const sampleRate = 48000

func dc(n int, v float32) []float32 {
	ret := make([]float32, n)
	for i := range ret {
		ret[i] = v
	}
	return ret
}

func TestNoteOnOnlyTriggersLoadedPads(t *testing.T) {
	b := pads.New(sampleRate)
	if _, ok := b.NoteOn(48, 127); ok {
		t.Fatal("an empty pad should not take the note")
	}
	b.Load(1, dc(100, 0.5))
	_, low := b.NoteOn(47, 127)
	_, high := b.NoteOn(64, 127)
	if low || high {
		t.Fatal("notes outside the pad range should not be taken")
	}
	if i, ok := b.NoteOn(49, 127); !ok || i != 1 {
		t.Fatalf("a loaded pad should take the note, got pad %v", i)
	}
}

func TestOneShotPlaysSample(t *testing.T) {
	b := pads.New(sampleRate)
	b.Load(3, dc(100, 0.5))
	b.NoteOn(51, 127)
	out := make([]float32, 200)
	b.Process(out)
	if out[0] != 0.5 || out[50] != 0.5 {
		t.Fatalf("pad played %v and %v, expected 0.5", out[0], out[50])
	}
	if out[150] != 0 {
		t.Fatalf("pad played %v past the end of the sample", out[150])
	}
	if b.Playing.Load() != 1<<3 {
		t.Fatalf("playing mask was %b", b.Playing.Load())
	}
}

func TestVelocityAndPitch(t *testing.T) {
	b := pads.New(sampleRate)
	b.Load(0, dc(100, 1))
	fx := pads.DefaultFX()
	fx.Pitch = 12
	b.SetFX(0, fx)
	b.NoteOn(48, 64)
	out := make([]float32, 100)
	b.Process(out)
	want := float32(64) / 127
	if math.Abs(float64(out[10]-want)) > 1e-6 {
		t.Fatalf("velocity scaled output was %v, expected %v", out[10], want)
	}
	if out[49] == 0 || out[60] != 0 {
		t.Fatal("an octave up should finish the sample in half the time")
	}
}

func TestDistortionLimitsLevel(t *testing.T) {
	b := pads.New(sampleRate)
	b.Load(0, dc(100, 1))
	fx := pads.DefaultFX()
	fx.Distortion = 1
	b.SetFX(0, fx)
	b.NoteOn(48, 127)
	out := make([]float32, 10)
	b.Process(out)
	want := 0.8 / math.Sqrt(21)
	if math.Abs(float64(out[5])-want) > 1e-5 {
		t.Fatalf("distorted output was %v, expected %v", out[5], want)
	}
}

func TestGatedReverbCutsTail(t *testing.T) {
	b := pads.New(sampleRate)
	b.Load(0, dc(10, 1))
	fx := pads.DefaultFX()
	fx.ReverbMix = 1
	fx.Gated = true
	fx.GateMs = 100
	b.SetFX(0, fx)
	b.NoteOn(48, 127)
	out := make([]float32, sampleRate/5)
	b.Process(out)
	var during, after float64
	for i, v := range out {
		if i < sampleRate/10 {
			during += math.Abs(float64(v))
		} else {
			after += math.Abs(float64(v))
		}
	}
	if during == 0 {
		t.Fatal("the reverb should ring while the gate is open")
	}
	if after != 0 {
		t.Fatalf("the gate should cut the reverb, got %v after closing", after)
	}
}

func TestClearStopsPad(t *testing.T) {
	b := pads.New(sampleRate)
	b.Load(0, dc(1000, 1))
	b.NoteOn(48, 127)
	b.Clear(0)
	out := make([]float32, 10)
	b.Process(out)
	if out[0] != 0 || b.Playing.Load() != 0 {
		t.Fatal("a cleared pad should be silent")
	}
	if b.Loaded(0) {
		t.Fatal("a cleared pad should be empty")
	}
}

func TestKitRoundTrip(t *testing.T) {
	dir := t.TempDir()
	k := pads.DefaultKit()
	k.Pads[2].Path = "kick.wav"
	k.Pads[2].FX.ReverbMix = 0.3
	path := filepath.Join(dir, "kit.yml")
	if err := pads.SaveKit(path, k); err != nil {
		t.Fatalf("SaveKit failed: %v", err)
	}
	got, err := pads.LoadKit(path)
	if err != nil {
		t.Fatalf("LoadKit failed: %v", err)
	}
	if got.Pads[2].Path != filepath.Join(dir, "kick.wav") {
		t.Fatalf("relative path resolved to %v", got.Pads[2].Path)
	}
	if got.Pads[2].FX != k.Pads[2].FX || got.Pads[0].FX != pads.DefaultFX() {
		t.Fatal("pad effects did not round trip")
	}
}
