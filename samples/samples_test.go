package samples_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/samples"
	"github.com/cypher-audio/cypher/synth"
)

func sine(n int, freq, rate float64) []float32 {
	ret := make([]float32, n)
	for i := range ret {
		ret[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return ret
}

func near(a, b, tol int) bool { return a-b <= tol && b-a <= tol }

func TestLoadStereoMixesToMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	if err := cypher.WriteWavFile(path, sine(4800, 440, 48000), 48000, 2); err != nil {
		t.Fatalf("WriteWavFile failed: %v", err)
	}
	data, err := samples.Load(path, 48000)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(data) != 4800 {
		t.Fatalf("decoded %v samples, expected 4800", len(data))
	}
	if math.Abs(float64(data[600])-0.5*math.Sin(2*math.Pi*440*600/48000)) > 1e-3 {
		t.Fatalf("sample 600 was %v", data[600])
	}
}

func TestLoadResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.wav")
	if err := cypher.WriteWavFile(path, sine(22050, 220, 22050), 22050, 1); err != nil {
		t.Fatalf("WriteWavFile failed: %v", err)
	}
	data, err := samples.Load(path, 44100)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !near(len(data), 44100, 100) {
		t.Fatalf("resampled to %v samples, expected about 44100", len(data))
	}
}

func TestResample(t *testing.T) {
	in := sine(48000, 100, 48000)
	out := samples.Resample(in, 48000, 24000)
	if !near(len(out), 24000, 50) {
		t.Fatalf("resampled to %v samples, expected about 24000", len(out))
	}
	if same := samples.Resample(in, 48000, 48000); len(same) != len(in) {
		t.Fatal("equal rates should return the input")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := samples.Load(filepath.Join(t.TempDir(), "nope.wav"), 48000)
	if err == nil || ftag.Get(err) != ftag.NotFound {
		t.Fatalf("expected a not found error, got %v", err)
	}
}

func TestLoadWavetable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bright_saw.wav")
	if err := cypher.WriteWavFile(path, sine(600, 80, 48000), 48000, 1); err != nil {
		t.Fatalf("WriteWavFile failed: %v", err)
	}
	w, err := samples.LoadWavetable(path)
	if err != nil {
		t.Fatalf("LoadWavetable failed: %v", err)
	}
	if w.Name != "Bright Saw" || len(w.Data) != synth.WavetableSize {
		t.Fatalf("got table %q with %v samples", w.Name, len(w.Data))
	}
}
