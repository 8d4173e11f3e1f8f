package synth_test

import (
	"math"
	"testing"

	"github.com/cypher-audio/cypher/synth"
)

const sampleRate = 48000

type testVoice struct {
	synth.VoiceCore
}

func newVoices(n int) []testVoice {
	ret := make([]testVoice, n)
	for i := range ret {
		ret[i].VoiceCore = synth.NewVoiceCore(sampleRate)
	}
	return ret
}

func run(v []testVoice, samples int) {
	for s := 0; s < samples; s++ {
		for i := range v {
			v[i].Tick()
			v[i].Amp.Next()
		}
	}
}

func TestADSRStages(t *testing.T) {
	a := synth.NewADSR(sampleRate)
	a.Settings = synth.ADSRSettings{Attack: 0.001, Decay: 0.001, Sustain: 0.5, Release: 0.001}
	a.NoteOn()
	for i := 0; i < 60; i++ {
		a.Next()
	}
	if a.State() != synth.Decay {
		t.Fatalf("shortly after a 1 ms attack the state was %v, expected decay", a.State())
	}
	for i := 0; i < 100; i++ {
		a.Next()
	}
	if a.State() != synth.Sustain || a.Level() != 0.5 {
		t.Fatalf("expected sustain at 0.5, got %v at %v", a.State(), a.Level())
	}
	a.NoteOff()
	if a.State() != synth.Release {
		t.Fatalf("note off should start the release, got %v", a.State())
	}
	for i := 0; i < sampleRate && a.Active(); i++ {
		a.Next()
	}
	if a.Active() || a.Level() != 0 {
		t.Fatalf("envelope did not return to idle: %v at %v", a.State(), a.Level())
	}
}

func TestADSRNoteOffWhenIdle(t *testing.T) {
	a := synth.NewADSR(sampleRate)
	a.NoteOff()
	if a.State() != synth.Idle {
		t.Fatalf("note off on an idle envelope should stay idle, got %v", a.State())
	}
}

func TestADSRZeroTimes(t *testing.T) {
	a := synth.NewADSR(sampleRate)
	a.Settings = synth.ADSRSettings{Sustain: 0.25}
	a.NoteOn()
	if l := a.Next(); l != 1 {
		t.Fatalf("zero attack should jump to 1, got %v", l)
	}
	if l := a.Next(); l != 0.25 {
		t.Fatalf("zero decay should jump to sustain, got %v", l)
	}
	a.NoteOff()
	if a.Next(); a.Active() {
		t.Fatal("zero release should go idle immediately")
	}
}

func TestLowPassPassesDC(t *testing.T) {
	f := synth.NewFilter(sampleRate)
	var out float32
	for i := 0; i < 4800; i++ {
		out = f.Process(1, 0.5)
	}
	if math.Abs(float64(out-1)) > 1e-3 {
		t.Fatalf("low pass output for DC was %v, expected 1", out)
	}
	f.Settings.Mode = synth.HighPass
	f.Reset()
	for i := 0; i < 4800; i++ {
		out = f.Process(1, 0.5)
	}
	if math.Abs(float64(out)) > 1e-3 {
		t.Fatalf("high pass output for DC was %v, expected 0", out)
	}
}

func TestSyncedLFOWithoutTransport(t *testing.T) {
	s := synth.DefaultLFOSettings()
	s.Mode = synth.RateSync
	if f := s.Frequency(sampleRate, 0); f != 0 {
		t.Fatalf("synced LFO without transport should be 0 Hz, got %v", f)
	}
	s.Sync = 4
	if f := s.Frequency(sampleRate, sampleRate*2); f != 2 {
		t.Fatalf("4 cycles per 2 second loop should be 2 Hz, got %v", f)
	}
}

func TestLFOWaveforms(t *testing.T) {
	l := synth.NewLFO(4)
	// quarter cycle per sample: phases 0.25, 0.5, 0.75, 0
	want := []float32{-0.5, 0, 0.5, -1}
	for i, w := range want {
		if got := l.Next(1, synth.LFOSaw, nil); math.Abs(float64(got-w)) > 1e-6 {
			t.Fatalf("saw sample %v was %v, expected %v", i, got, w)
		}
	}
	if got := l.Next(0, synth.LFOWavetable1, synth.BasicWavetables()); got != 0 {
		t.Fatalf("sine wavetable at phase 0 was %v, expected 0", got)
	}
}

func TestPickVoicePrefersIdleThenReleasedThenOldest(t *testing.T) {
	v := newVoices(3)
	for i := range v {
		if got := synth.PickVoice(v); got != i {
			t.Fatalf("expected idle voice %v, got %v", i, got)
		}
		v[i].NoteOn(byte(60+i), 100)
		run(v, 10)
	}
	// voice 0 is the oldest, voice 1 is released
	v[1].NoteOff()
	if got := synth.PickVoice(v); got != 1 {
		t.Fatalf("expected released voice 1, got %v", got)
	}
	v[1].NoteOn(70, 100)
	if got := synth.PickVoice(v); got != 0 {
		t.Fatalf("expected oldest voice 0 to be stolen, got %v", got)
	}
}

func TestReleaseNoteOnlyAffectsMatchingVoices(t *testing.T) {
	v := newVoices(4)
	v[0].NoteOn(60, 100)
	v[1].NoteOn(62, 100)
	v[2].NoteOn(60, 100)
	run(v, 10)
	synth.ReleaseNote(v, 60)
	for i, want := range []synth.ADSRState{synth.Release, synth.Attack, synth.Release, synth.Idle} {
		if got := v[i].Amp.State(); got != want {
			t.Fatalf("voice %v state was %v, expected %v", i, got, want)
		}
	}
}

func TestReleaseAllButYoungest(t *testing.T) {
	v := newVoices(3)
	for i := range v {
		v[i].NoteOn(byte(60+i), 100)
		run(v, 5)
	}
	synth.ReleaseAllButYoungest(v)
	if v[2].Amp.State() == synth.Release {
		t.Fatal("youngest voice should keep playing")
	}
	if v[0].Amp.State() != synth.Release || v[1].Amp.State() != synth.Release {
		t.Fatal("older voices should be released")
	}
	if got := synth.Youngest(v); got != 2 {
		t.Fatalf("youngest voice was %v, expected 2", got)
	}
}

func TestModulationSums(t *testing.T) {
	var cc synth.CCTable
	cc.Set(1, 74, 127)
	routings := []synth.ModRouting{
		{Source: synth.ModSource{Kind: synth.ModLFO1}, Destination: synth.ModPitch, Amount: 0.5},
		{Source: synth.ModSource{Kind: synth.ModStatic}, Destination: synth.ModPitch, Amount: 0.25},
		{Source: synth.ModSource{Kind: synth.ModMidiCC, Channel: 1, CC: 74}, Destination: synth.ModFilterCutoff, Amount: -1},
		{Source: synth.ModSource{Kind: synth.ModVelocity}, Destination: synth.ModAmplitude, Amount: 1},
	}
	base := synth.BaseMods(routings, 1, 0, &cc)
	if base[synth.ModPitch] != 0.75 {
		t.Fatalf("pitch modulation was %v, expected 0.75", base[synth.ModPitch])
	}
	if base[synth.ModFilterCutoff] != -1 {
		t.Fatalf("cutoff modulation was %v, expected -1", base[synth.ModFilterCutoff])
	}
	if base[synth.ModAmplitude] != 0 {
		t.Fatal("velocity must not contribute to the shared pass")
	}
	mods := synth.VoiceMods(base, routings, 0, 0.5)
	if mods[synth.ModAmplitude] != 0.5 {
		t.Fatalf("amplitude modulation was %v, expected 0.5", mods[synth.ModAmplitude])
	}
}

func TestBaseModsFollowTheLFOs(t *testing.T) {
	m := synth.NewModulators(4)
	s1 := synth.LFOSettings{Waveform: synth.LFOSaw, Rate: 1}
	s2 := synth.LFOSettings{Waveform: synth.LFOSquare, Rate: 1}
	routings := []synth.ModRouting{
		{Source: synth.ModSource{Kind: synth.ModLFO1}, Destination: synth.ModPitch, Amount: 1},
		{Source: synth.ModSource{Kind: synth.ModLFO2}, Destination: synth.ModFilterCutoff, Amount: 0.5},
	}
	lfo1, lfo2 := m.Run(4, s1, s2, 0, nil)
	base := m.Base(routings, nil)
	if len(base) != 4 {
		t.Fatalf("got %v values for a 4 sample block", len(base))
	}
	for i := range base {
		want := synth.BaseMods(routings, lfo1[i], lfo2[i], nil)
		if base[i] != want {
			t.Fatalf("sample %v: shared modulation %v, expected %v", i, base[i], want)
		}
	}
	if base[0][synth.ModPitch] == base[1][synth.ModPitch] {
		t.Fatal("the shared pass should change from sample to sample")
	}
}

func TestModMatrixSnapshots(t *testing.T) {
	var m synth.ModMatrix
	m.Add(synth.ModRouting{Destination: synth.ModPitch, Amount: 1})
	snap := m.Load()
	m.SetAmount(0, 0.5)
	if snap[0].Amount != 1 {
		t.Fatal("published snapshots must not change")
	}
	if m.Load()[0].Amount != 0.5 {
		t.Fatal("amount was not updated")
	}
	m.Remove(0)
	if len(m.Load()) != 0 {
		t.Fatal("routing was not removed")
	}
}

func TestSaturationUnityWithoutDrive(t *testing.T) {
	s := synth.DefaultSaturationSettings()
	if d := s.DriveAmount(1); d != 0 {
		t.Fatalf("drive amount with zero drive was %v", d)
	}
	x := float32(0.1)
	if y := s.Process(x, 0); math.Abs(float64(y-synth.FastTanh(x))) > 1e-6 {
		t.Fatalf("makeup gain without drive should be 1, got %v", y/synth.FastTanh(x))
	}
	s.Drive = 1
	if d := s.DriveAmount(1); d != 10 {
		t.Fatalf("full drive amount was %v, expected 10", d)
	}
	// at full drive the makeup gain equals 1 - compensation
	if y := s.Process(10, 10); math.Abs(float64(y-0.5*synth.FastTanh(110))) > 1e-6 {
		t.Fatalf("full drive output was %v", y)
	}
}

func TestWavetableMorph(t *testing.T) {
	set := synth.BasicWavetables()
	if set.Len() != 4 {
		t.Fatalf("expected 4 basic tables, got %v", set.Len())
	}
	phase := float32(synth.WavetableSize / 8)
	a, b := set.Sample(0, phase), set.Sample(1, phase)
	if got := set.Morph(0.5, phase); math.Abs(float64(got-(a+b)/2)) > 1e-5 {
		t.Fatalf("half way morph was %v, expected %v", got, (a+b)/2)
	}
	if got := set.Morph(100, phase); math.Abs(float64(got-set.Sample(3, phase))) > 1e-3 {
		t.Fatalf("morph past the end should clamp to the last table, got %v", got)
	}
	next := set.WithTable(1, synth.NewWavetable("", []float32{1, 1}))
	if next.Tables[1].Name != "Saw" || set.Tables[1].Data[0] == 1 {
		t.Fatal("WithTable should keep the name and leave the original set untouched")
	}
}

func TestLUTs(t *testing.T) {
	if got := synth.Pow2(12); math.Abs(float64(got-2)) > 1e-3 {
		t.Fatalf("Pow2(12) was %v", got)
	}
	if got := synth.ExpNeg(0); got != 1 {
		t.Fatalf("ExpNeg(0) was %v", got)
	}
	if got := synth.Pow2(1000); math.Abs(float64(got-32)) > 1e-3 {
		t.Fatalf("Pow2 should clamp its input, got %v", got)
	}
}
