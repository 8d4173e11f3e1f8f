package engine_test

import (
	"testing"
	"time"

	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/engine"
	"github.com/cypher-audio/cypher/looper"
	"github.com/cypher-audio/cypher/mixer"
	"github.com/cypher-audio/cypher/synth"
)

const sampleRate = 48000

func newEngine(t *testing.T) (*engine.Broker, *engine.Engine) {
	t.Helper()
	b := engine.NewBroker(0)
	return b, engine.New(b, engine.Options{SampleRate: sampleRate})
}

// apply does what the forwarder does and then lets the engine handle the
// queue.
func apply(b *engine.Broker, e *engine.Engine, cmds ...engine.Command) {
	for _, c := range cmds {
		if engine.ApplyMixer(e.Shared().Mixer, c) {
			b.Deliver(c)
		}
	}
	e.HandleCommands()
}

func constant(n int, v float32) cypher.AudioBuffer {
	ret := make(cypher.AudioBuffer, n)
	for i := range ret {
		ret[i] = v
	}
	return ret
}

func process(e *engine.Engine, in cypher.AudioBuffer) cypher.AudioBuffer {
	out := make(cypher.AudioBuffer, len(in))
	e.Process(in, out)
	return out
}

func TestLoopRecordsAndPlaysBack(t *testing.T) {
	b, e := newEngine(t)
	s := e.Shared()
	apply(b, e, engine.ToggleAudioInputArm{}, engine.LooperPress{Track: 0})
	if got := s.Loopers[0].State(); got != looper.Armed {
		t.Fatalf("track 0 was %v, expected armed", got)
	}
	process(e, constant(1, 0.5))
	for range 100 {
		process(e, constant(480, 0.5))
	}
	if got := s.Loopers[0].Len(); got != 48000 {
		t.Fatalf("recorded %v samples, expected 48000", got)
	}
	apply(b, e, engine.LooperPress{Track: 0})
	out := process(e, constant(480, 0))
	if got := s.Transport.Len(); got != 48000 {
		t.Fatalf("transport length was %v, expected 48000", got)
	}
	if out[0] != 0.5 || out[479] != 0.5 {
		t.Fatalf("loop played back %v and %v, expected 0.5", out[0], out[479])
	}
	if p := s.Mixer.MasterPeak.Load(); p < 0.49 {
		t.Fatalf("master peak was %v", p)
	}

	apply(b, e, engine.ToggleMixerMute{Track: 0})
	if out := process(e, constant(480, 0)); out[0] != 0 {
		t.Fatalf("muted track played %v", out[0])
	}
}

func TestMonitoringAndLimiterBypass(t *testing.T) {
	b, e := newEngine(t)
	apply(b, e, engine.ToggleAudioInputMonitoring{}, engine.SetMasterVolume{Volume: 4}, engine.ToggleLimiter{})
	out := process(e, constant(64, 0.5))
	if out[10] != 1 {
		t.Fatalf("bypassed limiter gave %v, expected a hard clip at 1", out[10])
	}
	if r := e.Shared().Mixer.GainReduction.Load(); r != 0 {
		t.Fatalf("bypassed limiter reported %v dB", r)
	}
	apply(b, e, engine.ToggleLimiter{})
	out = process(e, constant(4800, 0.5))
	if out[4000] > 1.001 {
		t.Fatalf("limiter let %v through", out[4000])
	}
}

func TestMidiChannelFilter(t *testing.T) {
	b, e := newEngine(t)
	apply(b, e, engine.ActivateSynth{}, engine.MidiMessage{Status: 0x91, Data1: 69, Data2: 127})
	if out := process(e, constant(480, 0)); out.Peak() != 0 {
		t.Fatal("a note on another channel should be ignored")
	}
	apply(b, e, engine.MidiMessage{Status: 0x90, Data1: 69, Data2: 127})
	if out := process(e, constant(4800, 0)); out.Peak() == 0 {
		t.Fatal("a note on the selected channel should sound")
	}
	if e.Shared().SynthPeak.Load() == 0 {
		t.Fatal("the synth meter should move")
	}
}

func TestPadsTakeNotesFromSynth(t *testing.T) {
	b, e := newEngine(t)
	s := e.Shared()
	apply(b, e, engine.ActivateSynth{}, engine.ActivateSampler{})
	if s.SynthActive.Load() || !s.SamplerActive.Load() {
		t.Fatal("activating the sampler should deactivate the synth")
	}
	apply(b, e,
		engine.LoadPadSample{Pad: 0, Data: constant(1000, 0.5)},
		engine.MidiMessage{Status: 0x90, Data1: 48, Data2: 127})
	select {
	case msg := <-b.ToUI:
		if ev, ok := msg.(engine.PadEvent); !ok || ev.Pad != 0 {
			t.Fatalf("expected a pad event for pad 0, got %#v", msg)
		}
	default:
		t.Fatal("expected a pad event")
	}
	out := process(e, constant(480, 0))
	if out[100] != 0.5 {
		t.Fatalf("pad played %v, expected 0.5", out[100])
	}
	if s.PlayingPads.Load() != 1 {
		t.Fatalf("playing pads mask was %b", s.PlayingPads.Load())
	}
}

func TestControlChangeUpdatesTable(t *testing.T) {
	b, e := newEngine(t)
	apply(b, e, engine.MidiMessage{Status: 0xB0, Data1: 7, Data2: 127})
	if v := e.Shared().CC.Value(0, 7); v != 1 {
		t.Fatalf("cc 7 was %v, expected 1", v)
	}
}

func TestClearAllResetsMixerAndTransport(t *testing.T) {
	b, e := newEngine(t)
	s := e.Shared()
	apply(b, e, engine.SetMasterVolume{Volume: 0.5}, engine.SetTransportLen{Len: 1000})
	apply(b, e, engine.ClearAll{})
	if s.Mixer.Master.Load() != 1 {
		t.Fatal("clear all should reset the mixer")
	}
	if s.Transport.Playing() || s.Transport.Len() != 0 {
		t.Fatal("clear all should stop and reset the transport")
	}
	apply(b, e, engine.ClearAllAndPlay{})
	if !s.Transport.Playing() {
		t.Fatal("clear all and play should leave the transport playing")
	}
}

func TestRecordingIsHandedToWorker(t *testing.T) {
	b, e := newEngine(t)
	apply(b, e, engine.ToggleAudioInputMonitoring{}, engine.ToggleRecord{})
	if !e.Shared().Recording.Load() {
		t.Fatal("recording flag not set")
	}
	process(e, constant(480, 0.25))
	apply(b, e, engine.StopRecording{Path: "take.wav"})
	select {
	case msg := <-b.ToWorker:
		job, ok := msg.(engine.RecordingJob)
		if !ok || len(job.Data) != 480 || job.Path != "take.wav" || job.SampleRate != sampleRate {
			t.Fatalf("unexpected job %#v", msg)
		}
		if job.Data[0] != 0.25 {
			t.Fatalf("recorded %v, expected the monitored input", job.Data[0])
		}
	default:
		t.Fatal("expected a recording job")
	}
}

func TestSaveSessionSnapshotsLoops(t *testing.T) {
	b, e := newEngine(t)
	apply(b, e, engine.SetTransportLen{Len: 100}, engine.LoadLoopAudio{Track: 2, Data: constant(100, 0.1)})
	apply(b, e, engine.SaveSessionAudio{Dir: "session"})
	select {
	case msg := <-b.ToWorker:
		job, ok := msg.(engine.SessionJob)
		if !ok || job.Dir != "session" || job.TransportLen != 100 {
			t.Fatalf("unexpected job %#v", msg)
		}
		if len(job.Loops[2].Data) != 100 || job.Loops[2].Cycles != 1 || job.Loops[0].Data != nil {
			t.Fatal("the session should hold exactly the loaded loop")
		}
	default:
		t.Fatal("expected a session job")
	}
}

func TestChangeEngineType(t *testing.T) {
	b, e := newEngine(t)
	c := engine.NewController(b, e)
	if c.Params(1).Kind() != synth.SamplerEngine {
		t.Fatal("slot 1 should start as a sampler")
	}
	go b.RunForwarder(e.Shared().Mixer, nil)
	defer b.Close()
	p := c.ChangeEngineType(1, synth.WavetableEngine)
	if c.Params(1) != p || p.Kind() != synth.WavetableEngine {
		t.Fatal("the controller should mirror the new parameters")
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		apply(b, e, engine.ActivateSynth{}, engine.MidiMessage{Status: 0x90, Data1: 60, Data2: 100})
		process(e, constant(480, 0))
		if p.Common().Feedback.Env2.Load() > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("the new engine never ran")
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := engine.NewBroker(2)
	go b.RunForwarder(mixer.New(), nil)
	defer b.Close()
	for range 5 {
		b.Send(engine.PlayTransport{})
	}
	deadline := time.Now().Add(time.Second)
	for b.Dropped() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("dropped %v commands, expected 3", b.Dropped())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestForwarderAppliesMixerSettings(t *testing.T) {
	b, e := newEngine(t)
	m := e.Shared().Mixer
	go b.RunForwarder(m, nil)
	defer b.Close()
	b.Send(engine.SetMasterVolume{Volume: 0.25})
	b.Send(engine.ToggleMixerMute{Track: 3})
	b.Send(engine.PlayTransport{})
	deadline := time.Now().Add(time.Second)
	for !m.Strips.Load().Tracks[3].Muted {
		if time.Now().After(deadline) {
			t.Fatal("the forwarder never muted track 3")
		}
		time.Sleep(time.Millisecond)
	}
	if v := m.Master.Load(); v != 0.25 {
		t.Fatalf("master volume was %v, expected 0.25", v)
	}
	// only the transport command reaches the audio queue
	deadline = time.Now().Add(time.Second)
	for {
		if c, ok := engine.TimeoutReceive(b.Queue(), time.Millisecond); ok {
			if _, ok := c.(engine.PlayTransport); !ok {
				t.Fatalf("mixer command %T reached the audio queue", c)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("the transport command was not queued")
		}
	}
	if _, ok := engine.TimeoutReceive(b.Queue(), 10*time.Millisecond); ok {
		t.Fatal("expected nothing else in the audio queue")
	}
}
