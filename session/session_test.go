package session_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"
	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/engine"
	"github.com/cypher-audio/cypher/mixer"
	"github.com/cypher-audio/cypher/pads"
	"github.com/cypher-audio/cypher/session"
)

func constant(n int, v float32) []float32 {
	ret := make([]float32, n)
	for i := range ret {
		ret[i] = v
	}
	return ret
}

func sessionJob(dir string) engine.SessionJob {
	job := engine.SessionJob{Dir: dir, SampleRate: 48000, TransportLen: 1000, Mixer: mixer.DefaultState()}
	job.Loops[0] = engine.Loop{Data: constant(1000, 0.5), Cycles: 1}
	job.Loops[3] = engine.Loop{Data: constant(2000, -0.25), Cycles: 2}
	job.Mixer.Master = 0.5
	return job
}

func TestSaveWritesLoopFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "take")
	n, err := session.Save(sessionJob(dir))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("saved %v loops, expected 2", n)
	}
	for _, name := range []string{"loop_0.wav", "loop_3.wav", session.ManifestName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %v to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "loop_1.wav")); err == nil {
		t.Fatal("empty loops should not be written")
	}
	data, rate, err := cypher.ReadWavFile(filepath.Join(dir, "loop_3.wav"))
	if err != nil {
		t.Fatalf("ReadWavFile failed: %v", err)
	}
	if rate != 48000 || len(data) != 2000 {
		t.Fatalf("loop_3.wav had %v samples at %v Hz", len(data), rate)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if _, err := session.Save(sessionJob(dir)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	cmds, err := session.Load(dir, 48000)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := cmds[0].(engine.ClearAllAndPlay); !ok {
		t.Fatalf("first command was %#v, expected a clear", cmds[0])
	}
	var (
		transport int
		loops     = map[int]int{}
		master    float32
	)
	for _, c := range cmds {
		switch c := c.(type) {
		case engine.SetTransportLen:
			transport = c.Len
		case engine.LoadLoopAudio:
			loops[c.Track] = len(c.Data)
		case engine.SetMixerState:
			master = c.State.Master
		}
	}
	if transport != 1000 {
		t.Fatalf("transport length was %v, expected 1000", transport)
	}
	if len(loops) != 2 || loops[0] != 1000 || loops[3] != 2000 {
		t.Fatalf("loaded loops %v", loops)
	}
	if master != 0.5 {
		t.Fatalf("master volume was %v, expected 0.5", master)
	}
}

func TestLoadWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	if err := cypher.WriteWavFile(filepath.Join(dir, "loop_5.wav"), constant(800, 0.1), 48000, 1); err != nil {
		t.Fatalf("WriteWavFile failed: %v", err)
	}
	cmds, err := session.Load(dir, 48000)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	found := false
	for _, c := range cmds {
		switch c := c.(type) {
		case engine.SetTransportLen:
			if c.Len != 800 {
				t.Fatalf("transport length was %v, expected the loop length", c.Len)
			}
		case engine.LoadLoopAudio:
			found = c.Track == 5
		}
	}
	if !found {
		t.Fatal("loop_5.wav was not loaded to track 5")
	}
}

func TestLoadEmptyDir(t *testing.T) {
	_, err := session.Load(t.TempDir(), 48000)
	if err == nil || ftag.Get(err) != ftag.NotFound {
		t.Fatalf("expected a not found error, got %v", err)
	}
}

func TestWriteRecordingTrimsSilence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "take.wav")
	silent := engine.RecordingJob{Data: make([]float32, 48000), SampleRate: 48000}
	if ok, err := session.WriteRecording(path, silent); ok || err != nil {
		t.Fatalf("silent recording gave ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatal("a silent recording should not be written")
	}
	data := append(make([]float32, 4096), constant(4096, 0.5)...)
	data = append(data, make([]float32, 4096)...)
	ok, err := session.WriteRecording(path, engine.RecordingJob{Data: data, SampleRate: 48000})
	if !ok || err != nil {
		t.Fatalf("WriteRecording gave ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("recording not written: %v", err)
	}
}

func TestNamer(t *testing.T) {
	n, err := session.NewNamer("", "set_{{ .Index }}")
	if err != nil {
		t.Fatalf("NewNamer failed: %v", err)
	}
	now := time.Date(2024, 3, 1, 12, 30, 5, 0, time.Local)
	name, err := n.Recording(session.NameData{Now: now})
	if err != nil {
		t.Fatalf("Recording failed: %v", err)
	}
	if name != "recording_20240301_123005.wav" {
		t.Fatalf("recording name was %q", name)
	}
	if name, _ := n.Session(session.NameData{Index: 3}); name != "set_3" {
		t.Fatalf("session name was %q", name)
	}
	n, _ = session.NewNamer("../../{{ .Index }}.wav", "")
	if name, _ := n.Recording(session.NameData{Index: 1}); strings.Contains(name, "..") || name != "1.wav" {
		t.Fatalf("name %q escapes the directory", name)
	}
	if _, err := session.NewNamer("{{ .Nope", ""); ftag.Get(err) != ftag.InvalidArgument {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
}

func TestWorkerWritesJobs(t *testing.T) {
	dir := t.TempDir()
	b := engine.NewBroker(0)
	namer, _ := session.NewNamer("take.wav", "")
	w := session.NewWorker(b, namer, dir, nil)
	go w.Run()
	defer func() {
		w.Close <- struct{}{}
		<-w.Finished
	}()
	b.ToWorker <- engine.RecordingJob{Data: constant(8192, 0.5), SampleRate: 48000}
	b.ToWorker <- sessionJob(filepath.Join(dir, "s"))
	for range 2 {
		msg, ok := engine.TimeoutReceive(b.ToUI, 5*time.Second)
		if !ok {
			t.Fatal("expected an alert from the worker")
		}
		if a, ok := msg.(engine.Alert); !ok || a.Priority != engine.Info {
			t.Fatalf("unexpected message %#v", msg)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "take.wav")); err != nil {
		t.Fatalf("recording not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "s", "loop_3.wav")); err != nil {
		t.Fatalf("session not written: %v", err)
	}
}

func TestLoadKit(t *testing.T) {
	dir := t.TempDir()
	if err := cypher.WriteWavFile(filepath.Join(dir, "kick.wav"), constant(600, 0.5), 48000, 1); err != nil {
		t.Fatalf("WriteWavFile failed: %v", err)
	}
	k := pads.DefaultKit()
	k.Pads[2].Path = "kick.wav"
	k.Pads[2].FX.Pitch = -12
	if err := pads.SaveKit(filepath.Join(dir, "kit.yml"), k); err != nil {
		t.Fatalf("SaveKit failed: %v", err)
	}
	cmds, err := session.LoadKit(filepath.Join(dir, "kit.yml"), 48000)
	if err != nil {
		t.Fatalf("LoadKit failed: %v", err)
	}
	var loaded, cleared int
	for _, c := range cmds {
		switch c := c.(type) {
		case engine.LoadPadSample:
			if c.Pad != 2 || len(c.Data) != 600 {
				t.Fatalf("unexpected load %v with %v samples", c.Pad, len(c.Data))
			}
			loaded++
		case engine.SetPadFX:
			if c.FX.Pitch != -12 {
				t.Fatalf("pad fx not carried over: %+v", c.FX)
			}
		case engine.ClearPad:
			cleared++
		}
	}
	if loaded != 1 || cleared != pads.NumPads-1 {
		t.Fatalf("loaded %v and cleared %v pads", loaded, cleared)
	}
}

func TestLoadSamplerSlots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := cypher.WriteWavFile(path, constant(100, 0.5), 24000, 1); err != nil {
		t.Fatalf("WriteWavFile failed: %v", err)
	}
	cmds, err := session.LoadSamplerSlots(1, []string{"", path}, 48000)
	if err != nil {
		t.Fatalf("LoadSamplerSlots failed: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("got %v commands, expected 1", len(cmds))
	}
	if c := cmds[0].(engine.LoadSampleForSlot); c.Engine != 1 || c.Slot != 1 || len(c.Data) < 190 {
		t.Fatalf("unexpected command for slot %v with %v samples", c.Slot, len(c.Data))
	}
}

func TestWorkerKeepsFilesInRecordingsDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "recordings")
	b := engine.NewBroker(0)
	namer, _ := session.NewNamer("", "")
	w := session.NewWorker(b, namer, dir, nil)
	go w.Run()
	defer func() {
		w.Close <- struct{}{}
		<-w.Finished
	}()
	b.ToWorker <- engine.RecordingJob{Data: constant(8192, 0.5), SampleRate: 48000, Path: "../escape.wav"}
	b.ToWorker <- sessionJob("../../outside")
	for range 2 {
		if _, ok := engine.TimeoutReceive(b.ToUI, 5*time.Second); !ok {
			t.Fatal("expected an alert from the worker")
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.wav")); err != nil {
		t.Fatalf("recording not written inside the directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "outside", session.ManifestName)); err != nil {
		t.Fatalf("session not written inside the directory: %v", err)
	}
	for _, p := range []string{filepath.Join(root, "escape.wav"), filepath.Join(root, "outside")} {
		if _, err := os.Stat(p); err == nil {
			t.Fatalf("%v was written outside the recordings directory", p)
		}
	}
}
