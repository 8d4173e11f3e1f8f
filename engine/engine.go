// Package engine is the real-time heart of the looper: it owns the looper
// bank, the two synth engine slots, the pad sampler and the master bus, and
// applies commands from the control surfaces between audio buffers.
package engine

import (
	"slices"
	"time"

	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/looper"
	"github.com/cypher-audio/cypher/mixer"
	"github.com/cypher-audio/cypher/pads"
	"github.com/cypher-audio/cypher/synth"
	"github.com/cypher-audio/cypher/synth/sampler"
	"github.com/viterin/vek/vek32"
)

type (
	Options struct {
		SampleRate  int
		BPMRounding bool
		// MaxRecordingSeconds caps the output recording; 0 means no cap.
		MaxRecordingSeconds int
		MidiChannel         int
	}

	// Engine implements cypher.AudioProcessor. HandleCommands and Process
	// must be called from the same goroutine.
	Engine struct {
		shared    *Shared
		broker    *Broker
		bank      *looper.Bank
		synth     synth.Synth
		params    [2]synth.EngineParams
		pads      *pads.Bank
		limiter   *mixer.Limiter
		metronome *mixer.Metronome

		sampleRate   int
		maxRecording int
		recording    []float32
		recordingOn  bool

		engineBufs [2][]float32
		synthBuf   []float32
		padBuf     []float32
		scratch    []float32
		gains      [looper.NumLoopers]float32
	}
)

// DefaultEngineKinds are the engine types of the two slots at start up.
var DefaultEngineKinds = [2]synth.EngineKind{synth.WavetableEngine, synth.SamplerEngine}

func New(broker *Broker, o Options) *Engine {
	sr := float32(o.SampleRate)
	e := &Engine{
		broker:       broker,
		bank:         looper.New(o.SampleRate, o.BPMRounding),
		pads:         pads.New(sr),
		metronome:    mixer.NewMetronome(sr),
		sampleRate:   o.SampleRate,
		maxRecording: o.MaxRecordingSeconds * o.SampleRate,
	}
	s := &Shared{Mixer: mixer.New(), Transport: &e.bank.Transport, PlayingPads: &e.pads.Playing}
	for i := range s.Loopers {
		s.Loopers[i] = e.bank.Shared(i)
	}
	for i, kind := range DefaultEngineKinds {
		e.synth.Engines[i], e.params[i] = NewEngine(kind, o.SampleRate)
		s.Engines[i].Store(e.params[i])
	}
	s.SynthVolume.Store(1)
	s.SamplerVolume.Store(1)
	s.MidiChannel.Store(uint32(o.MidiChannel & 0x0F))
	e.limiter = mixer.NewLimiter(sr, &s.Mixer.GainReduction)
	e.shared = s
	return e
}

func (e *Engine) Shared() *Shared { return e.shared }
func (e *Engine) SampleRate() int { return e.sampleRate }

// HandleCommands applies every queued command.
func (e *Engine) HandleCommands() {
loop:
	for {
		select {
		case c := <-e.broker.queue:
			e.handle(c)
		default:
			break loop
		}
	}
}

func (e *Engine) ensure(n int) {
	if cap(e.synthBuf) >= n {
		return
	}
	e.engineBufs[0] = make([]float32, n)
	e.engineBufs[1] = make([]float32, n)
	e.synthBuf = make([]float32, n)
	e.padBuf = make([]float32, n)
	e.scratch = make([]float32, n)
}

// Process renders len(out) samples. in is the live input; a shorter input
// is padded with silence.
func (e *Engine) Process(in, out cypher.AudioBuffer) {
	start := time.Now()
	n := len(out)
	e.ensure(max(n, len(in)))
	s := e.shared

	s.InputPeak.Store(mixer.Peak(in, e.scratch))
	strips := s.Mixer.Strips.Load()
	strips.Gains(&e.gains)
	_, transportLen := e.bank.Position()

	synthBus := e.synthBuf[:n]
	clear(synthBus)
	var engineOut [2][]float32
	for k := range engineOut {
		engineOut[k] = e.engineBufs[k][:n]
	}
	e.synth.Process(engineOut[0], engineOut[1], transportLen, &s.CC)
	for k, buf := range engineOut {
		c := e.params[k].Common()
		vek32.MulNumber_Inplace(buf, c.Volume.Load())
		c.Peak.Store(mixer.Peak(buf, e.scratch))
		vek32.Add_Inplace(synthBus, buf)
	}
	vek32.MulNumber_Inplace(synthBus, s.SynthVolume.Load())
	s.SynthPeak.Store(mixer.Peak(synthBus, e.scratch))

	padBus := e.padBuf[:n]
	if s.SamplerActive.Load() {
		e.pads.Process(padBus)
		s.SamplerPeak.Store(mixer.Peak(padBus, e.scratch))
		vek32.MulNumber_Inplace(padBus, s.SamplerVolume.Load())
	} else {
		clear(padBus)
		e.pads.Playing.Store(0)
		s.SamplerPeak.Store(0)
	}

	lim := s.Mixer.Limiter.Load()
	release := e.limiter.ReleaseCoefficient(lim, transportLen)
	master := s.Mixer.Master.Load()
	armed, monitored := s.InputArmed.Load(), s.InputMonitored.Load()
	var masterPeak float32
	for i := range out {
		var mic float32
		if i < len(in) {
			mic = in[i]
		}
		rec := synthBus[i] + padBus[i]
		if armed {
			rec += mic
		}
		ph, l := e.bank.Position()
		click := e.metronome.Process(ph, l, e.bank.Playing(), strips.Metronome)
		x := e.bank.Process(rec, &e.gains) + synthBus[i] + padBus[i] + click
		if monitored {
			x += mic
		}
		masterPeak = max(masterPeak, abs(x))
		x *= master
		if lim.Active {
			x = e.limiter.Process(x, lim.Threshold, release)
		} else {
			x = e.limiter.Bypass(x)
		}
		out[i] = x
	}
	e.bank.EndBlock()
	s.Mixer.MasterPeak.Store(masterPeak)

	if e.recordingOn {
		room := n
		if e.maxRecording > 0 {
			room = min(n, e.maxRecording-len(e.recording))
		}
		if room > 0 {
			e.recording = append(e.recording, out[:room]...)
		}
	}

	if n > 0 && e.sampleRate > 0 {
		budget := time.Duration(n) * time.Second / time.Duration(e.sampleRate)
		s.CPULoad.Store(float32(time.Since(start)) / float32(budget))
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func (e *Engine) alert(p AlertPriority, msg string) {
	TrySend[any](e.broker.ToUI, Alert{Priority: p, Message: msg, Duration: 3 * time.Second})
}

func (e *Engine) engineSlot(i int) (synth.Engine, bool) {
	if i < 0 || i >= len(e.synth.Engines) {
		return nil, false
	}
	return e.synth.Engines[i], true
}

func (e *Engine) handle(c Command) {
	s := e.shared
	switch c := c.(type) {
	case LooperPress:
		e.bank.Press(c.Track)
	case ClearLooper:
		e.bank.Clear(c.Track)
	case ToggleLooperPlayback:
		e.bank.TogglePlayback(c.Track)
	case LoadLoopAudio:
		e.bank.Load(c.Track, c.Data)

	case PlayTransport:
		e.bank.Play()
	case StopTransport:
		e.bank.Stop()
	case ToggleTransport:
		e.bank.ToggleTransport()
	case ClearAll:
		e.bank.ClearAll(false)
	case ClearAllAndPlay:
		e.bank.ClearAll(true)
	case DoubleTempo:
		e.bank.DoubleTempo()
	case HalveTempo:
		e.bank.HalveTempo()
	case SetTransportLen:
		e.bank.SetLen(c.Len)

	case MidiMessage:
		e.midi(c)

	case ActivateSynth:
		e.setSynthActive(true)
	case DeactivateSynth:
		e.setSynthActive(false)
	case ToggleSynth:
		e.setSynthActive(!s.SynthActive.Load())
	case SetSynthMode:
		if en, ok := e.engineSlot(c.Engine); ok {
			en.SetPolyphonic(c.Polyphonic)
		}
	case SetAmpADSR:
		if en, ok := e.engineSlot(c.Engine); ok {
			en.SetAmpADSR(c.Settings)
		}
	case SetFilterADSR:
		if en, ok := e.engineSlot(c.Engine); ok {
			en.SetFilterADSR(c.Settings)
		}
	case ResetWavetables:
		if en, ok := e.engineSlot(c.Engine); ok {
			en.ResetToDefaults()
		}
	case SetWavetable:
		if en, ok := e.engineSlot(c.Engine); ok {
			en.SetWavetable(c.Slot, c.Table)
		}
	case LoadSampleForSlot:
		if en, ok := e.engineSlot(c.Engine); ok {
			if sm, ok := en.(*sampler.Engine); ok {
				sm.LoadSample(c.Slot, c.Data)
			}
		}
	case SetSamplerSettings:
		if en, ok := e.engineSlot(c.Engine); ok {
			if sm, ok := en.(*sampler.Engine); ok {
				sm.SetSettings(c.Settings)
			}
		}
	case ChangeEngineType:
		if _, ok := e.engineSlot(c.Engine); ok && c.New != nil && c.Params != nil {
			e.synth.Engines[c.Engine] = c.New
			e.params[c.Engine] = c.Params
		}
	case SetSynthMasterVolume:
		s.SynthVolume.Store(c.Volume)
	case SetSamplerMasterVolume:
		s.SamplerVolume.Store(c.Volume)

	case ActivateSampler:
		e.setSamplerActive(true)
	case DeactivateSampler:
		e.setSamplerActive(false)
	case ToggleSampler:
		e.setSamplerActive(!s.SamplerActive.Load())
	case LoadPadSample:
		e.pads.Load(c.Pad, c.Data)
	case ClearPad:
		e.pads.Clear(c.Pad)
	case SetPadFX:
		e.pads.SetFX(c.Pad, c.FX)

	case ToggleAudioInputArm:
		s.InputArmed.Store(!s.InputArmed.Load())
	case ToggleAudioInputMonitoring:
		s.InputMonitored.Store(!s.InputMonitored.Load())

	case StartRecording:
		e.startRecording()
	case StopRecording:
		e.stopRecording(c.Path)
	case ToggleRecord:
		if e.recordingOn {
			e.stopRecording("")
		} else {
			e.startRecording()
		}
	case SaveSessionAudio:
		e.saveSession(c.Dir)
	}
}

// The synth and the pad sampler share the keyboard; activating one
// deactivates the other.
func (e *Engine) setSynthActive(on bool) {
	e.shared.SynthActive.Store(on)
	if on {
		e.shared.SamplerActive.Store(false)
	}
}

func (e *Engine) setSamplerActive(on bool) {
	e.shared.SamplerActive.Store(on)
	if on {
		e.shared.SynthActive.Store(false)
	}
}

func (e *Engine) midi(m MidiMessage) {
	channel := m.Status & 0x0F
	if uint32(channel) != e.shared.MidiChannel.Load() {
		return
	}
	switch m.Status & 0xF0 {
	case 0x90:
		if m.Data2 > 0 {
			e.noteOn(m.Data1, m.Data2)
			return
		}
		e.noteOff(m.Data1)
	case 0x80:
		e.noteOff(m.Data1)
	case 0xB0:
		e.shared.CC.Set(channel, m.Data1, m.Data2)
	}
}

func (e *Engine) noteOn(note, velocity byte) {
	if e.shared.SamplerActive.Load() {
		if i, ok := e.pads.NoteOn(note, velocity); ok {
			TrySend[any](e.broker.ToUI, PadEvent{Pad: i})
			return
		}
	}
	if e.shared.SynthActive.Load() {
		e.synth.NoteOn(note, velocity)
	}
}

func (e *Engine) noteOff(note byte) {
	e.pads.NoteOff(note)
	e.synth.NoteOff(note)
}

func (e *Engine) startRecording() {
	e.recording = make([]float32, 0, e.sampleRate*10)
	e.recordingOn = true
	e.shared.Recording.Store(true)
}

func (e *Engine) stopRecording(path string) {
	if !e.recordingOn {
		return
	}
	e.recordingOn = false
	e.shared.Recording.Store(false)
	job := RecordingJob{Data: e.recording, SampleRate: e.sampleRate, Path: path}
	e.recording = nil
	if !TrySend[any](e.broker.ToWorker, job) {
		e.alert(Error, "Recording was lost: the file worker is busy")
	}
}

func (e *Engine) saveSession(dir string) {
	_, length := e.bank.Position()
	job := SessionJob{
		Dir:          dir,
		SampleRate:   e.sampleRate,
		TransportLen: length,
		Mixer:        e.shared.Mixer.Snapshot(),
	}
	for i := range job.Loops {
		if a := e.bank.Audio(i); len(a) > 0 {
			job.Loops[i] = Loop{Data: slices.Clone(a), Cycles: e.bank.Cycles(i)}
		}
	}
	if !TrySend[any](e.broker.ToWorker, job) {
		e.alert(Error, "Session was not saved: the file worker is busy")
	}
}
