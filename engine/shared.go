package engine

import (
	"sync/atomic"

	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/looper"
	"github.com/cypher-audio/cypher/mixer"
	"github.com/cypher-audio/cypher/synth"
	"github.com/cypher-audio/cypher/synth/sampler"
	"github.com/cypher-audio/cypher/synth/wavetable"
)

type (
	// Shared is everything the control surfaces may read while the engine
	// runs. Fields written by the audio goroutine are atomics or locked
	// values; nothing here blocks the audio goroutine for longer than a
	// copy.
	Shared struct {
		Mixer     *mixer.Mixer
		Loopers   [looper.NumLoopers]*looper.Shared
		Transport *looper.Transport

		// Engines mirrors the parameter sets of the two engine slots. It is
		// updated by the Controller when an engine type changes.
		Engines [2]cypher.Locked[synth.EngineParams]
		CC      synth.CCTable

		SynthActive    atomic.Bool
		SamplerActive  atomic.Bool
		InputArmed     atomic.Bool
		InputMonitored atomic.Bool
		Recording      atomic.Bool
		MidiChannel    atomic.Uint32

		SynthVolume   cypher.Param
		SamplerVolume cypher.Param
		SynthPeak     cypher.Meter
		SamplerPeak   cypher.Meter
		InputPeak     cypher.Meter
		PlayingPads   *atomic.Uint32

		// CPULoad is the time spent in Process relative to the buffer
		// duration, 1 meaning the whole buffer.
		CPULoad cypher.Param
	}

	// RecordingJob is a finished output recording.
	RecordingJob struct {
		Data       []float32
		SampleRate int
		Path       string
	}

	// SessionJob is a snapshot of every loop for saving to Dir.
	SessionJob struct {
		Dir          string
		SampleRate   int
		TransportLen int
		Loops        [looper.NumLoopers]Loop
		Mixer        mixer.State
	}

	Loop struct {
		Data   []float32
		Cycles uint32
	}
)

// NewEngine builds an engine of the given kind with fresh parameters.
func NewEngine(kind synth.EngineKind, sampleRate int) (synth.Engine, synth.EngineParams) {
	if kind == synth.SamplerEngine {
		p := sampler.NewParams()
		return sampler.New(float32(sampleRate), p), p
	}
	p := wavetable.NewParams()
	return wavetable.New(float32(sampleRate), p), p
}
