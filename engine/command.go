package engine

import (
	"github.com/cypher-audio/cypher/mixer"
	"github.com/cypher-audio/cypher/pads"
	"github.com/cypher-audio/cypher/synth"
	"github.com/cypher-audio/cypher/synth/sampler"
)

type (
	// Command is a message to the audio goroutine. The set of commands is
	// closed: only the types in this file implement it.
	Command interface{ isCommand() }

	// Looper commands
	LooperPress          struct{ Track int }
	ClearLooper          struct{ Track int }
	ToggleLooperPlayback struct{ Track int }
	// LoadLoopAudio carries already decoded audio at the engine rate.
	LoadLoopAudio struct {
		Track int
		Data  []float32
	}

	// Transport commands
	PlayTransport   struct{}
	StopTransport   struct{}
	ToggleTransport struct{}
	ClearAll        struct{}
	ClearAllAndPlay struct{}
	DoubleTempo     struct{}
	HalveTempo      struct{}
	SetTransportLen struct{ Len int }

	// MidiMessage is a raw three byte channel message.
	MidiMessage struct{ Status, Data1, Data2 byte }

	// Synth commands. Engine is the slot index, 0 or 1.
	ActivateSynth   struct{}
	DeactivateSynth struct{}
	ToggleSynth     struct{}
	SetSynthMode    struct {
		Engine     int
		Polyphonic bool
	}
	SetAmpADSR struct {
		Engine   int
		Settings synth.ADSRSettings
	}
	SetFilterADSR struct {
		Engine   int
		Settings synth.ADSRSettings
	}
	ResetWavetables struct{ Engine int }
	SetWavetable    struct {
		Engine, Slot int
		Table        synth.Wavetable
	}
	LoadSampleForSlot struct {
		Engine, Slot int
		Data         []float32
	}
	SetSamplerSettings struct {
		Engine   int
		Settings sampler.Settings
	}
	// ChangeEngineType swaps the engine in a slot. The engine is built on
	// the sending side so the audio goroutine never allocates it.
	ChangeEngineType struct {
		Engine int
		New    synth.Engine
		Params synth.EngineParams
	}
	SetSynthMasterVolume   struct{ Volume float32 }
	SetSamplerMasterVolume struct{ Volume float32 }

	// Pad sampler commands
	ActivateSampler   struct{}
	DeactivateSampler struct{}
	ToggleSampler     struct{}
	LoadPadSample     struct {
		Pad  int
		Data []float32
	}
	ClearPad struct{ Pad int }
	SetPadFX struct {
		Pad int
		FX  pads.FX
	}

	// Input commands
	ToggleAudioInputArm        struct{}
	ToggleAudioInputMonitoring struct{}

	// Mixer commands
	SetMixerState       struct{ State mixer.State }
	SetMixerTrackVolume struct {
		Track  int
		Volume float32
	}
	ToggleMuteAll         struct{}
	ToggleMixerMute       struct{ Track int }
	ToggleMixerSolo       struct{ Track int }
	SetMetronome          struct{ Metronome mixer.MetronomeTrack }
	SetMasterVolume       struct{ Volume float32 }
	SetLimiterThreshold   struct{ Threshold float32 }
	ToggleLimiter         struct{}
	SetLimiterReleaseMode struct{ Mode mixer.ReleaseMode }
	SetLimiterReleaseMs   struct{ Ms float32 }
	SetLimiterReleaseSync struct{ Sync float32 }

	// Recording and session commands. The file work happens on a worker
	// goroutine; the audio goroutine only hands over the data.
	StartRecording struct{}
	// StopRecording ends the output recording. An empty Path lets the
	// worker name the file.
	StopRecording    struct{ Path string }
	ToggleRecord     struct{}
	SaveSessionAudio struct{ Dir string }
)

func (LooperPress) isCommand()                {}
func (ClearLooper) isCommand()                {}
func (ToggleLooperPlayback) isCommand()       {}
func (LoadLoopAudio) isCommand()              {}
func (PlayTransport) isCommand()              {}
func (StopTransport) isCommand()              {}
func (ToggleTransport) isCommand()            {}
func (ClearAll) isCommand()                   {}
func (ClearAllAndPlay) isCommand()            {}
func (DoubleTempo) isCommand()                {}
func (HalveTempo) isCommand()                 {}
func (SetTransportLen) isCommand()            {}
func (MidiMessage) isCommand()                {}
func (ActivateSynth) isCommand()              {}
func (DeactivateSynth) isCommand()            {}
func (ToggleSynth) isCommand()                {}
func (SetSynthMode) isCommand()               {}
func (SetAmpADSR) isCommand()                 {}
func (SetFilterADSR) isCommand()              {}
func (ResetWavetables) isCommand()            {}
func (SetWavetable) isCommand()               {}
func (LoadSampleForSlot) isCommand()          {}
func (SetSamplerSettings) isCommand()         {}
func (ChangeEngineType) isCommand()           {}
func (SetSynthMasterVolume) isCommand()       {}
func (SetSamplerMasterVolume) isCommand()     {}
func (ActivateSampler) isCommand()            {}
func (DeactivateSampler) isCommand()          {}
func (ToggleSampler) isCommand()              {}
func (LoadPadSample) isCommand()              {}
func (ClearPad) isCommand()                   {}
func (SetPadFX) isCommand()                   {}
func (ToggleAudioInputArm) isCommand()        {}
func (ToggleAudioInputMonitoring) isCommand() {}
func (SetMixerState) isCommand()              {}
func (SetMixerTrackVolume) isCommand()        {}
func (ToggleMuteAll) isCommand()              {}
func (ToggleMixerMute) isCommand()            {}
func (ToggleMixerSolo) isCommand()            {}
func (SetMetronome) isCommand()               {}
func (SetMasterVolume) isCommand()            {}
func (SetLimiterThreshold) isCommand()        {}
func (ToggleLimiter) isCommand()              {}
func (SetLimiterReleaseMode) isCommand()      {}
func (SetLimiterReleaseMs) isCommand()        {}
func (SetLimiterReleaseSync) isCommand()      {}
func (StartRecording) isCommand()             {}
func (StopRecording) isCommand()              {}
func (ToggleRecord) isCommand()               {}
func (SaveSessionAudio) isCommand()           {}
