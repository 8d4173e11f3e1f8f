package synth

import "math"

type (
	// VoiceCore is the state every voice carries regardless of how it makes
	// sound: the note it plays, its age in samples since note on, an
	// amplitude envelope, a second envelope for modulation and a filter.
	VoiceCore struct {
		Note     byte
		Velocity float32
		Age      uint32
		Amp      ADSR
		Env2     ADSR
		Filter   Filter

		// Mods, Env2Value and Drive are the values of the last processed
		// sample, published for UI feedback.
		Mods      ModValues
		Env2Value float32
		Drive     float32
	}

	// Voicer is implemented by the voice types of the engines.
	Voicer interface {
		Core() *VoiceCore
		Active() bool
	}
)

func NewVoiceCore(sampleRate float32) VoiceCore {
	return VoiceCore{
		Age:    math.MaxUint32,
		Amp:    NewADSR(sampleRate),
		Env2:   NewADSR(sampleRate),
		Filter: NewFilter(sampleRate),
	}
}

func (v *VoiceCore) Core() *VoiceCore { return v }

// Active reports whether the amplitude envelope is running.
func (v *VoiceCore) Active() bool { return v.Amp.Active() }

func (v *VoiceCore) NoteOn(note, velocity byte) {
	v.Note = note
	v.Velocity = float32(velocity) / 127
	v.Age = 0
	v.Amp.NoteOn()
	v.Env2.NoteOn()
}

func (v *VoiceCore) NoteOff() {
	v.Amp.NoteOff()
	v.Env2.NoteOff()
}

// Tick ages the voice by one sample.
func (v *VoiceCore) Tick() {
	if v.Age < math.MaxUint32 {
		v.Age++
	}
}

func (v *VoiceCore) SetADSR(amp, env2 ADSRSettings) {
	v.Amp.Settings = amp
	v.Env2.Settings = env2
}

func priority[P Voicer](v P) int {
	switch {
	case !v.Active():
		return 2
	case v.Core().Amp.State() == Release:
		return 1
	}
	return 0
}

// PickVoice returns the voice to use for a new note: a free voice if there
// is one, else the one furthest into its release, else the oldest.
func PickVoice[T any, P interface {
	*T
	Voicer
}](voices []T) int {
	best := -1
	var bestPrio int
	var bestAge uint32
	for i := range voices {
		v := P(&voices[i])
		prio, age := priority(v), v.Core().Age
		if best < 0 || prio > bestPrio || (prio == bestPrio && age > bestAge) {
			best, bestPrio, bestAge = i, prio, age
		}
	}
	return best
}

// ReleaseNote releases every active voice playing note.
func ReleaseNote[T any, P interface {
	*T
	Voicer
}](voices []T, note byte) {
	for i := range voices {
		v := P(&voices[i])
		if v.Active() && v.Core().Note == note {
			v.Core().NoteOff()
		}
	}
}

// Youngest returns the index of the most recently triggered active voice, or
// -1 if all voices are silent.
func Youngest[T any, P interface {
	*T
	Voicer
}](voices []T) int {
	best := -1
	var bestAge uint32
	for i := range voices {
		v := P(&voices[i])
		if !v.Active() {
			continue
		}
		if best < 0 || v.Core().Age < bestAge {
			best, bestAge = i, v.Core().Age
		}
	}
	return best
}

// ReleaseAllButYoungest is used when switching to monophonic mode.
func ReleaseAllButYoungest[T any, P interface {
	*T
	Voicer
}](voices []T) {
	keep := Youngest[T, P](voices)
	for i := range voices {
		if v := P(&voices[i]); i != keep && v.Active() {
			v.Core().NoteOff()
		}
	}
}

// MonoVoice releases every voice but the first and returns 0.
func MonoVoice[T any, P interface {
	*T
	Voicer
}](voices []T) int {
	for i := 1; i < len(voices); i++ {
		P(&voices[i]).Core().NoteOff()
	}
	return 0
}
