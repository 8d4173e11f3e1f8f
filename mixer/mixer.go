// Package mixer holds the shared mixer state of the looper tracks and the
// metronome, and the master bus processors: the limiter and the metronome
// click.
package mixer

import (
	"sync/atomic"

	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/looper"
)

type (
	Track struct {
		Volume float32 `yaml:"volume"`
		Muted  bool    `yaml:"muted,omitempty"`
		Soloed bool    `yaml:"soloed,omitempty"`
	}

	MetronomeTrack struct {
		Volume      float32 `yaml:"volume"`
		Pitch       float32 `yaml:"pitch"`       // Hz
		AccentPitch float32 `yaml:"accentpitch"` // Hz, used on the first beat
		Muted       bool    `yaml:"muted,omitempty"`
	}

	ReleaseMode int32

	LimiterSettings struct {
		Active    bool        `yaml:"active"`
		Threshold float32     `yaml:"threshold"`
		Mode      ReleaseMode `yaml:"mode"`
		ReleaseMs float32     `yaml:"releasems"`
		Sync      float32     `yaml:"sync"` // releases per transport cycle
	}

	// State is a plain snapshot of the whole mixer, used for the
	// SetMixerState command and session files.
	State struct {
		Tracks    [looper.NumLoopers]Track `yaml:"tracks"`
		Metronome MetronomeTrack           `yaml:"metronome"`
		Master    float32                  `yaml:"master"`
		Limiter   LimiterSettings          `yaml:"limiter"`
	}

	// Mixer is the mixer fabric shared by the audio goroutine and the
	// control surfaces. Track and metronome settings change together under
	// a lock; master and limiter values are lock free. Only the control
	// side calls the setters; the audio goroutine reads, and writes the
	// meters.
	Mixer struct {
		Strips  cypher.Locked[Strips]
		Master  cypher.Param
		Limiter LimiterParams

		MasterPeak    cypher.Meter
		GainReduction cypher.Param // dB, positive
	}

	Strips struct {
		Tracks    [looper.NumLoopers]Track
		Metronome MetronomeTrack
	}

	LimiterParams struct {
		Active    atomic.Bool
		Threshold cypher.Param
		mode      atomic.Int32
		ReleaseMs *cypher.Param // milliseconds with three decimals
		Sync      cypher.Param
	}
)

const (
	ReleaseHz ReleaseMode = iota
	ReleaseSync
)

func (m ReleaseMode) String() string {
	if m == ReleaseSync {
		return "sync"
	}
	return "hz"
}

func DefaultTrack() Track { return Track{Volume: 1} }

func DefaultMetronome() MetronomeTrack {
	return MetronomeTrack{Volume: 0, Pitch: 880, AccentPitch: 1320}
}

func DefaultLimiter() LimiterSettings {
	return LimiterSettings{Active: true, Threshold: 1, Mode: ReleaseHz, ReleaseMs: 80, Sync: 1}
}

func DefaultState() State {
	s := State{Metronome: DefaultMetronome(), Master: 1, Limiter: DefaultLimiter()}
	for i := range s.Tracks {
		s.Tracks[i] = DefaultTrack()
	}
	return s
}

func New() *Mixer {
	m := &Mixer{}
	m.Limiter.ReleaseMs = cypher.NewScaledParam(0, 1000)
	m.Reset()
	return m
}

func (m *Mixer) Reset() { m.Apply(DefaultState()) }

func (m *Mixer) Apply(s State) {
	m.Strips.Store(Strips{Tracks: s.Tracks, Metronome: s.Metronome})
	m.Master.Store(s.Master)
	m.Limiter.Store(s.Limiter)
}

func (m *Mixer) Snapshot() State {
	st := m.Strips.Load()
	return State{
		Tracks:    st.Tracks,
		Metronome: st.Metronome,
		Master:    m.Master.Load(),
		Limiter:   m.Limiter.Load(),
	}
}

func (l *LimiterParams) Mode() ReleaseMode        { return ReleaseMode(l.mode.Load()) }
func (l *LimiterParams) SetMode(mode ReleaseMode) { l.mode.Store(int32(mode)) }

func (l *LimiterParams) Store(s LimiterSettings) {
	l.Active.Store(s.Active)
	l.Threshold.Store(s.Threshold)
	l.SetMode(s.Mode)
	l.ReleaseMs.Store(s.ReleaseMs)
	l.Sync.Store(s.Sync)
}

func (l *LimiterParams) Load() LimiterSettings {
	return LimiterSettings{
		Active:    l.Active.Load(),
		Threshold: l.Threshold.Load(),
		Mode:      l.Mode(),
		ReleaseMs: l.ReleaseMs.Load(),
		Sync:      l.Sync.Load(),
	}
}

func (m *Mixer) SetTrackVolume(i int, v float32) {
	if i < 0 || i >= looper.NumLoopers {
		return
	}
	m.Strips.Update(func(s *Strips) { s.Tracks[i].Volume = max(v, 0) })
}

func (m *Mixer) ToggleMute(i int) {
	if i < 0 || i >= looper.NumLoopers {
		return
	}
	m.Strips.Update(func(s *Strips) { s.Tracks[i].Muted = !s.Tracks[i].Muted })
}

func (m *Mixer) ToggleSolo(i int) {
	if i < 0 || i >= looper.NumLoopers {
		return
	}
	m.Strips.Update(func(s *Strips) { s.Tracks[i].Soloed = !s.Tracks[i].Soloed })
}

// ToggleMuteAll mutes every track if any track is unmuted, otherwise
// unmutes them all.
func (m *Mixer) ToggleMuteAll() {
	m.Strips.Update(func(s *Strips) {
		mute := false
		for _, t := range s.Tracks {
			if !t.Muted {
				mute = true
				break
			}
		}
		for i := range s.Tracks {
			s.Tracks[i].Muted = mute
		}
	})
}

func (m *Mixer) SetMetronome(mt MetronomeTrack) {
	m.Strips.Update(func(s *Strips) { s.Metronome = mt })
}

// Gains computes the audible gain of every track. When any track is
// soloed only the soloed tracks are heard and mutes are ignored.
func (s *Strips) Gains(dst *[looper.NumLoopers]float32) {
	soloed := false
	for _, t := range s.Tracks {
		soloed = soloed || t.Soloed
	}
	for i, t := range s.Tracks {
		audible := !t.Muted
		if soloed {
			audible = t.Soloed
		}
		dst[i] = 0
		if audible {
			dst[i] = t.Volume
		}
	}
}
