package mixer

import "math"

// Metronome clicks on every quarter of the transport cycle, with the accent
// pitch on the first one.
type Metronome struct {
	phase      float32
	step       float32
	env        float32
	sampleRate float32
}

const clickDecay = 0.999

func NewMetronome(sampleRate float32) *Metronome {
	return &Metronome{sampleRate: sampleRate}
}

// Process returns the next click sample. playhead and transportLen are the
// transport position before it advances for this sample.
func (m *Metronome) Process(playhead, transportLen int, playing bool, s MetronomeTrack) float32 {
	if playing && transportLen >= 4 {
		for beat := range 4 {
			if playhead != beat*transportLen/4 {
				continue
			}
			pitch := s.Pitch
			if beat == 0 {
				pitch = s.AccentPitch
			}
			m.phase, m.env = 0, 1
			m.step = pitch / m.sampleRate
			break
		}
	}
	if m.env < 1e-4 {
		m.env = 0
		return 0
	}
	out := float32(math.Sin(2*math.Pi*float64(m.phase))) * m.env
	m.phase += m.step
	m.phase -= float32(math.Floor(float64(m.phase)))
	m.env *= clickDecay
	if s.Muted {
		return 0
	}
	return out * s.Volume
}
