package engine

import "github.com/cypher-audio/cypher/mixer"

// ApplyMixer applies the mixer settings carried by c to m on the calling
// goroutine and reports whether c still has to reach the audio goroutine.
// The forwarder calls it for every command, so the audio goroutine only
// reads the mixer and never takes its write lock.
func ApplyMixer(m *mixer.Mixer, c Command) (forward bool) {
	switch c := c.(type) {
	case ClearAll, ClearAllAndPlay:
		m.Reset()
		return true
	case SetMixerState:
		m.Apply(c.State)
	case SetMixerTrackVolume:
		m.SetTrackVolume(c.Track, c.Volume)
	case ToggleMuteAll:
		m.ToggleMuteAll()
	case ToggleMixerMute:
		m.ToggleMute(c.Track)
	case ToggleMixerSolo:
		m.ToggleSolo(c.Track)
	case SetMetronome:
		m.SetMetronome(c.Metronome)
	case SetMasterVolume:
		m.Master.Store(c.Volume)
	case SetLimiterThreshold:
		m.Limiter.Threshold.Store(c.Threshold)
	case ToggleLimiter:
		m.Limiter.Active.Store(!m.Limiter.Active.Load())
	case SetLimiterReleaseMode:
		m.Limiter.SetMode(c.Mode)
	case SetLimiterReleaseMs:
		m.Limiter.ReleaseMs.Store(c.Ms)
	case SetLimiterReleaseSync:
		m.Limiter.Sync.Store(c.Sync)
	default:
		return true
	}
	return false
}
