package synth

import (
	"sync"
	"sync/atomic"

	"github.com/cypher-audio/cypher"
)

type (
	ModSourceKind int

	// ModSource is where a modulation signal comes from. Channel and CC are
	// only used by ModMidiCC.
	ModSource struct {
		Kind    ModSourceKind `yaml:"kind"`
		Channel byte          `yaml:"channel,omitempty"`
		CC      byte          `yaml:"cc,omitempty"`
	}

	ModDestination int

	// ModRouting adds Amount (-1..1) times the source value to the
	// destination.
	ModRouting struct {
		Source      ModSource      `yaml:"source"`
		Destination ModDestination `yaml:"destination"`
		Amount      float32        `yaml:"amount"`
	}

	// ModValues holds the summed modulation per destination.
	ModValues [NumModDestinations]float32

	// ModMatrix is the list of routings of one engine. Readers get an
	// immutable snapshot without locking; writers replace the whole list.
	ModMatrix struct {
		mu       sync.Mutex // serializes writers
		routings atomic.Pointer[[]ModRouting]
	}

	// CCTable holds the last value of every MIDI controller on every
	// channel, as fixed point value/127 scaled by cypher.DefaultScale.
	CCTable [16][128]atomic.Uint32
)

const (
	ModLFO1 ModSourceKind = iota
	ModLFO2
	ModEnv2
	ModVelocity
	ModStatic
	ModMidiCC
)

const (
	ModWavetablePosition ModDestination = iota
	ModPitch
	ModAmplitude
	ModFilterCutoff
	ModBellPosition
	ModBellAmount
	ModBellWidth
	ModSaturation
	NumModDestinations
)

var (
	modSourceNames = [...]string{"LFO 1", "LFO 2", "Env 2", "Velocity", "Static", "MIDI CC"}
	modDestNames   = [...]string{"wavetable position", "pitch", "amplitude", "filter cutoff", "bell position", "bell amount", "bell width", "saturation"}
)

func (k ModSourceKind) String() string {
	if k < 0 || int(k) >= len(modSourceNames) {
		return "unknown"
	}
	return modSourceNames[k]
}

func (d ModDestination) String() string {
	if d < 0 || int(d) >= len(modDestNames) {
		return "unknown"
	}
	return modDestNames[d]
}

// Voiced reports whether the source depends on per voice state.
func (s ModSource) Voiced() bool {
	return s.Kind == ModEnv2 || s.Kind == ModVelocity
}

func (m *ModMatrix) Load() []ModRouting {
	if p := m.routings.Load(); p != nil {
		return *p
	}
	return nil
}

// Store publishes a copy of routings.
func (m *ModMatrix) Store(routings []ModRouting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(routings)
}

func (m *ModMatrix) store(routings []ModRouting) {
	c := append([]ModRouting(nil), routings...)
	m.routings.Store(&c)
}

func (m *ModMatrix) Add(r ModRouting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(append(append([]ModRouting(nil), m.Load()...), r))
}

func (m *ModMatrix) Remove(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.Load()
	if i < 0 || i >= len(old) {
		return
	}
	c := append([]ModRouting(nil), old[:i]...)
	m.store(append(c, old[i+1:]...))
}

func (m *ModMatrix) SetAmount(i int, amount float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.Load()
	if i < 0 || i >= len(old) {
		return
	}
	c := append([]ModRouting(nil), old...)
	c[i].Amount = min(max(amount, -1), 1)
	m.store(c)
}

// BaseMods sums the contributions of the sources that are shared by all
// voices.
func BaseMods(routings []ModRouting, lfo1, lfo2 float32, cc *CCTable) (ret ModValues) {
	for _, r := range routings {
		var v float32
		switch r.Source.Kind {
		case ModLFO1:
			v = lfo1
		case ModLFO2:
			v = lfo2
		case ModStatic:
			v = 1
		case ModMidiCC:
			if cc == nil {
				continue
			}
			v = cc.Value(r.Source.Channel, r.Source.CC)
		default:
			continue
		}
		if r.Destination >= 0 && r.Destination < NumModDestinations {
			ret[r.Destination] += v * r.Amount
		}
	}
	return ret
}

// VoiceMods adds the per voice contributions (Env2, Velocity) to base.
func VoiceMods(base ModValues, routings []ModRouting, env2, velocity float32) ModValues {
	for _, r := range routings {
		var v float32
		switch r.Source.Kind {
		case ModEnv2:
			v = env2
		case ModVelocity:
			v = velocity
		default:
			continue
		}
		if r.Destination >= 0 && r.Destination < NumModDestinations {
			base[r.Destination] += v * r.Amount
		}
	}
	return base
}

func (t *CCTable) Set(channel, cc, value byte) {
	t[channel&0x0F][cc&0x7F].Store(uint32(float32(value&0x7F) / 127 * cypher.DefaultScale))
}

// Value returns the controller value in [0, 1].
func (t *CCTable) Value(channel, cc byte) float32 {
	return float32(t[channel&0x0F][cc&0x7F].Load()) / cypher.DefaultScale
}
