// Package tui is the terminal control surface. It polls the shared engine
// state on every frame and turns key presses into engine commands.
package tui

import (
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cypher-audio/cypher/engine"
	"github.com/cypher-audio/cypher/looper"
)

// FrameTime is the interval of the display refresh.
const FrameTime = time.Second / 30

type (
	Model struct {
		controller *engine.Controller
		shared     *engine.Shared
		logger     *log.Logger

		width    int
		selected int
		showHelp bool

		tracks  [looper.NumLoopers]meter
		master  meter
		synth   meter
		sampler meter
		input   meter

		pads      [16]time.Time
		alert     engine.Alert
		alertTime time.Time
		now       time.Time
	}

	tickMsg time.Time
)

func New(c *engine.Controller, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}
	return &Model{controller: c, shared: c.Shared, logger: logger, width: 80}
}

func tick() tea.Cmd {
	return tea.Tick(FrameTime, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return tick() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m.frame(time.Time(msg))
		return m, tick()
	case tea.KeyMsg:
		return m, m.key(msg.String())
	}
	return m, nil
}

// frame updates the meters and drains the messages from the engine and the
// worker.
func (m *Model) frame(now time.Time) {
	m.now = now
	for i := range m.tracks {
		m.tracks[i].update(m.shared.Loopers[i].Peak.Load())
	}
	m.master.update(m.shared.Mixer.MasterPeak.Load())
	m.synth.update(m.shared.SynthPeak.Load())
	m.sampler.update(m.shared.SamplerPeak.Load())
	m.input.update(m.shared.InputPeak.Load())
loop:
	for {
		select {
		case msg := <-m.controller.Broker.ToUI:
			m.message(msg, now)
		default:
			break loop
		}
	}
}

func (m *Model) message(msg any, now time.Time) {
	switch msg := msg.(type) {
	case engine.Alert:
		m.logger.Printf("alert: %s", msg.Message)
		if now.Sub(m.alertTime) > m.alert.Duration || msg.Priority >= m.alert.Priority {
			m.alert, m.alertTime = msg, now
		}
	case engine.PadEvent:
		if msg.Pad >= 0 && msg.Pad < len(m.pads) {
			m.pads[msg.Pad] = now
		}
	}
}

// trackKeys press loopers 1-12; the shifted keys clear them.
const (
	trackKeys = "1234567890-="
	clearKeys = "!@#$%^&*()_+"
)

func (m *Model) key(k string) tea.Cmd {
	send := m.controller.Send
	if len(k) == 1 {
		for i := range looper.NumLoopers {
			switch k[0] {
			case trackKeys[i]:
				m.selected = i
				send(engine.LooperPress{Track: i})
				return nil
			case clearKeys[i]:
				send(engine.ClearLooper{Track: i})
				return nil
			}
		}
	}
	switch k {
	case "ctrl+c", "q":
		return tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "up":
		m.selected = (m.selected + looper.NumLoopers - 1) % looper.NumLoopers
	case "down":
		m.selected = (m.selected + 1) % looper.NumLoopers
	case "left", "right":
		v := m.shared.Mixer.Strips.Load().Tracks[m.selected].Volume
		if k == "left" {
			v -= 0.05
		} else {
			v += 0.05
		}
		send(engine.SetMixerTrackVolume{Track: m.selected, Volume: max(0, min(v, 1.5))})
	case "[", "]":
		v := m.shared.Mixer.Master.Load()
		if k == "[" {
			v -= 0.05
		} else {
			v += 0.05
		}
		send(engine.SetMasterVolume{Volume: max(0, min(v, 1.5))})
	case "enter":
		send(engine.LooperPress{Track: m.selected})
	case "t":
		send(engine.ToggleLooperPlayback{Track: m.selected})
	case "m":
		send(engine.ToggleMixerMute{Track: m.selected})
	case "o":
		send(engine.ToggleMixerSolo{Track: m.selected})
	case "M":
		send(engine.ToggleMuteAll{})
	case " ":
		send(engine.ToggleTransport{})
	case "s":
		send(engine.StopTransport{})
	case "c":
		send(engine.ClearAll{})
	case "C":
		send(engine.ClearAllAndPlay{})
	case "d":
		send(engine.DoubleTempo{})
	case "h":
		send(engine.HalveTempo{})
	case "l":
		send(engine.ToggleLimiter{})
	case "y":
		send(engine.ToggleSynth{})
	case "p":
		send(engine.ToggleSampler{})
	case "a":
		send(engine.ToggleAudioInputArm{})
	case "i":
		send(engine.ToggleAudioInputMonitoring{})
	case "r":
		send(engine.ToggleRecord{})
	case "w":
		send(engine.SaveSessionAudio{})
	case "k":
		mt := m.shared.Mixer.Strips.Load().Metronome
		mt.Muted = !mt.Muted
		if mt.Volume == 0 {
			mt.Volume, mt.Muted = 0.5, false
		}
		send(engine.SetMetronome{Metronome: mt})
	}
	return nil
}

// Selected returns the track the track keys act on.
func (m *Model) Selected() int { return m.selected }

// Alert returns the alert currently shown, if any.
func (m *Model) Alert() (engine.Alert, bool) {
	if m.alert.Message == "" || m.now.Sub(m.alertTime) > m.alert.Duration {
		return engine.Alert{}, false
	}
	return m.alert, true
}

func bpm(sampleRate, transportLen int) float64 {
	if transportLen <= 0 {
		return 0
	}
	return float64(sampleRate) * 240 / float64(transportLen)
}

func fmtBPM(sampleRate, transportLen int) string {
	if transportLen <= 0 {
		return "---.-"
	}
	return fmt.Sprintf("%5.1f", bpm(sampleRate, transportLen))
}

// TrackLevel is the displayed meter level of a looper track.
func (m *Model) TrackLevel(i int) float32 { return float32(m.tracks[i]) }

func (m *Model) MasterLevel() float32 { return float32(m.master) }
