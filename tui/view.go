package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cypher-audio/cypher/engine"
	"github.com/cypher-audio/cypher/looper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	title      = cases.Title(language.English)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selStyle   = lipgloss.NewStyle().Background(lipgloss.Color("4"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)

	stateColors = map[looper.State]lipgloss.Color{
		looper.Empty:       "8",
		looper.Armed:       "11",
		looper.Recording:   "9",
		looper.Playing:     "10",
		looper.Overdubbing: "13",
		looper.Stopped:     "12",
	}
	alertColors = map[engine.AlertPriority]lipgloss.Color{
		engine.Info:    "10",
		engine.Warning: "11",
		engine.Error:   "9",
	}
)

const meterWidth = 20

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.tracksView()))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.busView()))
	b.WriteString("\n")
	b.WriteString(m.padsView())
	b.WriteString("\n")
	if a, ok := m.Alert(); ok {
		b.WriteString(lipgloss.NewStyle().Foreground(alertColors[a.Priority]).Render(a.Message))
	}
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(dimStyle.Render(help))
	} else {
		b.WriteString(dimStyle.Render("? help  q quit"))
	}
	return b.String()
}

func (m *Model) header() string {
	t := m.shared.Transport
	state := "stopped"
	if t.Playing() {
		state = "playing"
	}
	pos := ""
	if t.Len() > 0 {
		pos = bar(float32(t.Playhead())/float32(t.Len()), meterWidth)
	}
	flags := []string{}
	for _, f := range []struct {
		on   bool
		name string
	}{
		{m.shared.SynthActive.Load(), "synth"},
		{m.shared.SamplerActive.Load(), "pads"},
		{m.shared.InputArmed.Load(), "armed"},
		{m.shared.InputMonitored.Load(), "monitor"},
		{m.shared.Recording.Load(), "REC"},
	} {
		if f.on {
			flags = append(flags, f.name)
		}
	}
	return fmt.Sprintf("%s  %s bpm  %-7s %s  %s  cpu %3.0f%%",
		titleStyle.Render("Cypher"),
		fmtBPM(m.controller.SampleRate, t.Len()),
		title.String(state), pos,
		strings.Join(flags, " "),
		m.shared.CPULoad.Load()*100)
}

func (m *Model) tracksView() string {
	strips := m.shared.Mixer.Strips.Load()
	var b strings.Builder
	for i := range looper.NumLoopers {
		l := m.shared.Loopers[i]
		st := l.State()
		label := lipgloss.NewStyle().Foreground(stateColors[st]).Width(12).Render(title.String(st.String()))
		flags := ""
		if strips.Tracks[i].Muted {
			flags += "M"
		} else {
			flags += " "
		}
		if strips.Tracks[i].Soloed {
			flags += "S"
		} else {
			flags += " "
		}
		if l.Pending() {
			flags += "*"
		} else {
			flags += " "
		}
		cycles := ""
		if l.Len() > 0 {
			cycles = fmt.Sprintf("x%d", l.Cycles())
		}
		line := fmt.Sprintf("%2d %s %s %s vol %4.2f %s",
			i+1, label, bar(float32(m.tracks[i]), meterWidth), flags, strips.Tracks[i].Volume, cycles)
		if i == m.selected {
			line = selStyle.Render(line)
		}
		b.WriteString(line)
		if i < looper.NumLoopers-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) busView() string {
	mx := m.shared.Mixer
	lim := mx.Limiter.Load()
	limiter := "off"
	if lim.Active {
		limiter = fmt.Sprintf("thr %.2f %s  gr %4.1f dB", lim.Threshold, lim.Mode, mx.GainReduction.Load())
	}
	rows := []string{
		fmt.Sprintf("master  %s %4.2f", bar(float32(m.master), meterWidth), mx.Master.Load()),
		fmt.Sprintf("synth   %s %4.2f", bar(float32(m.synth), meterWidth), m.shared.SynthVolume.Load()),
		fmt.Sprintf("sampler %s %4.2f", bar(float32(m.sampler), meterWidth), m.shared.SamplerVolume.Load()),
		fmt.Sprintf("input   %s", bar(float32(m.input), meterWidth)),
		"limiter " + limiter,
	}
	return strings.Join(rows, "\n")
}

// padsView lights pads that played recently or are still sounding.
func (m *Model) padsView() string {
	playing := uint32(0)
	if m.shared.PlayingPads != nil {
		playing = m.shared.PlayingPads.Load()
	}
	var b strings.Builder
	b.WriteString("pads ")
	for i := range m.pads {
		lit := playing&(1<<i) != 0 || (!m.pads[i].IsZero() && m.now.Sub(m.pads[i]) < FrameTime*4)
		if lit {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("■"))
		} else {
			b.WriteString(dimStyle.Render("□"))
		}
	}
	return b.String()
}

const help = `1-0 - = press looper 1-12   shift clears   enter press selected   t stop/resume selected
up/down select   left/right volume   m mute   o solo   M mute all   [ ] master
space play/pause   s stop   c clear all   C clear and play   d double   h halve tempo
y synth   p pads   a arm input   i monitor   l limiter   k metronome   r record   w save session`
