// Package config loads the settings of the cypher command. The defaults are
// embedded; a config.yml in the user config directory overrides any of them.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/cypher-audio/cypher/looper"
	"github.com/cypher-audio/cypher/mixer"
	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		SampleRate          int  `yaml:"samplerate"`
		BufferSize          int  `yaml:"buffersize"` // frames
		Channels            int  `yaml:"channels"`
		BPMRounding         bool `yaml:"bpmrounding"`
		MaxRecordingSeconds int  `yaml:"maxrecordingseconds"`
		QueueSize           int  `yaml:"queuesize"`
		Midi                Midi
		OSC                 OSC
		Files               Files
		Mixer               Mixer
	}

	Midi struct {
		Channel int    // 0-15
		Prefix  string // first input whose name starts with this is opened
		// LooperCCs maps a controller number to each looper. A press toggles
		// the looper, holding for LongPressMs clears it.
		LooperCCs   []int `yaml:"looperccs"`
		LongPressMs int   `yaml:"longpressms"`
	}

	OSC struct {
		Address string // empty disables the server
	}

	Files struct {
		Dir       string // recordings and sessions; defaults to the working directory
		Recording string // text/template with sprig functions
		Session   string
	}

	Mixer struct {
		Master    float32
		Metronome mixer.MetronomeTrack
		Limiter   mixer.LimiterSettings
	}
)

const FileName = "config.yml"

//go:embed config.yml
var defaultConfigYaml []byte

// Default returns the embedded configuration.
func Default() Config {
	var c Config
	if err := yaml.UnmarshalStrict(defaultConfigYaml, &c); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return c
}

// Path is where the user configuration lives.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("no user config directory"), ftag.With(ftag.NotFound))
	}
	return filepath.Join(dir, "cypher", FileName), nil
}

// Load returns the defaults overridden by the user configuration. A missing
// user file is not an error.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile returns the defaults overridden by the file at path.
func LoadFile(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, fault.Wrap(err, fmsg.With("cannot read config"), ftag.With(ftag.Internal))
	}
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Default(), fault.Wrap(err,
			fmsg.WithDesc("bad config", fmt.Sprintf("%s is not valid", path)),
			ftag.With(ftag.InvalidArgument))
	}
	return c, c.Validate()
}

// Validate reports settings the engine cannot run with.
func (c Config) Validate() error {
	bad := func(msg string) error {
		return fault.New(msg, fmsg.WithDesc(msg, "Invalid configuration: "+msg), ftag.With(ftag.InvalidArgument))
	}
	switch {
	case c.SampleRate < 8000 || c.SampleRate > 192000:
		return bad(fmt.Sprintf("sample rate %d out of range", c.SampleRate))
	case c.BufferSize <= 0:
		return bad("buffer size must be positive")
	case c.Channels < 1 || c.Channels > 2:
		return bad("channels must be 1 or 2")
	case c.Midi.Channel < 0 || c.Midi.Channel > 15:
		return bad("midi channel must be between 0 and 15")
	case len(c.Midi.LooperCCs) > looper.NumLoopers:
		return bad(fmt.Sprintf("at most %d looper ccs", looper.NumLoopers))
	case c.MaxRecordingSeconds < 0 || c.QueueSize < 0:
		return bad("negative sizes are not allowed")
	}
	return nil
}

// BufferDuration is the length of one hardware buffer.
func (c Config) BufferDuration() time.Duration {
	return time.Duration(c.BufferSize) * time.Second / time.Duration(c.SampleRate)
}

func (c Config) LongPress() time.Duration {
	return time.Duration(c.Midi.LongPressMs) * time.Millisecond
}

// MixerState is the default mixer with the configured master bus.
func (c Config) MixerState() mixer.State {
	s := mixer.DefaultState()
	s.Master = c.Mixer.Master
	s.Metronome = c.Mixer.Metronome
	s.Limiter = c.Mixer.Limiter
	return s
}
