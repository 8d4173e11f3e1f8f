// Package session stores loops on disk and reads them back, and writes the
// output recordings. It works on its own goroutine with data handed over by
// the engine.
package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/engine"
	"github.com/cypher-audio/cypher/looper"
	"github.com/cypher-audio/cypher/mixer"
	"github.com/cypher-audio/cypher/samples"
	"gopkg.in/yaml.v3"
)

const (
	ManifestName    = "session.yml"
	manifestVersion = 1
)

type (
	// Manifest describes a saved session. Loop audio lives next to it as
	// loop_{track}.wav.
	Manifest struct {
		Version      int          `yaml:"version"`
		SampleRate   int          `yaml:"samplerate"`
		TransportLen int          `yaml:"transportlen"`
		Loops        []LoopEntry  `yaml:"loops"`
		Mixer        *mixer.State `yaml:"mixer,omitempty"`
	}

	LoopEntry struct {
		Track  int    `yaml:"track"`
		File   string `yaml:"file"`
		Cycles uint32 `yaml:"cycles"`
	}
)

func LoopFile(track int) string { return fmt.Sprintf("loop_%d.wav", track) }

// Save writes every non-empty loop of the job as a mono 16-bit wav plus the
// manifest. It returns the number of loops written.
func Save(job engine.SessionJob) (int, error) {
	if err := os.MkdirAll(job.Dir, 0755); err != nil {
		return 0, fault.Wrap(err, fmsg.With("cannot create session directory"), ftag.With(ftag.Internal))
	}
	m := Manifest{
		Version:      manifestVersion,
		SampleRate:   job.SampleRate,
		TransportLen: job.TransportLen,
		Mixer:        &job.Mixer,
	}
	for i, l := range job.Loops {
		if len(l.Data) == 0 {
			continue
		}
		name := LoopFile(i)
		if err := cypher.WriteWavFile(filepath.Join(job.Dir, name), l.Data, job.SampleRate, 1); err != nil {
			return len(m.Loops), fault.Wrap(err, fmsg.With(name))
		}
		m.Loops = append(m.Loops, LoopEntry{Track: i, File: name, Cycles: l.Cycles})
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return len(m.Loops), fault.Wrap(err, fmsg.With("cannot marshal manifest"), ftag.With(ftag.Internal))
	}
	if err := os.WriteFile(filepath.Join(job.Dir, ManifestName), b, 0644); err != nil {
		return len(m.Loops), fault.Wrap(err, fmsg.With("cannot write manifest"), ftag.With(ftag.Internal))
	}
	return len(m.Loops), nil
}

// ReadManifest reads the manifest of a session directory. Directories
// without one, holding only loop files, get a manifest built from the files
// present.
func ReadManifest(dir string) (Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if os.IsNotExist(err) {
		return scan(dir)
	}
	if err != nil {
		return Manifest{}, fault.Wrap(err, fmsg.With("cannot read manifest"), ftag.With(ftag.Internal))
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, fault.Wrap(err,
			fmsg.WithDesc("cannot parse manifest", "The session file is damaged"),
			ftag.With(ftag.InvalidArgument))
	}
	return m, nil
}

func scan(dir string) (Manifest, error) {
	if _, err := os.Stat(dir); err != nil {
		return Manifest{}, fault.Wrap(err, fmsg.With("session not found"), ftag.With(ftag.NotFound))
	}
	m := Manifest{Version: manifestVersion}
	for i := range looper.NumLoopers {
		if _, err := os.Stat(filepath.Join(dir, LoopFile(i))); err == nil {
			m.Loops = append(m.Loops, LoopEntry{Track: i, File: LoopFile(i), Cycles: 1})
		}
	}
	if len(m.Loops) == 0 {
		return Manifest{}, fault.New("no loops in session",
			fmsg.WithDesc("no loop files", "The folder holds no loops"),
			ftag.With(ftag.NotFound))
	}
	return m, nil
}

// Load decodes a session for an engine running at sampleRate and returns
// the commands that install it. The commands clear the engine first.
func Load(dir string, sampleRate int) ([]engine.Command, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	cmds := []engine.Command{engine.ClearAllAndPlay{}}
	if m.Mixer != nil {
		cmds = append(cmds, engine.SetMixerState{State: *m.Mixer})
	}
	transportLen := 0
	if m.SampleRate > 0 && m.TransportLen > 0 {
		transportLen = int(int64(m.TransportLen) * int64(sampleRate) / int64(m.SampleRate))
	}
	var loops []engine.Command
	for _, l := range m.Loops {
		if l.Track < 0 || l.Track >= looper.NumLoopers {
			continue
		}
		data, rate, err := cypher.ReadWavFile(filepath.Join(dir, filepath.Base(l.File)))
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With(l.File))
		}
		data = samples.Resample(data, rate, sampleRate)
		if transportLen == 0 {
			transportLen = len(data) / int(max(l.Cycles, 1))
		}
		loops = append(loops, engine.LoadLoopAudio{Track: l.Track, Data: data})
	}
	cmds = append(cmds, engine.SetTransportLen{Len: transportLen})
	return append(cmds, loops...), nil
}

// WriteRecording trims the silence from an output recording and writes it
// as a stereo 16-bit wav. ok is false when nothing but silence was
// recorded; no file is written then.
func WriteRecording(path string, job engine.RecordingJob) (ok bool, err error) {
	data := cypher.TrimSilence(job.Data)
	if len(data) == 0 {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fault.Wrap(err, fmsg.With("cannot create recordings directory"), ftag.With(ftag.Internal))
	}
	if err := cypher.WriteWavFile(path, data, job.SampleRate, 2); err != nil {
		return false, err
	}
	return true, nil
}
