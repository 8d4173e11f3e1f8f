// Package samples decodes audio files for the engine. Everything it returns
// is mono float32 at the requested sample rate, ready to be sent in a load
// command; decoding never happens on the audio goroutine.
package samples

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/cypher-audio/cypher/synth"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ResampleQuality is the beep resampler quality used for rate conversion.
const ResampleQuality = 4

// Decode reads a WAV stream with any number of channels, mixes it down to
// mono and converts it to rate.
func Decode(r io.Reader, rate int) ([]float32, error) {
	s, format, err := wav.Decode(r)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("wav decode failed", "The file is not a supported WAV file"),
			ftag.With(ftag.InvalidArgument))
	}
	defer s.Close()
	var src beep.Streamer = s
	if int(format.SampleRate) != rate {
		src = beep.Resample(ResampleQuality, format.SampleRate, beep.SampleRate(rate), s)
	}
	data := collect(src, s.Len())
	if err := s.Err(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("wav stream failed"), ftag.With(ftag.Internal))
	}
	return data, nil
}

func Load(path string, rate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("cannot open sample"), ftag.With(ftag.NotFound))
	}
	defer f.Close()
	data, err := Decode(f, rate)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(filepath.Base(path)))
	}
	return data, nil
}

// LoadWavetable reads a single cycle waveform. The table is named after the
// file: "bright_saw.wav" becomes "Bright Saw".
func LoadWavetable(path string) (synth.Wavetable, error) {
	f, err := os.Open(path)
	if err != nil {
		return synth.Wavetable{}, fault.Wrap(err, fmsg.With("cannot open wavetable"), ftag.With(ftag.NotFound))
	}
	defer f.Close()
	s, _, err := wav.Decode(f)
	if err != nil {
		return synth.Wavetable{}, fault.Wrap(err,
			fmsg.WithDesc("wav decode failed", "The wavetable is not a supported WAV file"),
			ftag.With(ftag.InvalidArgument))
	}
	defer s.Close()
	cycle := collect(s, s.Len())
	if len(cycle) == 0 {
		return synth.Wavetable{}, fault.New("empty wavetable", ftag.With(ftag.InvalidArgument))
	}
	return synth.NewWavetable(TableName(path), cycle), nil
}

var title = cases.Title(language.English)

func TableName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return title.String(strings.Join(strings.Fields(name), " "))
}

// Resample converts mono audio from one rate to another.
func Resample(data []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(data) == 0 {
		return data
	}
	r := beep.Resample(ResampleQuality, beep.SampleRate(from), beep.SampleRate(to), &mono{data: data})
	return collect(r, len(data)*to/from+1)
}

// mono streams a float32 slice as a beep.Streamer.
type mono struct {
	data []float32
	pos  int
}

func (m *mono) Stream(samples [][2]float64) (int, bool) {
	if m.pos >= len(m.data) {
		return 0, false
	}
	n := min(len(samples), len(m.data)-m.pos)
	for i := range n {
		v := float64(m.data[m.pos+i])
		samples[i] = [2]float64{v, v}
	}
	m.pos += n
	return n, true
}

func (m *mono) Err() error { return nil }

func collect(s beep.Streamer, sizeHint int) []float32 {
	ret := make([]float32, 0, max(sizeHint, 0))
	var buf [512][2]float64
	for {
		n, ok := s.Stream(buf[:])
		for _, v := range buf[:n] {
			ret = append(ret, float32((v[0]+v[1])/2))
		}
		if !ok {
			return ret
		}
	}
}
