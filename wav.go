package cypher

import (
	"io"
	"math"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/viterin/vek/vek32"
)

const (
	// SilenceThreshold is the block RMS below which TrimSilence considers a
	// block silent.
	SilenceThreshold = 0.005
	silenceBlockSize = 512
	requiredBlocks   = 3
)

// WriteWav encodes mono audio as a 16-bit PCM wav. Every sample is written to
// all numChannels channels, so numChannels = 2 gives a stereo file with
// identical left and right channels.
func WriteWav(w io.WriteSeeker, data []float32, sampleRate, numChannels int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, numChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           make([]int, len(data)*numChannels),
		SourceBitDepth: 16,
	}
	for i, v := range data {
		s := int(clamp(v, -1, 1) * math.MaxInt16)
		for c := 0; c < numChannels; c++ {
			buf.Data[i*numChannels+c] = s
		}
	}
	if err := enc.Write(buf); err != nil {
		return fault.Wrap(err, fmsg.With("wav encode failed"), ftag.With(ftag.Internal))
	}
	if err := enc.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("wav finalize failed"), ftag.With(ftag.Internal))
	}
	return nil
}

// WriteWavFile creates path and writes the audio to it with WriteWav.
func WriteWavFile(path string, data []float32, sampleRate, numChannels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fault.Wrap(err, fmsg.With("cannot create wav file"), ftag.With(ftag.Internal))
	}
	if err := WriteWav(f, data, sampleRate, numChannels); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("cannot close wav file"), ftag.With(ftag.Internal))
	}
	return nil
}

// ReadWav decodes a mono PCM wav into floats in [-1, 1]. Files with more than
// one channel are rejected; use the samples package for general purpose
// decoding.
func ReadWav(r io.ReadSeeker) (data []float32, sampleRate int, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fault.New("not a valid wav file", ftag.With(ftag.InvalidArgument))
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fault.Wrap(err, fmsg.With("wav decode failed"), ftag.With(ftag.Internal))
	}
	if buf.Format.NumChannels != 1 {
		return nil, 0, fault.New("expected a mono wav file",
			fmsg.WithDesc("wav has more than one channel", "Loop files must be mono"),
			ftag.With(ftag.InvalidArgument))
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		return nil, 0, fault.New("unknown wav bit depth", ftag.With(ftag.InvalidArgument))
	}
	factor := float32(math.Pow(2, float64(bitDepth-1)) - 1)
	data = make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = float32(v) / factor
	}
	return data, buf.Format.SampleRate, nil
}

func ReadWavFile(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fault.Wrap(err, fmsg.With("cannot open wav file"), ftag.With(ftag.NotFound))
	}
	defer f.Close()
	return ReadWav(f)
}

// TrimSilence removes leading and trailing near-silence. The audio is scanned
// in blocks of 512 samples; onset (and offset, scanning backwards) is
// confirmed by three consecutive blocks whose RMS exceeds SilenceThreshold. An
// all-silent input yields an empty slice. The result aliases data.
func TrimSilence(data []float32) []float32 {
	numBlocks := len(data) / silenceBlockSize
	loud := func(i int) bool {
		block := data[i*silenceBlockSize : (i+1)*silenceBlockSize]
		rms := math.Sqrt(float64(vek32.Dot(block, block)) / silenceBlockSize)
		return rms > SilenceThreshold
	}
	start, run := -1, 0
	for i := 0; i < numBlocks; i++ {
		if !loud(i) {
			run = 0
			continue
		}
		if run++; run >= requiredBlocks {
			start = i - (requiredBlocks - 1)
			break
		}
	}
	if start < 0 {
		return data[:0]
	}
	end, run := numBlocks, 0
	for i := numBlocks - 1; i >= 0; i-- {
		if !loud(i) {
			run = 0
			continue
		}
		if run++; run >= requiredBlocks {
			end = i + requiredBlocks
			break
		}
	}
	startPos, endPos := start*silenceBlockSize, end*silenceBlockSize
	if startPos >= endPos {
		return data[:0]
	}
	return data[startPos:endPos]
}
