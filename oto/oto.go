// Package oto plays the engine through the default output device.
package oto

import (
	"io"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/cypher-audio/cypher"
	"github.com/ebitengine/oto/v3"
)

type (
	// Context is an output device. Only one can exist per process.
	Context struct {
		ctx          *oto.Context
		sampleRate   int
		channels     int
		bufferFrames int
	}

	// Output pulls audio from a processor. The device calls Read on its own
	// goroutine, which becomes the audio goroutine of the engine.
	Output struct {
		player    *oto.Player
		processor cypher.AudioProcessor
		input     cypher.InputSource
		channels  int
		frames    int
		in, out   cypher.AudioBuffer
		closeOnce sync.Once
	}
)

const bytesPerSample = 4

// NewContext opens the output device. bufferFrames is the size of one
// engine buffer; the device buffer is a few of those.
func NewContext(sampleRate, channels, bufferFrames int) (*Context, error) {
	if bufferFrames <= 0 {
		bufferFrames = 256
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(2*bufferFrames) * time.Second / time.Duration(sampleRate),
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("cannot create oto context", "The audio device could not be opened"),
			ftag.With(ftag.NotFound))
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate, channels: channels, bufferFrames: bufferFrames}, nil
}

func (c *Context) SampleRate() int { return c.sampleRate }

// Play starts pulling audio from p. in may be nil for no live input.
func (c *Context) Play(p cypher.AudioProcessor, in cypher.InputSource) io.Closer {
	o := NewOutput(p, in, c.channels, c.bufferFrames)
	o.player = c.ctx.NewPlayer(o)
	o.player.SetBufferSize(2 * c.bufferFrames * c.channels * bytesPerSample)
	o.player.Play()
	return o
}

// Close suspends the device; oto contexts cannot be destroyed.
func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fault.Wrap(err, fmsg.With("cannot suspend oto context"), ftag.With(ftag.Internal))
	}
	return nil
}

// NewOutput returns a reader producing float32 LE frames from p, processing
// at most frames frames per engine buffer.
func NewOutput(p cypher.AudioProcessor, in cypher.InputSource, channels, frames int) *Output {
	if in == nil {
		in = cypher.SilentInput{}
	}
	return &Output{
		processor: p,
		input:     in,
		channels:  channels,
		frames:    frames,
		in:        make(cypher.AudioBuffer, frames),
		out:       make(cypher.AudioBuffer, frames),
	}
}

// Read implements io.Reader. Partial frames at the end of buf are not
// filled.
func (o *Output) Read(buf []byte) (int, error) {
	frameBytes := o.channels * bytesPerSample
	total := len(buf) / frameBytes
	n := 0
	for done := 0; done < total; {
		frames := min(total-done, o.frames)
		in, out := o.in[:frames], o.out[:frames]
		o.input.ReadInput(in)
		o.processor.HandleCommands()
		o.processor.Process(in, out)
		n += FloatBufferToFloat32LE(out, o.channels, buf[n:])
		done += frames
	}
	return n, nil
}

func (o *Output) Close() error {
	var err error
	o.closeOnce.Do(func() {
		if o.player == nil {
			return
		}
		o.player.Pause()
		if e := o.player.Close(); e != nil {
			err = fault.Wrap(e, fmsg.With("cannot close oto player"), ftag.With(ftag.Internal))
		}
	})
	return err
}
