//go:build cgo

package malgo

import (
	"encoding/binary"
	"log"
	"math"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gen2brain/malgo"
)

// Capture records mono float32 input from the default capture device into
// a Ring. Use it as the cypher.InputSource of the output device.
type Capture struct {
	*Ring
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
	samples   []float32
	closeOnce sync.Once
}

// RingBuffers is the ring size in engine buffers. Input that the engine
// does not drain in time is dropped once the ring is full.
const RingBuffers = 8

// NewCapture opens and starts the default capture device at sampleRate,
// delivering frames frames per period.
func NewCapture(sampleRate, frames int, logger *log.Logger) (*Capture, error) {
	if logger == nil {
		logger = log.Default()
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		logger.Printf("malgo: %s", msg)
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("cannot init audio context", "No audio input is available"), ftag.With(ftag.NotFound))
	}
	c := &Capture{
		Ring:    NewRing(RingBuffers * frames),
		ctx:     ctx,
		samples: make([]float32, frames),
	}
	conf := malgo.DefaultDeviceConfig(malgo.Capture)
	conf.Capture.Format = malgo.FormatF32
	conf.Capture.Channels = 1 // the device downmixes
	conf.SampleRate = uint32(sampleRate)
	conf.PeriodSizeInFrames = uint32(frames)
	conf.Alsa.NoMMap = 1
	c.device, err = malgo.InitDevice(ctx.Context, conf, malgo.DeviceCallbacks{Data: c.receive})
	if err != nil {
		c.freeContext()
		return nil, fault.Wrap(err, fmsg.WithDesc("cannot open capture device", "The audio input could not be opened"), ftag.With(ftag.NotFound))
	}
	if err := c.device.Start(); err != nil {
		c.device.Uninit()
		c.freeContext()
		return nil, fault.Wrap(err, fmsg.WithDesc("cannot start capture device", "The audio input could not be started"), ftag.With(ftag.Internal))
	}
	return c, nil
}

func (c *Capture) receive(_, input []byte, frames uint32) {
	n := min(int(frames), len(input)/4)
	if cap(c.samples) < n {
		c.samples = make([]float32, n)
	}
	s := c.samples[:n]
	for i := range s {
		s[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[4*i:]))
	}
	c.Write(s)
}

func (c *Capture) freeContext() {
	if err := c.ctx.Uninit(); err != nil {
		log.Printf("malgo: %v", err)
	}
	c.ctx.Free()
}

// Close stops the device and releases it.
func (c *Capture) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if e := c.device.Stop(); e != nil {
			err = fault.Wrap(e, fmsg.With("cannot stop capture device"), ftag.With(ftag.Internal))
		}
		c.device.Uninit()
		c.freeContext()
	})
	return err
}
