//go:build cgo

package gomidi

import (
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// RTMIDIContext reads one rtmidi input port into a Mapper.
type RTMIDIContext struct {
	driver *rtmididrv.Driver
	mapper *Mapper

	mu   sync.Mutex
	in   drivers.In
	stop func()
}

// NewContext opens the driver. A missing driver leaves the context usable
// with no inputs.
func NewContext(m *Mapper) *RTMIDIContext {
	c := &RTMIDIContext{mapper: m}
	c.driver, _ = rtmididrv.New()
	return c
}

func (c *RTMIDIContext) Support() Support {
	if c.driver == nil {
		return NoDriver
	}
	return Supported
}

func (c *RTMIDIContext) Inputs(yield func(string) bool) {
	if c.driver == nil {
		return
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(in.String()) {
			return
		}
	}
}

// Open opens the named input, closing the one currently open.
func (c *RTMIDIContext) Open(name string) error {
	if c.driver == nil {
		return errNoDriver
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return fault.Wrap(err, fmsg.With("cannot list midi inputs"), ftag.With(ftag.Internal))
	}
	for _, in := range ins {
		if in.String() != name {
			continue
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closeInput()
		if err := in.Open(); err != nil {
			return fault.Wrap(err, fmsg.WithDesc("opening midi input failed", "Could not open "+name), ftag.With(ftag.Internal))
		}
		stop, err := midi.ListenTo(in, c.handle)
		if err != nil {
			in.Close()
			return fault.Wrap(err, fmsg.With("cannot listen to midi input"), ftag.With(ftag.Internal))
		}
		c.in, c.stop = in, stop
		return nil
	}
	return fault.New("midi input not found",
		fmsg.WithDesc("midi input not found", "No MIDI input named "+name),
		ftag.With(ftag.NotFound))
}

func (c *RTMIDIContext) handle(msg midi.Message, timestampms int32) {
	c.mapper.Handle(msg, time.Now())
}

func (c *RTMIDIContext) closeInput() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.in != nil && c.in.IsOpen() {
		c.in.Close()
	}
	c.in = nil
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.mu.Lock()
	c.closeInput()
	c.mu.Unlock()
	c.driver.Close()
}
