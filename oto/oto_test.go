package oto_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/oto"
)

type counter struct {
	commands, buffers int
	last              int
}

func (c *counter) HandleCommands() { c.commands++ }

func (c *counter) Process(in, out cypher.AudioBuffer) {
	c.buffers++
	c.last = len(out)
	for i := range out {
		out[i] = 0.25
	}
}

func TestFloatBufferToFloat32LE(t *testing.T) {
	dst := make([]byte, 16)
	if n := oto.FloatBufferToFloat32LE([]float32{0.5, -1}, 2, dst); n != 16 {
		t.Fatalf("wrote %v bytes, expected 16", n)
	}
	for i, want := range []float32{0.5, 0.5, -1, -1} {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(dst[i*4:])); got != want {
			t.Fatalf("sample %v was %v, expected %v", i, got, want)
		}
	}
}

func TestOutputReadSplitsIntoBuffers(t *testing.T) {
	c := &counter{}
	o := oto.NewOutput(c, nil, 2, 64)
	buf := make([]byte, 100*2*4+3)
	n, err := o.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 800 {
		t.Fatalf("read %v bytes, expected 800", n)
	}
	if c.buffers != 2 || c.commands != 2 || c.last != 36 {
		t.Fatalf("processed %v buffers, last of %v frames", c.buffers, c.last)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[796:])); got != 0.25 {
		t.Fatalf("last sample was %v", got)
	}
}
