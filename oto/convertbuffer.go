package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToFloat32LE writes mono samples as little-endian float32 frames
// of the given channel count, every channel carrying the same sample. dst
// must hold at least len(mono)*channels*4 bytes. Returns the bytes written.
func FloatBufferToFloat32LE(mono []float32, channels int, dst []byte) int {
	n := 0
	for _, v := range mono {
		bits := math.Float32bits(v)
		for range channels {
			binary.LittleEndian.PutUint32(dst[n:], bits)
			n += 4
		}
	}
	return n
}
