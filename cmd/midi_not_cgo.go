//go:build !cgo

package cmd

import "github.com/cypher-audio/cypher/gomidi"

func NewMidiInput(m *gomidi.Mapper) gomidi.Input {
	// with no cgo, we cannot use MIDI, so return a null input
	return gomidi.NullInput{}
}
