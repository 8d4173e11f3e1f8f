//go:build cgo

package cmd

import "github.com/cypher-audio/cypher/gomidi"

func NewMidiInput(m *gomidi.Mapper) gomidi.Input {
	return gomidi.NewContext(m)
}
