package gomidi

import "strings"

type (
	// Input is a set of MIDI input ports of which one can be open.
	Input interface {
		Inputs(yield func(name string) bool)
		Open(name string) error
		Close()
		Support() Support
	}

	Support int

	// NullInput is used when MIDI support is not compiled in.
	NullInput struct{}
)

const (
	NotCompiled Support = iota
	NoDriver
	Supported
)

func (NullInput) Inputs(yield func(string) bool) {}
func (NullInput) Open(string) error               { return errNotCompiled }
func (NullInput) Close()                          {}
func (NullInput) Support() Support                { return NotCompiled }

// FindByPrefix returns the first input whose name starts with prefix. An
// empty prefix matches the first input.
func FindByPrefix(in Input, prefix string) (name string, ok bool) {
	for n := range in.Inputs {
		if strings.HasPrefix(n, prefix) {
			return n, true
		}
	}
	return "", false
}
