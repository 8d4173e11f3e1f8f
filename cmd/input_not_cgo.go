//go:build !cgo

package cmd

import (
	"errors"
	"io"
	"log"

	"github.com/cypher-audio/cypher"
)

func NewAudioInput(sampleRate, frames int, logger *log.Logger) (cypher.InputSource, io.Closer, error) {
	// capture needs cgo, so the loops record silence
	return cypher.SilentInput{}, io.NopCloser(nil), errors.New("audio input needs cgo")
}
