//go:build cgo

package cmd

import (
	"io"
	"log"

	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/malgo"
)

func NewAudioInput(sampleRate, frames int, logger *log.Logger) (cypher.InputSource, io.Closer, error) {
	c, err := malgo.NewCapture(sampleRate, frames, logger)
	if err != nil {
		return cypher.SilentInput{}, io.NopCloser(nil), err
	}
	return c, c, nil
}
