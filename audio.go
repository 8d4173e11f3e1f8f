package cypher

import "io"

type (
	// AudioBuffer is a buffer of mono audio, one float per frame. Host
	// backends fan it out to as many hardware channels as they need.
	AudioBuffer []float32

	// AudioProcessor is the real-time side of the engine. Once per hardware
	// buffer the backend calls HandleCommands and then Process; both must
	// return without blocking.
	AudioProcessor interface {
		HandleCommands()
		Process(in, out AudioBuffer)
	}

	// AudioContext is an output device that pulls audio from an
	// AudioProcessor. Play starts pulling and returns a closer that stops it.
	AudioContext interface {
		Play(p AudioProcessor, in InputSource) io.Closer
		SampleRate() int
		Close() error
	}

	// InputSource fills a buffer with live input (e.g. a microphone). It is
	// called on the audio goroutine and must not block.
	InputSource interface {
		ReadInput(buf AudioBuffer)
	}

	// SilentInput is an InputSource producing silence.
	SilentInput struct{}
)

func (SilentInput) ReadInput(buf AudioBuffer) {
	clear(buf)
}

// Peak returns the largest absolute sample value in the buffer.
func (b AudioBuffer) Peak() float32 {
	var p float32
	for _, v := range b {
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}

func clamp[T ~int | ~float32 | ~float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
