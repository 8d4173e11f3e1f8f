package engine

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/cypher-audio/cypher/mixer"
)

type (
	// Broker connects the control surfaces, the audio goroutine and the
	// file worker. Control surfaces send commands to ToEngine, where a
	// forwarder goroutine moves them into a bounded queue that the audio
	// goroutine drains at the start of every buffer. When the queue is full
	// the forwarder drops the command and logs it; senders never wait for
	// the audio goroutine.
	//
	// The audio goroutine sends to ToUI and ToWorker with TrySend only.
	//
	// For closing the forwarder, CloseForwarder has a capacity of 1, so an
	// empty struct can always be sent to it without blocking.
	// FinishedForwarder is closed once the forwarder has returned:
	//    select {
	//      case <-FinishedForwarder:
	//      case <-time.After(3 * time.Second):
	//    }
	Broker struct {
		ToEngine chan Command
		ToUI     chan any // Alert, PadEvent
		ToWorker chan any // RecordingJob, SessionJob

		CloseForwarder    chan struct{}
		FinishedForwarder chan struct{}

		queue   chan Command
		dropped atomic.Uint64
	}

	// Alert is a message for the user, shown by whichever control surface
	// is running.
	Alert struct {
		Priority AlertPriority
		Message  string
		Duration time.Duration
	}

	AlertPriority int

	// PadEvent tells the UI that a pad was triggered.
	PadEvent struct{ Pad int }
)

const (
	None AlertPriority = iota
	Info
	Warning
	Error
)

// DefaultQueueSize is the capacity of the command queue.
const DefaultQueueSize = 1024

func NewBroker(queueSize int) *Broker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Broker{
		ToEngine:          make(chan Command, 64),
		ToUI:              make(chan any, 1024),
		ToWorker:          make(chan any, 64),
		CloseForwarder:    make(chan struct{}, 1),
		FinishedForwarder: make(chan struct{}),
		queue:             make(chan Command, queueSize),
	}
}

// Send queues a command for the audio goroutine.
func (b *Broker) Send(c Command) {
	b.ToEngine <- c
}

// Dropped returns the number of commands dropped because the queue was full.
func (b *Broker) Dropped() uint64 { return b.dropped.Load() }

// RunForwarder moves commands from ToEngine to the audio queue until
// CloseForwarder receives. Mixer settings are applied to m right here and
// only the rest is queued; see ApplyMixer.
func (b *Broker) RunForwarder(m *mixer.Mixer, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	defer close(b.FinishedForwarder)
	for {
		select {
		case <-b.CloseForwarder:
			return
		case c := <-b.ToEngine:
			if !ApplyMixer(m, c) {
				continue
			}
			if !TrySend(b.queue, c) {
				n := b.dropped.Add(1)
				logger.Printf("engine: command queue full, dropped %T (%d dropped in total)", c, n)
			}
		}
	}
}

// Close stops the forwarder and waits for it for at most a second.
func (b *Broker) Close() {
	TrySend(b.CloseForwarder, struct{}{})
	TimeoutReceive(b.FinishedForwarder, time.Second)
}

// TrySend sends v on c unless c is full, and reports whether it did. It
// never blocks, which makes it safe on the audio goroutine.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
		return true
	default:
		return false
	}
}

// TimeoutReceive waits at most t for a value from c. ok is false on timeout
// and when c is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	timer := time.NewTimer(t)
	defer timer.Stop()
	select {
	case v, ok = <-c:
	case <-timer.C:
	}
	return v, ok
}
