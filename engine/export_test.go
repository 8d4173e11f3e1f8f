package engine

// Deliver puts a command straight into the audio queue, bypassing the
// forwarder.
func (b *Broker) Deliver(c Command) { b.queue <- c }

// Queue exposes the audio queue for reading.
func (b *Broker) Queue() <-chan Command { return b.queue }
