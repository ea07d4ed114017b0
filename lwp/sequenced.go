package lwp

import "github.com/lwar/lwar"

// A SequencedMessage pairs a message with its assigned sequence number.
// Reliable and unreliable messages draw from independent counters.
type SequencedMessage struct {
	Message        lwar.Message
	SequenceNumber uint32
}

// A BatchedMessage accumulates not-yet-sent unreliable, batch-eligible
// messages of one type in enqueue order.
type BatchedMessage struct {
	Type     lwar.MessageType
	Messages []lwar.Message
}

// Add appends m to the batch.
func (b *BatchedMessage) Add(m lwar.Message) {
	if m.Type() != b.Type {
		panic("lwp: BatchedMessage: message type mismatch")
	}
	b.Messages = append(b.Messages, m)
}

// Clear discards the accumulated messages, keeping the backing array for
// the next tick.
func (b *BatchedMessage) Clear() {
	b.Messages = b.Messages[:0]
}
