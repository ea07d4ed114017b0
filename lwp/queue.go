package lwp

import (
	"fmt"

	"github.com/lwar/lwar"
)

// A MessageQueue holds a connection's outgoing messages. Enqueued messages
// are split into reliable, unreliable and batchable-unreliable groups;
// reliable messages stay queued, and are resent every tick, until the peer
// acknowledges them.
type MessageQueue struct {
	delivery *DeliveryManager

	reliable   []SequencedMessage
	unreliable []SequencedMessage
	batched    []*BatchedMessage
}

// NewMessageQueue returns an empty queue assigning sequence numbers from
// delivery.
func NewMessageQueue(delivery *DeliveryManager) *MessageQueue {
	return &MessageQueue{delivery: delivery}
}

// Enqueue takes ownership of m and classifies it by its type's
// transmission. Batched transmission is unreliable-only.
func (q *MessageQueue) Enqueue(m lwar.Message) {
	t := m.Type()

	switch {
	case t.IsReliable():
		if t.IsBatched() {
			panic(fmt.Sprintf("lwp: message type %v is both reliable and batched", t))
		}
		q.reliable = append(q.reliable, q.delivery.AssignReliableSequenceNumber(m))
	case t.IsBatched():
		q.batchOf(t).Add(m)
	default:
		q.unreliable = append(q.unreliable, q.delivery.AssignUnreliableSequenceNumber(m))
	}
}

// batchOf finds the batch accumulating type t, creating it on first use.
// Linear scan: the number of batch-eligible types is tiny.
func (q *MessageQueue) batchOf(t lwar.MessageType) *BatchedMessage {
	for _, b := range q.batched {
		if b.Type == t {
			return b
		}
	}

	b := &BatchedMessage{Type: t}
	q.batched = append(q.batched, b)
	return b
}

// removeAckedMessages retires acknowledged reliable messages. Reliable
// seqnums are assigned in increasing order and acked in order, so
// acknowledgement is a prefix property: scanning stops at the first
// unacknowledged entry.
func (q *MessageQueue) removeAckedMessages() {
	n := 0
	for n < len(q.reliable) && q.delivery.IsAcknowledged(q.reliable[n]) {
		q.reliable[n].Message = nil
		n++
	}
	q.reliable = append(q.reliable[:0], q.reliable[n:]...)
}

// SendMessages hands all pending messages to pa and flushes the final
// packet. Reliable messages go first: they carry state that must land.
// Unreliable messages are discarded afterwards, sent or not; unacknowledged
// reliable messages stay queued for the next tick.
func (q *MessageQueue) SendMessages(pa *PacketAssembler) error {
	q.removeAckedMessages()

	if err := pa.SendReliableMessages(q.reliable); err != nil {
		return err
	}
	if err := pa.SendUnreliableMessages(q.unreliable); err != nil {
		return err
	}
	if err := pa.SendBatchedMessages(q.batched); err != nil {
		return err
	}

	q.unreliable = q.unreliable[:0]
	for _, b := range q.batched {
		b.Clear()
	}

	return pa.SendPacket()
}
