package lwp

import (
	"time"

	"github.com/lwar/lwar"
)

// A DeliveryManager tracks one connection's sequence number state in both
// directions: which reliable messages the peer has acknowledged, which
// sequence numbers to assign next, and which incoming reliable sequence
// number is due. It also estimates the round-trip time by timing the ack of
// a designated reliable sequence number, avoiding a separate ping message.
type DeliveryManager struct {
	// Highest reliable seqnum the peer has confirmed receiving.
	lastAcked uint32

	// Independent outgoing counters; first assigned value is 1.
	lastAssignedReliable   uint32
	lastAssignedUnreliable uint32

	// Highest in-order reliable seqnum accepted from the peer.
	lastReceivedReliable uint32

	// Outstanding RTT probe; pingSeq 0 means none.
	pingSeq  uint32
	pingTime time.Time

	ping time.Duration

	now func() time.Time
}

// NewDeliveryManager returns a DeliveryManager with all counters at zero.
func NewDeliveryManager() *DeliveryManager {
	return &DeliveryManager{now: time.Now}
}

// AssignReliableSequenceNumber stamps m with the next reliable sequence
// number. If no RTT probe is outstanding, this message becomes the probe.
func (d *DeliveryManager) AssignReliableSequenceNumber(m lwar.Message) SequencedMessage {
	d.lastAssignedReliable++

	if d.pingSeq == 0 {
		d.pingSeq = d.lastAssignedReliable
		d.pingTime = d.now()
	}

	return SequencedMessage{Message: m, SequenceNumber: d.lastAssignedReliable}
}

// AssignUnreliableSequenceNumber stamps m with the next unreliable sequence
// number.
func (d *DeliveryManager) AssignUnreliableSequenceNumber(m lwar.Message) SequencedMessage {
	return SequencedMessage{Message: m, SequenceNumber: d.NextUnreliableSequenceNumber()}
}

// NextUnreliableSequenceNumber advances and returns the unreliable counter
// without a message, used to number batched fragments.
func (d *DeliveryManager) NextUnreliableSequenceNumber() uint32 {
	d.lastAssignedUnreliable++
	return d.lastAssignedUnreliable
}

// IsAcknowledged reports whether the peer has confirmed receiving sm.
// Only reliable messages are ever acknowledged.
func (d *DeliveryManager) IsAcknowledged(sm SequencedMessage) bool {
	if !sm.Message.Type().IsReliable() {
		panic("lwp: IsAcknowledged called on an unreliable message")
	}
	return sm.SequenceNumber <= d.lastAcked
}

// AllowReliableDelivery decides whether an incoming reliable message with
// the given sequence number may be delivered. Only the exact successor of
// the last accepted one is admitted, enforcing in-order exactly-once
// delivery; duplicates, gaps and reordered messages are rejected and left
// to retransmission.
func (d *DeliveryManager) AllowReliableDelivery(seq uint32) bool {
	if seq != d.lastReceivedReliable+1 {
		return false
	}
	d.lastReceivedReliable++
	return true
}

// LastReceivedReliableSequenceNumber returns the acknowledgement to put in
// outgoing packet headers.
func (d *DeliveryManager) LastReceivedReliableSequenceNumber() uint32 {
	return d.lastReceivedReliable
}

// UpdateLastAckedSequenceNumber raises the acked watermark; it never
// decreases. If acked covers the outstanding ping probe, the round-trip
// time is computed and the probe cleared.
func (d *DeliveryManager) UpdateLastAckedSequenceNumber(acked uint32) {
	if acked > d.lastAcked {
		d.lastAcked = acked
	}

	if d.pingSeq != 0 && acked >= d.pingSeq {
		ping := d.now().Sub(d.pingTime)
		if ping < 0 {
			ping = 0
		}
		if ping > maxPing {
			ping = maxPing
		}
		d.ping = ping
		d.pingSeq = 0
	}
}

// Ping returns the most recent round-trip estimate,
// clamped to [0, 10000] ms.
func (d *DeliveryManager) Ping() time.Duration { return d.ping }

// Reset zeroes all state so a pooled connection can be recycled.
func (d *DeliveryManager) Reset() {
	*d = DeliveryManager{now: d.now}
}
