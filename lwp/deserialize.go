package lwp

import (
	"fmt"

	"github.com/lwar/lwar"
)

// A MessageDeserializer is the receive-side counterpart of the
// PacketAssembler: it parses a packet's records into decoded messages,
// expanding batched fragments and applying the delivery admission filter.
// Batch context carries across TryDeserialize calls within one packet;
// BeginPacket resets it.
type MessageDeserializer struct {
	delivery *DeliveryManager

	// In-progress batched fragment.
	batchType      lwar.MessageType
	batchSeq       uint32
	batchRemaining int
}

// NewMessageDeserializer returns a deserializer consulting delivery for
// reliable admission.
func NewMessageDeserializer(delivery *DeliveryManager) *MessageDeserializer {
	return &MessageDeserializer{delivery: delivery}
}

// BeginPacket discards any batch context left over from a previous,
// possibly malformed, packet. Fragments never span packets.
func (md *MessageDeserializer) BeginPacket() {
	md.batchRemaining = 0
}

// TryDeserialize decodes the next admitted message from r. found is false
// once the packet is exhausted. Reliable messages rejected by the admission
// filter (duplicates, gaps, reordering) are discarded and parsing
// continues; a batched fragment announcing zero payloads likewise yields
// nothing. Malformed data returns an error: the rest of the packet cannot
// be trusted.
func (md *MessageDeserializer) TryDeserialize(r *lwar.PacketReader) (sm SequencedMessage, found bool, err error) {
	for {
		var t lwar.MessageType
		var seq uint32

		if md.batchRemaining > 0 {
			t, seq = md.batchType, md.batchSeq
			if r.Remaining() == 0 {
				md.batchRemaining = 0
				return SequencedMessage{}, false, fmt.Errorf("lwp: packet ends inside a %v batch", t)
			}
			md.batchRemaining--
		} else {
			if r.Remaining() == 0 {
				return SequencedMessage{}, false, nil
			}

			t = lwar.MessageType(r.Uint8())
			seq = r.Uint32()
			if r.Truncated() {
				return SequencedMessage{}, false, fmt.Errorf("lwp: truncated record header")
			}
			if !t.Known() {
				return SequencedMessage{}, false, fmt.Errorf("lwp: unknown message type %d", uint8(t))
			}

			if t.IsBatched() {
				count := int(r.Uint8())
				if r.Truncated() {
					return SequencedMessage{}, false, fmt.Errorf("lwp: truncated %v batch header", t)
				}
				if count == 0 {
					// Empty fragment: nothing to deliver, not an error.
					continue
				}

				md.batchType, md.batchSeq = t, seq
				md.batchRemaining = count - 1
			}
		}

		m, err := lwar.NewMessage(t)
		if err != nil {
			return SequencedMessage{}, false, err
		}

		m.UnmarshalPacket(r)
		if r.Truncated() {
			md.batchRemaining = 0
			return SequencedMessage{}, false, fmt.Errorf("lwp: truncated %v payload", t)
		}

		if t.IsReliable() && !md.delivery.AllowReliableDelivery(seq) {
			// Duplicate or out-of-order: drop and keep parsing.
			// Retransmission supplies the missing message eventually.
			continue
		}

		return SequencedMessage{Message: m, SequenceNumber: seq}, true, nil
	}
}
