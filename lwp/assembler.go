package lwp

import (
	"fmt"

	"github.com/lwar/lwar"
)

// A PacketAssembler serializes queued messages into fixed-size packets.
// It maintains a single reused packet buffer; when a record doesn't fit,
// the in-progress packet is handed to the send callback and a new one is
// started. Completed packets are emitted through the callback passed to
// NewPacketAssembler.
type PacketAssembler struct {
	delivery *DeliveryManager
	send     func(p []byte) error

	buf [MaxPacketSize]byte
	w   *lwar.PacketWriter

	ack         uint32
	active      bool
	packetCount int
}

// NewPacketAssembler returns an assembler numbering batched fragments from
// delivery and emitting completed packets through send.
func NewPacketAssembler(delivery *DeliveryManager, send func(p []byte) error) *PacketAssembler {
	pa := &PacketAssembler{delivery: delivery, send: send}
	pa.w = lwar.NewPacketWriter(pa.buf[:])
	return pa
}

// PrepareSending starts a new send round: the packet count is reset and a
// fresh packet is started, its header carrying ack. All packets of the
// round repeat the same acknowledgement.
func (pa *PacketAssembler) PrepareSending(ack uint32) {
	pa.ack = ack
	pa.packetCount = 0
	pa.beginPacket()
}

func (pa *PacketAssembler) beginPacket() {
	pa.w.Reset()
	PacketHeader{AppIdentifier: AppIdentifier, Acknowledgement: pa.ack}.WriteTo(pa.w)
	pa.active = true
}

// PacketCount returns the number of packets emitted since PrepareSending.
func (pa *PacketAssembler) PacketCount() int { return pa.packetCount }

// SendReliableMessages serializes sequenced reliable messages into the
// current packet, overflowing into new packets as needed.
func (pa *PacketAssembler) SendReliableMessages(msgs []SequencedMessage) error {
	for _, sm := range msgs {
		if err := pa.writeRecord(sm); err != nil {
			return err
		}
	}
	return nil
}

// SendUnreliableMessages serializes sequenced unreliable messages, exactly
// like SendReliableMessages; the distinction matters to the queue, not to
// the wire format.
func (pa *PacketAssembler) SendUnreliableMessages(msgs []SequencedMessage) error {
	for _, sm := range msgs {
		if err := pa.writeRecord(sm); err != nil {
			return err
		}
	}
	return nil
}

func (pa *PacketAssembler) writeRecord(sm SequencedMessage) error {
	if pa.tryWriteRecord(sm) {
		return nil
	}

	if err := pa.flushAndBegin(); err != nil {
		return err
	}

	if !pa.tryWriteRecord(sm) {
		// A single message must always fit in an empty packet.
		panic(fmt.Sprintf("lwp: %v message does not fit in an empty packet", sm.Message.Type()))
	}
	return nil
}

func (pa *PacketAssembler) tryWriteRecord(sm SequencedMessage) bool {
	mark := pa.w.Mark()

	pa.w.WriteUint8(uint8(sm.Message.Type()))
	pa.w.WriteUint32(sm.SequenceNumber)
	sm.Message.MarshalPacket(pa.w)

	if pa.w.Overflowed() {
		pa.w.ResetTo(mark)
		return false
	}
	return true
}

// SendBatchedMessages serializes each batch as one or more fragments, each
// with a freshly numbered header and a backpatched count byte. A batch
// whose messages don't all fit in the current packet continues in the next
// one under a new fragment header.
func (pa *PacketAssembler) SendBatchedMessages(batches []*BatchedMessage) error {
	for _, b := range batches {
		if err := pa.sendBatch(b); err != nil {
			return err
		}
	}
	return nil
}

func (pa *PacketAssembler) sendBatch(b *BatchedMessage) error {
	i := 0
	for i < len(b.Messages) {
		if pa.w.Remaining() < batchHeaderSize {
			if err := pa.flushAndBegin(); err != nil {
				return err
			}
		}

		fresh := pa.w.Len() == HeaderSize

		hdrMark := pa.w.Mark()
		pa.w.WriteUint8(uint8(b.Type))
		pa.w.WriteUint32(pa.delivery.NextUnreliableSequenceNumber())
		countPos := pa.w.Mark()
		pa.w.WriteUint8(0) // patched below

		n := 0
		for i < len(b.Messages) && n < MaxBatchedMessages {
			mark := pa.w.Mark()
			b.Messages[i].MarshalPacket(pa.w)
			if pa.w.Overflowed() {
				pa.w.ResetTo(mark)
				break
			}
			i++
			n++
		}

		if n == 0 {
			pa.w.ResetTo(hdrMark)
			if fresh {
				panic(fmt.Sprintf("lwp: batched %v message does not fit in an empty packet", b.Type))
			}
			if err := pa.flushAndBegin(); err != nil {
				return err
			}
			continue
		}

		pa.w.PatchUint8(countPos, uint8(n))
	}
	return nil
}

func (pa *PacketAssembler) flushAndBegin() error {
	if err := pa.SendPacket(); err != nil {
		return err
	}
	pa.beginPacket()
	return nil
}

// SendPacket emits the in-progress packet through the send callback.
// Calling it with no packet in progress or no callback registered is a
// programming error.
func (pa *PacketAssembler) SendPacket() error {
	if pa.send == nil {
		panic("lwp: PacketAssembler: no send callback registered")
	}
	if !pa.active {
		panic("lwp: PacketAssembler: no packet in progress")
	}

	pa.active = false
	pa.packetCount++

	return pa.send(pa.w.Bytes())
}
