/*
Package lwp implements the low-level Lwar protocol: selectively reliable
messaging over UDP with message batching, in-order exactly-once reliable
delivery, liveness tracking and round-trip time estimation.

The package is built for a single-threaded poll model: each Conn is driven
by one owning goroutine that calls DispatchReceivedMessages and
SendQueuedMessages once per tick. No Conn method is safe for concurrent
use.
*/
package lwp

import (
	"time"

	"github.com/lwar/lwar"
)

// AppIdentifier must be at the start of every packet ("LWAR"); packets
// carrying anything else are discarded.
const AppIdentifier uint32 = 0x4c574152

const (
	// MaxPacketSize is the fixed size of the packet buffers. No UDP
	// datagram sent by this package exceeds it.
	MaxPacketSize = 1400

	// HeaderSize is the size of the packet header:
	// AppIdentifier u32 + Acknowledgement u32.
	HeaderSize = 4 + 4

	// recordHeaderSize frames every record: MessageType u8 + SequenceNumber u32.
	recordHeaderSize = 1 + 4

	// batchHeaderSize frames a batched fragment: record header + Count u8.
	batchHeaderSize = recordHeaderSize + 1

	// MaxBatchedMessages caps the payload count of a single batched
	// fragment so the count always fits its u8 field no matter how large
	// MaxPacketSize grows; the assembler starts a new fragment instead of
	// overflowing the count.
	MaxBatchedMessages = 255
)

const (
	// LagThreshold is how long a connection may go without receiving a
	// packet before IsLagging reports true.
	LagThreshold = 500 * time.Millisecond

	// DropTimeout is how long a connection may go without receiving a
	// packet before it is dropped.
	DropTimeout = 10 * time.Second

	// maxLagStep caps the lag clock advance per poll so a debugger pause
	// doesn't instantly drop every connection.
	maxLagStep = 500 * time.Millisecond

	// maxPing is the upper clamp on round-trip estimates.
	maxPing = 10 * time.Second
)

/*
Packet format (big endian):

	AppIdentifier   u32
	Acknowledgement u32 // highest reliable seqnum the sender has received
	// records until the end of the packet, each either
	MessageType u8, SequenceNumber u32, payload // plain
	// or, for batch-eligible types,
	MessageType u8, SequenceNumber u32, Count u8, payload*Count // fragment

Batched payloads share the fragment's type and sequence number. A logical
batch may span packets as several fragments, each independently numbered
and counted.
*/
type PacketHeader struct {
	AppIdentifier   uint32
	Acknowledgement uint32
}

// WriteTo writes the header at the writer's current position.
func (h PacketHeader) WriteTo(w *lwar.PacketWriter) {
	w.WriteUint32(h.AppIdentifier)
	w.WriteUint32(h.Acknowledgement)
}

// TryReadHeader reads and validates a packet header. ok is false if the
// buffer is too short or the app identifier doesn't match.
func TryReadHeader(r *lwar.PacketReader) (h PacketHeader, ok bool) {
	h.AppIdentifier = r.Uint32()
	h.Acknowledgement = r.Uint32()

	if r.Truncated() || h.AppIdentifier != AppIdentifier {
		return PacketHeader{}, false
	}
	return h, true
}
