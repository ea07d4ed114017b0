package lwp

import "time"

// Stats are a connection's traffic counters. Packets discarded for header
// or protocol violations are not counted as received.
type Stats struct {
	PacketsSent     uint64
	PacketsReceived uint64
	BytesSent       uint64
	BytesReceived   uint64

	// Latest round-trip estimate.
	Ping time.Duration
}
