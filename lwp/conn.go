package lwp

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lwar/lwar"
)

// ErrDropped is returned by every Conn method once the connection has been
// dropped, either explicitly or because the peer stayed silent past
// DropTimeout. Callers must stop using the connection.
var ErrDropped = errors.New("lwp: connection dropped")

type connState uint8

const (
	// Client socket created, remote endpoint not yet confirmed.
	stateConnecting connState = iota
	stateEstablished
	stateDropped
)

// A Conn is one remote peer's protocol state: delivery bookkeeping, the
// outgoing message queue, the packet assembler and deserializer, the
// socket, and liveness timers. It is driven by a single goroutine calling
// DispatchReceivedMessages and SendQueuedMessages once per tick.
type Conn struct {
	sock         datagramSocket
	delivery     *DeliveryManager
	queue        *MessageQueue
	assembler    *PacketAssembler
	deserializer *MessageDeserializer

	recvBuf  [MaxPacketSize]byte
	received []SequencedMessage // decoded, awaiting dispatch

	state    connState
	lag      time.Duration // time since the last valid packet
	lastPoll time.Time

	stats Stats
	log   *logrus.Entry
	now   func() time.Time
}

// Dial creates a client connection to a server at addr. The connection is
// in the connecting state until the server's first packet arrives.
func Dial(addr string) (*Conn, error) {
	sock, err := dialSocket(addr)
	if err != nil {
		return nil, fmt.Errorf("lwp: dial %s: %w", addr, err)
	}

	return newConn(sock, false, logrus.WithField("remote", addr)), nil
}

func newConn(sock datagramSocket, established bool, log *logrus.Entry) *Conn {
	c := &Conn{
		sock:     sock,
		delivery: NewDeliveryManager(),
		state:    stateConnecting,
		log:      log,
		now:      time.Now,
	}
	if established {
		c.state = stateEstablished
	}

	c.queue = NewMessageQueue(c.delivery)
	c.assembler = NewPacketAssembler(c.delivery, c.sendPacket)
	c.deserializer = NewMessageDeserializer(c.delivery)
	c.lastPoll = c.now()

	return c
}

func (c *Conn) sendPacket(p []byte) error {
	if err := c.sock.Send(p); err != nil {
		return err
	}

	c.stats.PacketsSent++
	c.stats.BytesSent += uint64(len(p))
	return nil
}

// RemoteAddr returns the peer's address.
func (c *Conn) RemoteAddr() net.Addr { return c.sock.RemoteAddr() }

// Ping returns the latest round-trip estimate.
func (c *Conn) Ping() time.Duration { return c.delivery.Ping() }

// Stats returns a snapshot of the connection's traffic counters.
func (c *Conn) Stats() Stats {
	s := c.stats
	s.Ping = c.delivery.Ping()
	return s
}

// IsDropped reports whether the connection is dead.
func (c *Conn) IsDropped() bool { return c.state == stateDropped }

// IsLagging reports whether no packet has arrived for longer than
// LagThreshold.
func (c *Conn) IsLagging() bool { return c.lag > LagThreshold }

// TimeToDrop returns how much longer the peer may stay silent before the
// connection is dropped.
func (c *Conn) TimeToDrop() time.Duration {
	if c.lag >= DropTimeout {
		return 0
	}
	return DropTimeout - c.lag
}

func (c *Conn) checkAlive() error {
	if c.state == stateDropped {
		return ErrDropped
	}
	if c.lag >= DropTimeout {
		c.drop()
		return ErrDropped
	}
	return nil
}

func (c *Conn) drop() {
	if c.state == stateDropped {
		return
	}

	c.state = stateDropped
	if err := c.sock.Close(); err != nil {
		c.log.WithError(err).Debug("closing socket")
	}
	c.log.Info("connection dropped")
}

// EnqueueMessage takes ownership of m and queues it for the next send.
func (c *Conn) EnqueueMessage(m lwar.Message) error {
	if err := c.checkAlive(); err != nil {
		return err
	}

	c.queue.Enqueue(m)
	return nil
}

// SendQueuedMessages assembles all queued messages into packets and sends
// them. Every packet header carries the current acknowledgement, so even a
// tick without queued messages sends one header-only packet. A socket
// error drops the connection.
func (c *Conn) SendQueuedMessages() error {
	if err := c.checkAlive(); err != nil {
		return err
	}

	c.assembler.PrepareSending(c.delivery.LastReceivedReliableSequenceNumber())
	if err := c.queue.SendMessages(c.assembler); err != nil {
		c.drop()
		return fmt.Errorf("lwp: send: %w", err)
	}
	return nil
}

// DispatchReceivedMessages advances the lag clock, drains all pending
// datagrams, and dispatches every decoded, admitted message to h in
// receive order. A socket error drops the connection.
func (c *Conn) DispatchReceivedMessages(h lwar.Handler) error {
	if err := c.advanceTime(); err != nil {
		return err
	}

	for {
		n, ok, err := c.sock.Receive(c.recvBuf[:])
		if err != nil {
			c.drop()
			return fmt.Errorf("lwp: receive: %w", err)
		}
		if !ok {
			break
		}

		c.handlePacket(c.recvBuf[:n])
	}

	for _, sm := range c.received {
		lwar.Dispatch(h, sm.Message, sm.SequenceNumber)
	}
	c.received = c.received[:0]

	return nil
}

// advanceTime adds the elapsed time since the last poll to the lag clock,
// capped at maxLagStep per poll so a debugger pause doesn't count in full.
func (c *Conn) advanceTime() error {
	now := c.now()
	step := now.Sub(c.lastPoll)
	c.lastPoll = now

	if step > maxLagStep {
		step = maxLagStep
	}
	if step > 0 {
		c.lag += step
	}

	return c.checkAlive()
}

// handlePacket validates the header, applies its acknowledgement, and
// decodes records until the buffer is exhausted. A packet failing header
// validation is ignored; it doesn't touch connection state. Malformed
// records abandon the rest of the packet but the connection survives.
func (c *Conn) handlePacket(p []byte) {
	r := lwar.NewPacketReader(p)

	hdr, ok := TryReadHeader(r)
	if !ok {
		c.log.WithField("size", len(p)).Warn("discarding packet with invalid header")
		return
	}

	c.stats.PacketsReceived++
	c.stats.BytesReceived += uint64(len(p))

	c.delivery.UpdateLastAckedSequenceNumber(hdr.Acknowledgement)
	c.lag = 0

	if c.state == stateConnecting {
		// First valid packet: the socket has bound to the sender.
		c.state = stateEstablished
		c.log.Info("connection established")
	}

	c.deserializer.BeginPacket()
	for {
		sm, found, err := c.deserializer.TryDeserialize(r)
		if err != nil {
			c.log.WithError(err).WithField("unparsed", r.Remaining()).
				Warn("protocol violation, discarding rest of packet")
			return
		}
		if !found {
			return
		}

		c.received = append(c.received, sm)
	}
}

// Disconnect notifies the peer and drops the connection. The notification
// is best effort: the connection ends up dropped whether or not the final
// flush reaches the wire.
func (c *Conn) Disconnect() {
	if c.state == stateDropped {
		return
	}

	c.queue.Enqueue(&lwar.Disconnect{})
	c.assembler.PrepareSending(c.delivery.LastReceivedReliableSequenceNumber())
	if err := c.queue.SendMessages(c.assembler); err != nil {
		c.log.WithError(err).Debug("sending disconnect")
	}

	c.drop()
}
