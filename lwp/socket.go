package lwp

import (
	"errors"
	"net"
	"os"
	"sync"
	"time"
)

// pollTimeout bounds how long a poll-style read may block when no datagram
// is pending.
const pollTimeout = time.Millisecond

// A datagramSocket is the raw socket a Conn drives. Receive is
// non-blocking in spirit: ok is false when no datagram is pending.
type datagramSocket interface {
	Send(p []byte) error
	Receive(buf []byte) (n int, ok bool, err error)
	Close() error
	RemoteAddr() net.Addr
}

// A clientSocket is an unconnected UDP socket sending to a remote
// endpoint. The endpoint is provisional until the first received datagram
// confirms it: the server may answer from a different port than the one
// dialed.
type clientSocket struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
	bound  bool
}

func dialSocket(addr string) (*clientSocket, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}

	return &clientSocket{conn: conn, remote: raddr}, nil
}

func (s *clientSocket) Send(p []byte) error {
	_, err := s.conn.WriteToUDP(p, s.remote)
	return err
}

func (s *clientSocket) Receive(buf []byte) (int, bool, error) {
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
			return 0, false, err
		}

		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return 0, false, nil
			}
			return 0, false, err
		}

		if !s.bound {
			// Implicit connect: the first answer binds the endpoint.
			s.remote = addr
			s.bound = true
		} else if !udpAddrEqual(addr, s.remote) {
			continue
		}

		return n, true, nil
	}
}

func (s *clientSocket) Close() error         { return s.conn.Close() }
func (s *clientSocket) RemoteAddr() net.Addr { return s.remote }

func udpAddrEqual(a, b *net.UDPAddr) bool {
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

// A serverSocket shares the listener's UDP socket. The listener routes
// received datagrams into the inbox; Receive pops them. Inbox buffers come
// from the listener's pool and go back to it once consumed, so steady-state
// receiving does not allocate.
type serverSocket struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
	pool   *sync.Pool // *[MaxPacketSize]byte

	inbox []inboundDatagram
}

type inboundDatagram struct {
	buf *[MaxPacketSize]byte
	n   int
}

func (s *serverSocket) enqueue(p []byte) {
	buf := s.pool.Get().(*[MaxPacketSize]byte)
	n := copy(buf[:], p)
	s.inbox = append(s.inbox, inboundDatagram{buf: buf, n: n})
}

func (s *serverSocket) Send(p []byte) error {
	_, err := s.conn.WriteToUDP(p, s.remote)
	return err
}

func (s *serverSocket) Receive(buf []byte) (int, bool, error) {
	if len(s.inbox) == 0 {
		return 0, false, nil
	}

	d := s.inbox[0]
	s.inbox[0] = inboundDatagram{}
	s.inbox = s.inbox[1:]

	n := copy(buf, d.buf[:d.n])
	s.pool.Put(d.buf)
	return n, true, nil
}

// Close releases the inbox. The underlying socket belongs to the listener
// and stays open.
func (s *serverSocket) Close() error {
	for _, d := range s.inbox {
		s.pool.Put(d.buf)
	}
	s.inbox = nil
	return nil
}

func (s *serverSocket) RemoteAddr() net.Addr { return s.remote }
