package lwp

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// A Listener owns a server's UDP socket and routes incoming datagrams to
// per-address connections. A packet from an unknown address creates a new
// connection, already established and bound to that address.
//
// Like Conn, a Listener is driven by a single goroutine: call Poll once
// per tick before ticking the connections.
type Listener struct {
	conn  *net.UDPConn
	conns map[string]*serverConn
	pool  sync.Pool // inbox buffers, shared by all connections

	recvBuf [MaxPacketSize]byte
	log     *logrus.Entry
}

type serverConn struct {
	*Conn
	sock *serverSocket
}

// Listen opens a UDP socket on addr.
func Listen(addr string) (*Listener, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("lwp: listen %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("lwp: listen %s: %w", addr, err)
	}

	l := &Listener{
		conn:  conn,
		conns: make(map[string]*serverConn),
		log:   logrus.WithField("listen", conn.LocalAddr().String()),
	}
	l.pool.New = func() interface{} { return new([MaxPacketSize]byte) }

	return l, nil
}

// Addr returns the listen address.
func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Poll drains the listen socket, routing each datagram to its connection's
// inbox and returning connections accepted during this poll. Dropped
// connections are forgotten.
func (l *Listener) Poll() (accepted []*Conn, err error) {
	for {
		if err := l.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
			return accepted, err
		}

		n, addr, err := l.conn.ReadFromUDP(l.recvBuf[:])
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			return accepted, fmt.Errorf("lwp: poll: %w", err)
		}

		key := addr.String()
		sc, ok := l.conns[key]
		if !ok {
			sock := &serverSocket{conn: l.conn, remote: addr, pool: &l.pool}
			sc = &serverConn{
				Conn: newConn(sock, true, l.log.WithField("remote", key)),
				sock: sock,
			}
			l.conns[key] = sc
			accepted = append(accepted, sc.Conn)
			sc.log.Info("connection accepted")
		}

		if !sc.IsDropped() {
			sc.sock.enqueue(l.recvBuf[:n])
		}
	}

	for key, sc := range l.conns {
		if sc.IsDropped() {
			delete(l.conns, key)
		}
	}

	return accepted, nil
}

// Conns returns the live connections.
func (l *Listener) Conns() []*Conn {
	conns := make([]*Conn, 0, len(l.conns))
	for _, sc := range l.conns {
		conns = append(conns, sc.Conn)
	}
	return conns
}

// Close disconnects every connection and closes the listen socket.
func (l *Listener) Close() error {
	for key, sc := range l.conns {
		sc.Disconnect()
		delete(l.conns, key)
	}
	return l.conn.Close()
}
