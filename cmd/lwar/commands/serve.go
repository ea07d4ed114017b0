package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lwar/lwar"
	"github.com/lwar/lwar/lwp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a Lwar chat server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

type player struct {
	conn *lwp.Conn
	id   lwar.NetworkIdentity
	name string

	lastInputSeq uint32
}

type session struct {
	cfg      Config
	listener *lwp.Listener

	ids     *lwar.IdentityAllocator
	players *lwar.IdentityMap[*player]
	conns   map[*lwp.Conn]*player
}

func serve(cfg Config) error {
	listener, err := lwp.Listen(cfg.Listen)
	if err != nil {
		return err
	}
	defer listener.Close()

	logrus.WithField("addr", listener.Addr()).Info("serving")

	s := &session{
		cfg:      cfg,
		listener: listener,
		ids:      lwar.NewIdentityAllocator(cfg.MaxPlayers),
		players:  lwar.NewIdentityMap[*player](cfg.MaxPlayers),
		conns:    make(map[*lwp.Conn]*player),
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			logrus.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := s.tick(); err != nil {
				return err
			}
		}
	}
}

func (s *session) tick() error {
	accepted, err := s.listener.Poll()
	if err != nil {
		return err
	}

	for _, conn := range accepted {
		s.accept(conn)
	}

	for conn, p := range s.conns {
		if err := conn.DispatchReceivedMessages(&playerHandler{s: s, p: p}); err != nil {
			s.remove(p)
			continue
		}
		if err := conn.SendQueuedMessages(); err != nil {
			s.remove(p)
		}
	}

	return nil
}

func (s *session) accept(conn *lwp.Conn) {
	id, err := s.ids.Allocate()
	if err != nil {
		logrus.WithField("remote", conn.RemoteAddr()).Warn("server full, rejecting")
		conn.Disconnect()
		return
	}

	p := &player{conn: conn, id: id}
	s.players.Add(id, p)
	s.conns[conn] = p
}

func (s *session) remove(p *player) {
	if _, ok := s.conns[p.conn]; !ok {
		return
	}
	delete(s.conns, p.conn)
	s.players.Remove(p.id)
	s.ids.Free(p.id)

	p.conn.Disconnect()
	s.broadcast(&lwar.PlayerLeft{Player: p.id})
}

// broadcast queues m on every connection. Messages are immutable once
// enqueued, so sharing one value across queues is safe.
func (s *session) broadcast(m lwar.Message) {
	for conn := range s.conns {
		if err := conn.EnqueueMessage(m); err != nil {
			logrus.WithError(err).Debug("broadcast")
		}
	}
}

type playerHandler struct {
	lwar.NopHandler
	s *session
	p *player
}

func (h *playerHandler) OnConnect(m *lwar.Connect) {
	h.p.name = m.Name
	logrus.WithFields(logrus.Fields{
		"player": h.p.id,
		"name":   m.Name,
	}).Info("player joined")

	h.s.broadcast(&lwar.PlayerJoined{Player: h.p.id, Name: m.Name})
}

func (h *playerHandler) OnDisconnect(*lwar.Disconnect) {
	h.s.remove(h.p)
}

func (h *playerHandler) OnChat(m *lwar.Chat) {
	// The server is authoritative about the speaker.
	h.s.broadcast(&lwar.Chat{Player: h.p.id, Text: m.Text})
}

func (h *playerHandler) OnPlayerInput(m *lwar.PlayerInput, seq uint32) {
	// Unreliable: keep only the newest frame.
	if seq <= h.p.lastInputSeq {
		return
	}
	h.p.lastInputSeq = seq
}
