package commands

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lwar/lwar"
	"github.com/lwar/lwar/lwp"
)

var joinName string

var joinCmd = &cobra.Command{
	Use:   "join [addr]",
	Short: "Join a Lwar chat server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Server = args[0]
		}
		if joinName != "" {
			cfg.Name = joinName
		}
		return join(cfg)
	},
}

func init() {
	joinCmd.Flags().StringVarP(&joinName, "name", "n", "", "player name")
}

func join(cfg Config) error {
	conn, err := lwp.Dial(cfg.Server)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	if err := conn.EnqueueMessage(&lwar.Connect{Name: cfg.Name}); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	h := &chatHandler{}

	for {
		select {
		case <-sig:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			if err := conn.EnqueueMessage(&lwar.Chat{Text: line}); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.DispatchReceivedMessages(h); err != nil {
				return err
			}
			if err := conn.SendQueuedMessages(); err != nil {
				return err
			}
			if conn.IsLagging() {
				logrus.WithField("time_to_drop", conn.TimeToDrop()).Debug("lagging")
			}
		}
	}
}

type chatHandler struct {
	lwar.NopHandler
	names map[lwar.NetworkIdentity]string
}

func (h *chatHandler) name(id lwar.NetworkIdentity) string {
	if name, ok := h.names[id]; ok {
		return name
	}
	return id.String()
}

func (h *chatHandler) OnPlayerJoined(m *lwar.PlayerJoined) {
	if h.names == nil {
		h.names = make(map[lwar.NetworkIdentity]string)
	}
	h.names[m.Player] = m.Name
	fmt.Printf("* %s joined\n", m.Name)
}

func (h *chatHandler) OnPlayerLeft(m *lwar.PlayerLeft) {
	fmt.Printf("* %s left\n", h.name(m.Player))
	delete(h.names, m.Player)
}

func (h *chatHandler) OnChat(m *lwar.Chat) {
	fmt.Printf("<%s> %s\n", h.name(m.Player), m.Text)
}

func (h *chatHandler) OnPlayerKill(m *lwar.PlayerKill) {
	fmt.Printf("* %s killed %s\n", h.name(m.Killer), h.name(m.Victim))
}
