package lwar

// A Handler receives decoded, delivery-admitted messages, one callback per
// message kind. Unreliable callbacks also get the record's sequence number
// so receivers can discard stale snapshots; reliable messages arrive in
// order exactly once, so their callbacks don't need it.
type Handler interface {
	OnConnect(*Connect)
	OnDisconnect(*Disconnect)
	OnChat(*Chat)
	OnPlayerName(*PlayerName)
	OnPlayerJoined(*PlayerJoined)
	OnPlayerLeft(*PlayerLeft)
	OnPlayerKill(*PlayerKill)
	OnEntityAdded(*EntityAdded)
	OnEntityRemoved(*EntityRemoved)
	OnPlayerInput(*PlayerInput, uint32)
	OnEntityUpdate(*EntityUpdate, uint32)
	OnPlayerStats(*PlayerStats, uint32)
}

// Dispatch routes m to the matching Handler callback.
func Dispatch(h Handler, m Message, seq uint32) {
	switch m := m.(type) {
	case *Connect:
		h.OnConnect(m)
	case *Disconnect:
		h.OnDisconnect(m)
	case *Chat:
		h.OnChat(m)
	case *PlayerName:
		h.OnPlayerName(m)
	case *PlayerJoined:
		h.OnPlayerJoined(m)
	case *PlayerLeft:
		h.OnPlayerLeft(m)
	case *PlayerKill:
		h.OnPlayerKill(m)
	case *EntityAdded:
		h.OnEntityAdded(m)
	case *EntityRemoved:
		h.OnEntityRemoved(m)
	case *PlayerInput:
		h.OnPlayerInput(m, seq)
	case *EntityUpdate:
		h.OnEntityUpdate(m, seq)
	case *PlayerStats:
		h.OnPlayerStats(m, seq)
	default:
		panic("lwar: Dispatch: unknown message type")
	}
}

// NopHandler implements Handler with empty callbacks. Embed it to handle
// only the message kinds you care about.
type NopHandler struct{}

func (NopHandler) OnConnect(*Connect)                   {}
func (NopHandler) OnDisconnect(*Disconnect)             {}
func (NopHandler) OnChat(*Chat)                         {}
func (NopHandler) OnPlayerName(*PlayerName)             {}
func (NopHandler) OnPlayerJoined(*PlayerJoined)         {}
func (NopHandler) OnPlayerLeft(*PlayerLeft)             {}
func (NopHandler) OnPlayerKill(*PlayerKill)             {}
func (NopHandler) OnEntityAdded(*EntityAdded)           {}
func (NopHandler) OnEntityRemoved(*EntityRemoved)       {}
func (NopHandler) OnPlayerInput(*PlayerInput, uint32)   {}
func (NopHandler) OnEntityUpdate(*EntityUpdate, uint32) {}
func (NopHandler) OnPlayerStats(*PlayerStats, uint32)   {}
