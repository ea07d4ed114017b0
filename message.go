// Package lwar defines the message vocabulary of the Lwar game protocol.
// The low-level wire protocol lives in the lwp subpackage.
package lwar

import "fmt"

// A MessageType tags a Message on the wire.
type MessageType uint8

const (
	TypeConnect MessageType = 1 + iota
	TypeDisconnect
	TypeChat
	TypePlayerName
	TypePlayerJoined
	TypePlayerLeft
	TypePlayerKill
	TypeEntityAdded
	TypeEntityRemoved
	TypePlayerInput
	TypeEntityUpdate
	TypePlayerStats

	typeCount
)

// Transmission describes how messages of a type travel.
// Reliable messages are retransmitted until acknowledged and delivered in
// order exactly once. Batched messages are unreliable messages packed
// several to a record under a shared header.
type Transmission struct {
	Reliable bool
	Batched  bool
}

// transmissions is the per-type transmission table. Batching is only
// meaningful for unreliable messages; the table must never combine
// Reliable with Batched.
var transmissions = [typeCount]Transmission{
	TypeConnect:       {Reliable: true},
	TypeDisconnect:    {Reliable: true},
	TypeChat:          {Reliable: true},
	TypePlayerName:    {Reliable: true},
	TypePlayerJoined:  {Reliable: true},
	TypePlayerLeft:    {Reliable: true},
	TypePlayerKill:    {Reliable: true},
	TypeEntityAdded:   {Reliable: true},
	TypeEntityRemoved: {Reliable: true},
	TypePlayerInput:   {Batched: true},
	TypeEntityUpdate:  {Batched: true},
	TypePlayerStats:   {},
}

// Known reports whether t is a defined message type.
func (t MessageType) Known() bool { return t >= TypeConnect && t < typeCount }

// IsReliable reports whether messages of type t are retransmitted until
// acknowledged.
func (t MessageType) IsReliable() bool {
	return t.Known() && transmissions[t].Reliable
}

// IsBatched reports whether messages of type t use batched transmission.
func (t MessageType) IsBatched() bool {
	return t.Known() && transmissions[t].Batched
}

func (t MessageType) String() string {
	switch t {
	case TypeConnect:
		return "Connect"
	case TypeDisconnect:
		return "Disconnect"
	case TypeChat:
		return "Chat"
	case TypePlayerName:
		return "PlayerName"
	case TypePlayerJoined:
		return "PlayerJoined"
	case TypePlayerLeft:
		return "PlayerLeft"
	case TypePlayerKill:
		return "PlayerKill"
	case TypeEntityAdded:
		return "EntityAdded"
	case TypeEntityRemoved:
		return "EntityRemoved"
	case TypePlayerInput:
		return "PlayerInput"
	case TypeEntityUpdate:
		return "EntityUpdate"
	case TypePlayerStats:
		return "PlayerStats"
	}
	return fmt.Sprintf("MessageType(%d)", uint8(t))
}

// A Message is a single protocol message. Implementations are the concrete
// message structs in this package; the lwp subpackage treats them opaquely
// apart from their type tag.
type Message interface {
	Type() MessageType

	// MarshalPacket writes the payload. A write that does not fit sets the
	// writer's overflow flag; the caller rolls back and retries in a fresh
	// packet.
	MarshalPacket(w *PacketWriter)

	// UnmarshalPacket reads the payload. Truncation is reported through
	// the reader.
	UnmarshalPacket(r *PacketReader)
}

// NewMessage returns a zero value of the concrete message type tagged t.
func NewMessage(t MessageType) (Message, error) {
	switch t {
	case TypeConnect:
		return &Connect{}, nil
	case TypeDisconnect:
		return &Disconnect{}, nil
	case TypeChat:
		return &Chat{}, nil
	case TypePlayerName:
		return &PlayerName{}, nil
	case TypePlayerJoined:
		return &PlayerJoined{}, nil
	case TypePlayerLeft:
		return &PlayerLeft{}, nil
	case TypePlayerKill:
		return &PlayerKill{}, nil
	case TypeEntityAdded:
		return &EntityAdded{}, nil
	case TypeEntityRemoved:
		return &EntityRemoved{}, nil
	case TypePlayerInput:
		return &PlayerInput{}, nil
	case TypeEntityUpdate:
		return &EntityUpdate{}, nil
	case TypePlayerStats:
		return &PlayerStats{}, nil
	}
	return nil, fmt.Errorf("lwar: unknown message type %d", uint8(t))
}
