package lwar

// Concrete message payloads. Field order is the wire order; strings are
// u8-length-prefixed, identities are {identifier, generation} u16 pairs.

func writeIdentity(w *PacketWriter, id NetworkIdentity) {
	w.WriteUint16(id.Identifier)
	w.WriteUint16(id.Generation)
}

func readIdentity(r *PacketReader) NetworkIdentity {
	return NetworkIdentity{
		Identifier: r.Uint16(),
		Generation: r.Uint16(),
	}
}

// Connect is a client's join request.
type Connect struct {
	Revision uint8 // network revision the client speaks
	Name     string
}

func (*Connect) Type() MessageType { return TypeConnect }

func (m *Connect) MarshalPacket(w *PacketWriter) {
	w.WriteUint8(m.Revision)
	w.WriteString(m.Name)
}

func (m *Connect) UnmarshalPacket(r *PacketReader) {
	m.Revision = r.Uint8()
	m.Name = r.String()
}

// Disconnect announces that the sender is leaving the session.
type Disconnect struct{}

func (*Disconnect) Type() MessageType { return TypeDisconnect }

func (*Disconnect) MarshalPacket(*PacketWriter)   {}
func (*Disconnect) UnmarshalPacket(*PacketReader) {}

// Chat carries a chat line said by a player.
type Chat struct {
	Player NetworkIdentity
	Text   string
}

func (*Chat) Type() MessageType { return TypeChat }

func (m *Chat) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Player)
	w.WriteString(m.Text)
}

func (m *Chat) UnmarshalPacket(r *PacketReader) {
	m.Player = readIdentity(r)
	m.Text = r.String()
}

// PlayerName renames a player.
type PlayerName struct {
	Player NetworkIdentity
	Name   string
}

func (*PlayerName) Type() MessageType { return TypePlayerName }

func (m *PlayerName) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Player)
	w.WriteString(m.Name)
}

func (m *PlayerName) UnmarshalPacket(r *PacketReader) {
	m.Player = readIdentity(r)
	m.Name = r.String()
}

// PlayerJoined announces a new player to the session.
type PlayerJoined struct {
	Player NetworkIdentity
	Name   string
}

func (*PlayerJoined) Type() MessageType { return TypePlayerJoined }

func (m *PlayerJoined) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Player)
	w.WriteString(m.Name)
}

func (m *PlayerJoined) UnmarshalPacket(r *PacketReader) {
	m.Player = readIdentity(r)
	m.Name = r.String()
}

// PlayerLeft announces that a player left the session.
type PlayerLeft struct {
	Player NetworkIdentity
}

func (*PlayerLeft) Type() MessageType { return TypePlayerLeft }

func (m *PlayerLeft) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Player)
}

func (m *PlayerLeft) UnmarshalPacket(r *PacketReader) {
	m.Player = readIdentity(r)
}

// PlayerKill reports that Killer destroyed Victim's ship.
type PlayerKill struct {
	Killer NetworkIdentity
	Victim NetworkIdentity
}

func (*PlayerKill) Type() MessageType { return TypePlayerKill }

func (m *PlayerKill) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Killer)
	writeIdentity(w, m.Victim)
}

func (m *PlayerKill) UnmarshalPacket(r *PacketReader) {
	m.Killer = readIdentity(r)
	m.Victim = readIdentity(r)
}

// EntityAdded spawns an entity on the client.
type EntityAdded struct {
	Entity NetworkIdentity
	Player NetworkIdentity // owning player
	Parent NetworkIdentity // parent entity, InvalidIdentity for none
	Kind   uint8           // entity template
}

func (*EntityAdded) Type() MessageType { return TypeEntityAdded }

func (m *EntityAdded) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Entity)
	writeIdentity(w, m.Player)
	writeIdentity(w, m.Parent)
	w.WriteUint8(m.Kind)
}

func (m *EntityAdded) UnmarshalPacket(r *PacketReader) {
	m.Entity = readIdentity(r)
	m.Player = readIdentity(r)
	m.Parent = readIdentity(r)
	m.Kind = r.Uint8()
}

// EntityRemoved despawns an entity on the client.
type EntityRemoved struct {
	Entity NetworkIdentity
}

func (*EntityRemoved) Type() MessageType { return TypeEntityRemoved }

func (m *EntityRemoved) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Entity)
}

func (m *EntityRemoved) UnmarshalPacket(r *PacketReader) {
	m.Entity = readIdentity(r)
}

// PlayerInput button bits.
const (
	InputForward uint8 = 1 << iota
	InputBackward
	InputTurnLeft
	InputTurnRight
	InputShooting
)

// PlayerInput is one frame of a player's input state. Inputs are sent every
// frame, unreliably and batched; the server keeps only the newest frame.
type PlayerInput struct {
	Player      NetworkIdentity
	FrameNumber uint32
	Buttons     uint8
	AimX, AimY  float32
}

func (*PlayerInput) Type() MessageType { return TypePlayerInput }

func (m *PlayerInput) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Player)
	w.WriteUint32(m.FrameNumber)
	w.WriteUint8(m.Buttons)
	w.WriteFloat32(m.AimX)
	w.WriteFloat32(m.AimY)
}

func (m *PlayerInput) UnmarshalPacket(r *PacketReader) {
	m.Player = readIdentity(r)
	m.FrameNumber = r.Uint32()
	m.Buttons = r.Uint8()
	m.AimX = r.Float32()
	m.AimY = r.Float32()
}

// EntityUpdate is an unreliable snapshot of an entity's transform and
// health. Receivers use the record's sequence number to discard stale
// snapshots.
type EntityUpdate struct {
	Entity   NetworkIdentity
	X, Y     float32
	Rotation float32
	Health   uint16
}

func (*EntityUpdate) Type() MessageType { return TypeEntityUpdate }

func (m *EntityUpdate) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Entity)
	w.WriteFloat32(m.X)
	w.WriteFloat32(m.Y)
	w.WriteFloat32(m.Rotation)
	w.WriteUint16(m.Health)
}

func (m *EntityUpdate) UnmarshalPacket(r *PacketReader) {
	m.Entity = readIdentity(r)
	m.X = r.Float32()
	m.Y = r.Float32()
	m.Rotation = r.Float32()
	m.Health = r.Uint16()
}

// PlayerStats is an unreliable scoreboard snapshot for one player.
type PlayerStats struct {
	Player NetworkIdentity
	Kills  uint16
	Deaths uint16
	Ping   uint16 // milliseconds
}

func (*PlayerStats) Type() MessageType { return TypePlayerStats }

func (m *PlayerStats) MarshalPacket(w *PacketWriter) {
	writeIdentity(w, m.Player)
	w.WriteUint16(m.Kills)
	w.WriteUint16(m.Deaths)
	w.WriteUint16(m.Ping)
}

func (m *PlayerStats) UnmarshalPacket(r *PacketReader) {
	m.Player = readIdentity(r)
	m.Kills = r.Uint16()
	m.Deaths = r.Uint16()
	m.Ping = r.Uint16()
}
