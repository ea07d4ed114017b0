package lwp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwar/lwar"
)

func TestBatchRoundTripSpanningPackets(t *testing.T) {
	var pc packetCapture
	delivery := NewDeliveryManager()
	pa := NewPacketAssembler(delivery, pc.send)

	// Enough inputs that the batch must span several packets.
	const n = 200
	batch := &BatchedMessage{Type: lwar.TypePlayerInput}
	for i := 0; i < n; i++ {
		batch.Add(&lwar.PlayerInput{FrameNumber: uint32(i)})
	}

	pa.PrepareSending(0)
	require.NoError(t, pa.SendBatchedMessages([]*BatchedMessage{batch}))
	require.NoError(t, pa.SendPacket())

	require.GreaterOrEqual(t, len(pc.packets), 2)

	got := decodePackets(t, pc.packets)
	require.Len(t, got, n)
	for i, sm := range got {
		input := sm.Message.(*lwar.PlayerInput)
		assert.Equal(t, uint32(i), input.FrameNumber)
	}

	// Fragments are numbered independently; messages of one fragment
	// share its sequence number.
	assert.Equal(t, got[0].SequenceNumber, got[1].SequenceNumber)
	assert.Less(t, got[0].SequenceNumber, got[n-1].SequenceNumber)
}

func TestDeserializeZeroCountBatch(t *testing.T) {
	w := lwar.NewPacketWriter(make([]byte, 64))
	w.WriteUint8(uint8(lwar.TypePlayerInput))
	w.WriteUint32(1)
	w.WriteUint8(0) // empty fragment

	md := NewMessageDeserializer(NewDeliveryManager())
	md.BeginPacket()

	r := lwar.NewPacketReader(w.Bytes())
	_, found, err := md.TryDeserialize(r)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeserializeTruncatedBatch(t *testing.T) {
	w := lwar.NewPacketWriter(make([]byte, 256))
	w.WriteUint8(uint8(lwar.TypePlayerInput))
	w.WriteUint32(1)
	w.WriteUint8(5) // announces five payloads...
	(&lwar.PlayerInput{FrameNumber: 1}).MarshalPacket(w)
	(&lwar.PlayerInput{FrameNumber: 2}).MarshalPacket(w) // ...delivers two

	md := NewMessageDeserializer(NewDeliveryManager())
	md.BeginPacket()

	r := lwar.NewPacketReader(w.Bytes())
	for i := 0; i < 2; i++ {
		_, found, err := md.TryDeserialize(r)
		require.NoError(t, err)
		require.True(t, found)
	}

	_, found, err := md.TryDeserialize(r)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestDeserializeUnknownType(t *testing.T) {
	w := lwar.NewPacketWriter(make([]byte, 64))
	w.WriteUint8(0xee)
	w.WriteUint32(1)

	md := NewMessageDeserializer(NewDeliveryManager())
	md.BeginPacket()

	_, found, err := md.TryDeserialize(lwar.NewPacketReader(w.Bytes()))
	assert.False(t, found)
	assert.Error(t, err)
}

func TestDeserializeTruncatedPayload(t *testing.T) {
	w := lwar.NewPacketWriter(make([]byte, 64))
	w.WriteUint8(uint8(lwar.TypeChat))
	w.WriteUint32(1)
	w.WriteUint16(3) // half an identity, then nothing

	md := NewMessageDeserializer(NewDeliveryManager())
	md.BeginPacket()

	_, found, err := md.TryDeserialize(lwar.NewPacketReader(w.Bytes()))
	assert.False(t, found)
	assert.Error(t, err)
}

func TestDeserializeRejectsDuplicatesAndGaps(t *testing.T) {
	w := lwar.NewPacketWriter(make([]byte, 512))
	writeChat := func(seq uint32, text string) {
		w.WriteUint8(uint8(lwar.TypeChat))
		w.WriteUint32(seq)
		(&lwar.Chat{Text: text}).MarshalPacket(w)
	}
	writeChat(1, "first")
	writeChat(1, "duplicate")
	writeChat(3, "gap")
	writeChat(2, "second")

	md := NewMessageDeserializer(NewDeliveryManager())
	md.BeginPacket()
	r := lwar.NewPacketReader(w.Bytes())

	var texts []string
	for {
		sm, found, err := md.TryDeserialize(r)
		require.NoError(t, err)
		if !found {
			break
		}
		texts = append(texts, sm.Message.(*lwar.Chat).Text)
	}

	// The duplicate and the out-of-order message are silently dropped.
	assert.Equal(t, []string{"first", "second"}, texts)
}

func TestDeserializeUnreliableAlwaysAdmitted(t *testing.T) {
	w := lwar.NewPacketWriter(make([]byte, 512))
	for _, seq := range []uint32{5, 5, 2} {
		w.WriteUint8(uint8(lwar.TypePlayerStats))
		w.WriteUint32(seq)
		(&lwar.PlayerStats{}).MarshalPacket(w)
	}

	md := NewMessageDeserializer(NewDeliveryManager())
	md.BeginPacket()
	r := lwar.NewPacketReader(w.Bytes())

	var seqs []uint32
	for {
		sm, found, err := md.TryDeserialize(r)
		require.NoError(t, err)
		if !found {
			break
		}
		seqs = append(seqs, sm.SequenceNumber)
	}

	assert.Equal(t, []uint32{5, 5, 2}, seqs)
}

func TestTryReadHeaderRejectsCorruptMagic(t *testing.T) {
	w := lwar.NewPacketWriter(make([]byte, 64))
	PacketHeader{AppIdentifier: AppIdentifier ^ 1, Acknowledgement: 3}.WriteTo(w)

	_, ok := TryReadHeader(lwar.NewPacketReader(w.Bytes()))
	assert.False(t, ok)

	_, ok = TryReadHeader(lwar.NewPacketReader([]byte{0x4c, 0x57}))
	assert.False(t, ok)
}
