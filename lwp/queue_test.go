package lwp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwar/lwar"
)

func TestQueueReliableBeforeUnreliable(t *testing.T) {
	var pc packetCapture
	delivery := NewDeliveryManager()
	q := NewMessageQueue(delivery)
	pa := NewPacketAssembler(delivery, pc.send)

	// Enqueued in the "wrong" order on purpose.
	q.Enqueue(&lwar.PlayerStats{Kills: 1})
	q.Enqueue(&lwar.PlayerInput{FrameNumber: 4})
	q.Enqueue(&lwar.Chat{Text: "reliable"})

	pa.PrepareSending(0)
	require.NoError(t, q.SendMessages(pa))

	got := decodePackets(t, pc.packets)
	require.Len(t, got, 3)
	assert.Equal(t, lwar.TypeChat, got[0].Message.Type())
	assert.Equal(t, lwar.TypePlayerStats, got[1].Message.Type())
	assert.Equal(t, lwar.TypePlayerInput, got[2].Message.Type())
}

func TestQueueRetainsReliableUntilAcked(t *testing.T) {
	var pc packetCapture
	delivery := NewDeliveryManager()
	q := NewMessageQueue(delivery)
	pa := NewPacketAssembler(delivery, pc.send)

	q.Enqueue(&lwar.Chat{Text: "a"})
	q.Enqueue(&lwar.Chat{Text: "b"})

	// First tick: both sent.
	pa.PrepareSending(0)
	require.NoError(t, q.SendMessages(pa))
	require.Len(t, decodePackets(t, pc.packets), 2)

	// Second tick, nothing acked: both resent.
	pc.packets = nil
	pa.PrepareSending(0)
	require.NoError(t, q.SendMessages(pa))
	require.Len(t, decodePackets(t, pc.packets), 2)

	// Peer acked the first: only the second remains.
	delivery.UpdateLastAckedSequenceNumber(1)
	pc.packets = nil
	pa.PrepareSending(0)
	require.NoError(t, q.SendMessages(pa))

	got := decodePackets(t, pc.packets)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(2), got[0].SequenceNumber)

	// Everything acked: a header-only keepalive is still sent.
	delivery.UpdateLastAckedSequenceNumber(2)
	pc.packets = nil
	pa.PrepareSending(0)
	require.NoError(t, q.SendMessages(pa))
	require.Len(t, pc.packets, 1)
	assert.Equal(t, HeaderSize, len(pc.packets[0]))
}

func TestQueueDiscardsUnreliableAfterSend(t *testing.T) {
	var pc packetCapture
	delivery := NewDeliveryManager()
	q := NewMessageQueue(delivery)
	pa := NewPacketAssembler(delivery, pc.send)

	q.Enqueue(&lwar.PlayerStats{})
	q.Enqueue(&lwar.PlayerInput{})

	pa.PrepareSending(0)
	require.NoError(t, q.SendMessages(pa))
	require.Len(t, decodePackets(t, pc.packets), 2)

	// Fire and forget: nothing survives to the next tick.
	pc.packets = nil
	pa.PrepareSending(0)
	require.NoError(t, q.SendMessages(pa))
	assert.Empty(t, decodePackets(t, pc.packets))
}

func TestQueueBatchesPerType(t *testing.T) {
	var pc packetCapture
	delivery := NewDeliveryManager()
	q := NewMessageQueue(delivery)
	pa := NewPacketAssembler(delivery, pc.send)

	q.Enqueue(&lwar.PlayerInput{FrameNumber: 1})
	q.Enqueue(&lwar.EntityUpdate{Health: 10})
	q.Enqueue(&lwar.PlayerInput{FrameNumber: 2})

	pa.PrepareSending(0)
	require.NoError(t, q.SendMessages(pa))

	got := decodePackets(t, pc.packets)
	require.Len(t, got, 3)

	// Same-type messages share their fragment's sequence number and keep
	// enqueue order within the batch.
	assert.Equal(t, lwar.TypePlayerInput, got[0].Message.Type())
	assert.Equal(t, lwar.TypePlayerInput, got[1].Message.Type())
	assert.Equal(t, got[0].SequenceNumber, got[1].SequenceNumber)
	assert.Equal(t, uint32(1), got[0].Message.(*lwar.PlayerInput).FrameNumber)
	assert.Equal(t, uint32(2), got[1].Message.(*lwar.PlayerInput).FrameNumber)

	assert.Equal(t, lwar.TypeEntityUpdate, got[2].Message.Type())
}
