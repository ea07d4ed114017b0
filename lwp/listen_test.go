package lwp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwar/lwar"
)

func TestListenerAcceptAndEcho(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	client, err := Dial(l.Addr().String())
	require.NoError(t, err)
	defer client.Disconnect()

	require.NoError(t, client.EnqueueMessage(&lwar.Chat{Text: "hello server"}))
	require.NoError(t, client.SendQueuedMessages())

	// The first datagram from an unknown address creates an established
	// connection.
	var server *Conn
	require.Eventually(t, func() bool {
		accepted, err := l.Poll()
		require.NoError(t, err)
		if len(accepted) > 0 {
			server = accepted[0]
		}
		return server != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Len(t, l.Conns(), 1)

	var rec recorder
	require.Eventually(t, func() bool {
		_, err := l.Poll()
		require.NoError(t, err)
		require.NoError(t, server.DispatchReceivedMessages(&rec))
		return len(rec.chats) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"hello server"}, rec.chats)

	// Echo back; the client was in the connecting state until the
	// server's answer arrives.
	require.NoError(t, server.EnqueueMessage(&lwar.Chat{Text: "hello client"}))
	require.NoError(t, server.SendQueuedMessages())

	var crec recorder
	require.Eventually(t, func() bool {
		require.NoError(t, client.DispatchReceivedMessages(&crec))
		return len(crec.chats) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"hello client"}, crec.chats)
	assert.Equal(t, stateEstablished, client.state)
}

func TestListenerForgetsDroppedConns(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	client, err := Dial(l.Addr().String())
	require.NoError(t, err)
	defer client.Disconnect()

	require.NoError(t, client.SendQueuedMessages())

	var server *Conn
	require.Eventually(t, func() bool {
		accepted, err := l.Poll()
		require.NoError(t, err)
		if len(accepted) > 0 {
			server = accepted[0]
		}
		return server != nil
	}, 2*time.Second, 10*time.Millisecond)

	server.Disconnect()

	_, err = l.Poll()
	require.NoError(t, err)
	assert.Empty(t, l.Conns())
}
