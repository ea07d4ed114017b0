package lwar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketWriterOverflow(t *testing.T) {
	w := NewPacketWriter(make([]byte, 4))

	w.WriteUint16(0x0102)
	require.False(t, w.Overflowed())

	mark := w.Mark()
	w.WriteUint32(0x03040506)
	require.True(t, w.Overflowed())

	// Once overflowed, further writes are dropped until a rollback.
	w.WriteUint8(0xff)
	assert.Equal(t, 2, w.Len())

	w.ResetTo(mark)
	require.False(t, w.Overflowed())

	w.WriteUint16(0x0708)
	require.False(t, w.Overflowed())
	assert.Equal(t, []byte{0x01, 0x02, 0x07, 0x08}, w.Bytes())
}

func TestPacketWriterPatch(t *testing.T) {
	w := NewPacketWriter(make([]byte, 8))

	pos := w.Mark()
	w.WriteUint8(0)
	w.WriteUint16(0xbeef)
	w.PatchUint8(pos, 3)

	assert.Equal(t, []byte{3, 0xbe, 0xef}, w.Bytes())
	assert.Panics(t, func() { w.PatchUint8(w.Mark(), 1) })
}

func TestPacketWriterStringTruncation(t *testing.T) {
	w := NewPacketWriter(make([]byte, 512))
	w.WriteString(strings.Repeat("x", 300))

	require.False(t, w.Overflowed())
	assert.Equal(t, 1+255, w.Len())
}

func TestPacketReaderTruncated(t *testing.T) {
	r := NewPacketReader([]byte{0x01, 0x02})

	assert.Equal(t, uint16(0x0102), r.Uint16())
	require.False(t, r.Truncated())

	assert.Equal(t, uint32(0), r.Uint32())
	assert.True(t, r.Truncated())

	// The flag is sticky.
	assert.Equal(t, uint8(0), r.Uint8())
	assert.True(t, r.Truncated())
}

func TestPacketRoundTrip(t *testing.T) {
	w := NewPacketWriter(make([]byte, 64))
	w.WriteUint8(7)
	w.WriteUint16(512)
	w.WriteUint32(1 << 20)
	w.WriteFloat32(3.5)
	w.WriteString("hello")
	require.False(t, w.Overflowed())

	r := NewPacketReader(w.Bytes())
	assert.Equal(t, uint8(7), r.Uint8())
	assert.Equal(t, uint16(512), r.Uint16())
	assert.Equal(t, uint32(1<<20), r.Uint32())
	assert.Equal(t, float32(3.5), r.Float32())
	assert.Equal(t, "hello", r.String())
	require.False(t, r.Truncated())
	assert.Equal(t, 0, r.Remaining())
}
