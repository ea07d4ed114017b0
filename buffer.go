package lwar

import (
	"encoding/binary"
	"math"
)

var be = binary.BigEndian

// A PacketWriter serializes values into a fixed-size scratch buffer.
// Writes past the end of the buffer set a sticky overflow flag instead of
// growing it; callers that need all-or-nothing semantics take a Mark before
// writing and roll back with ResetTo when Overflowed reports true.
type PacketWriter struct {
	buf      []byte
	off      int
	overflow bool
}

// NewPacketWriter returns a PacketWriter writing into buf.
// The writer never allocates; buf is reused across packets via Reset.
func NewPacketWriter(buf []byte) *PacketWriter {
	return &PacketWriter{buf: buf}
}

// Reset discards all written data and clears the overflow flag.
func (w *PacketWriter) Reset() {
	w.off = 0
	w.overflow = false
}

// Len returns the number of bytes written so far.
func (w *PacketWriter) Len() int { return w.off }

// Remaining returns the number of bytes left in the buffer.
func (w *PacketWriter) Remaining() int { return len(w.buf) - w.off }

// Bytes returns the written portion of the buffer.
func (w *PacketWriter) Bytes() []byte { return w.buf[:w.off] }

// Overflowed reports whether any write did not fit.
func (w *PacketWriter) Overflowed() bool { return w.overflow }

// Mark returns the current write position.
func (w *PacketWriter) Mark() int { return w.off }

// ResetTo rolls the write position back to a previous Mark
// and clears the overflow flag.
func (w *PacketWriter) ResetTo(mark int) {
	w.off = mark
	w.overflow = false
}

func (w *PacketWriter) ensure(n int) bool {
	if w.overflow || w.off+n > len(w.buf) {
		w.overflow = true
		return false
	}
	return true
}

func (w *PacketWriter) WriteUint8(v uint8) {
	if !w.ensure(1) {
		return
	}
	w.buf[w.off] = v
	w.off++
}

func (w *PacketWriter) WriteUint16(v uint16) {
	if !w.ensure(2) {
		return
	}
	be.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *PacketWriter) WriteUint32(v uint32) {
	if !w.ensure(4) {
		return
	}
	be.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *PacketWriter) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteString writes a string with a u8 length prefix.
// Strings longer than 255 bytes are truncated.
func (w *PacketWriter) WriteString(s string) {
	if len(s) > math.MaxUint8 {
		s = s[:math.MaxUint8]
	}
	if !w.ensure(1 + len(s)) {
		return
	}
	w.buf[w.off] = uint8(len(s))
	w.off++
	copy(w.buf[w.off:], s)
	w.off += len(s)
}

// PatchUint8 overwrites a single already-written byte, typically one
// reserved earlier via Mark. pos must be < Len.
func (w *PacketWriter) PatchUint8(pos int, v uint8) {
	if pos >= w.off {
		panic("lwar: PatchUint8 position beyond written data")
	}
	w.buf[pos] = v
}

// A PacketReader reads big-endian values out of a received packet buffer.
// Reads past the end of the buffer return zero values and set a sticky
// truncation flag; callers check Truncated once after a group of reads.
type PacketReader struct {
	buf       []byte
	off       int
	truncated bool
}

// NewPacketReader returns a PacketReader over buf.
func NewPacketReader(buf []byte) *PacketReader {
	return &PacketReader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *PacketReader) Remaining() int { return len(r.buf) - r.off }

// Truncated reports whether any read ran past the end of the buffer.
func (r *PacketReader) Truncated() bool { return r.truncated }

func (r *PacketReader) eat(n int) []byte {
	if r.truncated || r.off+n > len(r.buf) {
		r.truncated = true
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *PacketReader) Uint8() uint8 {
	b := r.eat(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *PacketReader) Uint16() uint16 {
	b := r.eat(2)
	if b == nil {
		return 0
	}
	return be.Uint16(b)
}

func (r *PacketReader) Uint32() uint32 {
	b := r.eat(4)
	if b == nil {
		return 0
	}
	return be.Uint32(b)
}

func (r *PacketReader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

// String reads a u8-length-prefixed string.
func (r *PacketReader) String() string {
	n := r.Uint8()
	b := r.eat(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}
