package wire

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates big-endian primitives into a buffer. With a zero Cap it
// is growable and every Write* call succeeds (per §4.1, "write operations to
// a growable buffer never fail"), except WriteString with a string over 255
// bytes, whose length cannot fit the 1-byte prefix (ErrOverflow). With a
// positive Cap it is bounded: any
// write that would exceed Cap returns ErrOverflow and leaves the buffer
// unchanged.
type Writer struct {
	buf *bytes.Buffer
	cap int // 0 = unbounded
}

// NewWriter returns a growable writer with the given initial capacity hint.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: bytes.NewBuffer(make([]byte, 0, sizeHint))}
}

// NewBoundedWriter returns a writer that fails with ErrOverflow once the
// buffer would exceed max bytes.
func NewBoundedWriter(max int) *Writer {
	return &Writer{buf: bytes.NewBuffer(make([]byte, 0, max)), cap: max}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

func (w *Writer) checkRoom(n int) error {
	if w.cap > 0 && w.buf.Len()+n > w.cap {
		return ErrOverflow
	}
	return nil
}

// WriteU8 appends one byte.
func (w *Writer) WriteU8(v uint8) error {
	if err := w.checkRoom(1); err != nil {
		return err
	}
	w.buf.WriteByte(v)
	return nil
}

// WriteI8 appends one signed byte (two's complement).
func (w *Writer) WriteI8(v int8) error {
	return w.WriteU8(uint8(v))
}

// WriteU16 appends a big-endian uint16.
func (w *Writer) WriteU16(v uint16) error {
	if err := w.checkRoom(2); err != nil {
		return err
	}
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf.Write(tmp[:])
	return nil
}

// WriteU32 appends a big-endian uint32.
func (w *Writer) WriteU32(v uint32) error {
	if err := w.checkRoom(4); err != nil {
		return err
	}
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
	return nil
}

// WriteU64 appends a big-endian uint64.
func (w *Writer) WriteU64(v uint64) error {
	if err := w.checkRoom(8); err != nil {
		return err
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
	return nil
}

// WriteString appends a 1-byte-length-prefixed ASCII string, no terminator.
func (w *Writer) WriteString(s string) error {
	if len(s) > 255 {
		return ErrOverflow
	}
	if err := w.checkRoom(1 + len(s)); err != nil {
		return err
	}
	w.buf.WriteByte(byte(len(s)))
	w.buf.WriteString(s)
	return nil
}

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) error {
	if err := w.checkRoom(len(b)); err != nil {
		return err
	}
	w.buf.Write(b)
	return nil
}

// PatchU8 overwrites the byte at offset with v. Used to backfill a length
// placeholder once the payload size is known (§4.11).
func (w *Writer) PatchU8(offset int, v uint8) {
	w.buf.Bytes()[offset] = v
}

// PatchU16 overwrites the big-endian uint16 at offset with v.
func (w *Writer) PatchU16(offset int, v uint16) {
	binary.BigEndian.PutUint16(w.buf.Bytes()[offset:offset+2], v)
}
