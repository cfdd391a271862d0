package wire

import "encoding/binary"

// Reader reads big-endian primitives sequentially from a fixed byte slice,
// advancing an internal cursor; the slice itself is never modified. Pos and
// Seek let a caller save and restore that cursor.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential big-endian reads starting at offset 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current read cursor.
func (r *Reader) Pos() int { return r.pos }

// Seek repositions the read cursor, e.g. back to a position saved with Pos
// after a provisional read.
func (r *Reader) Seek(pos int) { r.pos = pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// ReadU8 reads one unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, ErrTruncated
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadI8 reads one signed byte (two's complement).
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadString reads a 1-byte-length-prefixed ASCII string with no wire
// terminator.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	if r.Remaining() < int(n) {
		return "", ErrTruncated
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
