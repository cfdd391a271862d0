// Package wire implements the RS225 big-endian primitive codec: bounds-checked
// readers over an accumulator buffer and both growable and capacity-bounded
// writers, per spec §4.1.
package wire

import "errors"

// ErrTruncated is returned by a Reader when fewer bytes remain than requested.
// The packet pipeline treats this as "wait for more bytes," never a disconnect.
var ErrTruncated = errors.New("wire: truncated read")

// ErrOverflow is returned by a bounded Writer when remaining capacity is less
// than the requested write. Fatal for the frame being built.
var ErrOverflow = errors.New("wire: write overflow")
