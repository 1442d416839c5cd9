// Package chunk implements the Bolt chunked framing layer: length-prefixed
// chunks terminated by a zero-length chunk, as described in spec §4.2.
// It is grounded in the teacher driver's encoding/encoder.go buffering
// scheme (Encoder.buf/writeChunk), split out into its own layer so the
// codec above it no longer needs to know about chunk boundaries.
package chunk

import (
	"encoding/binary"
	"io"
)

// maxChunkSize is the largest payload a single chunk can carry; the
// 16-bit length prefix caps it at 65535 bytes (spec §4.2).
const maxChunkSize = 0xFFFF

// DefaultChunkSize is the chunk payload size used when callers have no
// specific reason to pick another, matching the teacher's default buffer
// size (encoding/encoder.go).
const DefaultChunkSize = 4096

// endMarker terminates a message: a chunk header of length zero.
var endMarker = []byte{0x00, 0x00}

// Writer accumulates the bytes of one outgoing message, splitting them
// into chunks of at most size bytes and writing a zero-length terminator
// when EndMessage is called.
type Writer struct {
	w    io.Writer
	buf  []byte
	n    int
	size int
}

// NewWriter creates a Writer that flushes chunks of at most size bytes
// to w.
func NewWriter(w io.Writer, size int) *Writer {
	if size <= 0 || size > maxChunkSize {
		size = maxChunkSize
	}
	return &Writer{w: w, buf: make([]byte, size), size: size}
}

// Write buffers p, flushing full chunks to the underlying stream as the
// buffer fills. It never blocks on a partial chunk.
func (w *Writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		m := copy(w.buf[w.n:], p[written:])
		w.n += m
		written += m
		if w.n == w.size {
			if err := w.flushChunk(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (w *Writer) flushChunk() error {
	if w.n == 0 {
		return nil
	}
	var header [2]byte
	binary.BigEndian.PutUint16(header[:], uint16(w.n))
	if _, err := w.w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.w.Write(w.buf[:w.n])
	w.n = 0
	return err
}

// EndMessage flushes any buffered bytes as a final chunk, then writes the
// zero-length terminator that marks the end of the message on the wire.
func (w *Writer) EndMessage() error {
	if err := w.flushChunk(); err != nil {
		return err
	}
	_, err := w.w.Write(endMarker)
	return err
}
