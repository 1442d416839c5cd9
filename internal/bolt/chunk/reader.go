package chunk

import (
	"encoding/binary"
	"io"

	"github.com/mindstand/golang-bolt-driver/errors"
)

// Reader reassembles chunked messages from the wire. Its backing buffer
// is owned by a single Reader instance and is never shared (spec §5
// shared-resource policy); it grows to accommodate oversized messages and
// shrinks back to defaultSize once cap(buf) is observed exceeding maxSize
// (spec §9 Open Question: measured on real capacity, not allocation
// intent, and shrinks exactly once per crossing).
//
// Grounded in the teacher's encoding/decoder.go Decoder.read, which reads
// the 2-byte chunk length with binary.BigEndian.Uint64 over a 2-byte
// slice - a bug this rewrite fixes by using Uint16.
type Reader struct {
	r           io.Reader
	buf         []byte
	defaultSize int
	maxSize     int

	// ShrinkCount counts how many times the buffer has been shrunk back
	// to defaultSize; exposed so callers can rate-log the event per spec §4.2.
	ShrinkCount int
}

// NewReader creates a Reader reading from r, with an initial buffer of
// defaultSize bytes that is never allowed to stay larger than maxSize
// once observed.
func NewReader(r io.Reader, defaultSize, maxSize int) *Reader {
	if defaultSize <= 0 {
		defaultSize = 4096
	}
	if maxSize < defaultSize {
		maxSize = defaultSize
	}
	return &Reader{
		r:           r,
		buf:         make([]byte, 0, defaultSize),
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}
}

// ReadMessage blocks until a complete message (all non-zero-length
// chunks up to and including the terminating 00 00) has arrived, and
// returns its concatenated payload. The returned slice is only valid
// until the next call to ReadMessage.
func (r *Reader) ReadMessage() ([]byte, error) {
	r.buf = r.buf[:0]
	first := true
	for {
		length, err := r.readChunkHeader()
		if err != nil {
			return nil, err
		}
		if length == 0 {
			if first {
				return nil, errors.NewProtocol("empty message: chunk terminator at start of message")
			}
			payload := r.buf
			r.maybeShrink()
			return payload, nil
		}
		first = false
		if err := r.readChunkPayload(length); err != nil {
			return nil, err
		}
	}
}

func (r *Reader) readChunkHeader() (uint16, error) {
	var header [2]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		return 0, errors.NewTransport(err, "failed reading chunk length header")
	}
	return binary.BigEndian.Uint16(header[:]), nil
}

func (r *Reader) readChunkPayload(length uint16) error {
	start := len(r.buf)
	need := start + int(length)
	if cap(r.buf) < need {
		grown := make([]byte, start, need)
		copy(grown, r.buf)
		r.buf = grown
	}
	r.buf = r.buf[:need]
	if _, err := io.ReadFull(r.r, r.buf[start:need]); err != nil {
		return errors.NewTransport(err, "failed reading chunk payload of %d bytes", length)
	}
	return nil
}

// maybeShrink resets the backing buffer to defaultSize exactly once per
// crossing of maxSize, as observed on real capacity after a message has
// been fully read.
func (r *Reader) maybeShrink() {
	if cap(r.buf) > r.maxSize {
		r.buf = make([]byte, 0, r.defaultSize)
		r.ShrinkCount++
	}
}
