package chunk

import (
	"bytes"
	"testing"
)

// writeSplit writes b to a Writer in arbitrary-sized pieces (forcing
// Write to be called multiple times with partial data) and ends the
// message, exercising spec §8 property 3: round trip across chunk
// boundaries, whatever they land on.
func writeSplit(t *testing.T, w *Writer, b []byte, pieceSize int) {
	t.Helper()
	for len(b) > 0 {
		n := pieceSize
		if n > len(b) {
			n = len(b)
		}
		if _, err := w.Write(b[:n]); err != nil {
			t.Fatalf("write: %v", err)
		}
		b = b[n:]
	}
	if err := w.EndMessage(); err != nil {
		t.Fatalf("end message: %v", err)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		size      int
		chunkSize int
		pieceSize int
	}{
		{"small payload, default chunk", 100, DefaultChunkSize, 7},
		{"payload larger than one chunk", 10_000, 1024, 4096},
		{"payload exactly one chunk", 4096, 4096, 4096},
		{"large payload, small chunk", 200_000, 128, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			payload := make([]byte, c.size)
			for i := range payload {
				payload[i] = byte(i)
			}

			var wire bytes.Buffer
			w := NewWriter(&wire, c.chunkSize)
			writeSplit(t, w, payload, c.pieceSize)

			raw := wire.Bytes()
			if !bytes.Equal(raw[len(raw)-2:], endMarker) {
				t.Fatalf("wire did not end with the zero-length terminator: % x", raw[len(raw)-2:])
			}

			r := NewReader(&wire, 4096, 1<<20)
			got, err := r.ReadMessage()
			if err != nil {
				t.Fatalf("read message: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(payload))
			}
		})
	}
}

func TestReaderShrinksExactlyOncePerCrossing(t *testing.T) {
	payload := make([]byte, 10_000)
	var wire bytes.Buffer
	w := NewWriter(&wire, 4096)
	writeSplit(t, w, payload, 4096)

	r := NewReader(&wire, 512, 2048)
	if _, err := r.ReadMessage(); err != nil {
		t.Fatalf("read message: %v", err)
	}
	if r.ShrinkCount != 1 {
		t.Fatalf("ShrinkCount = %d, want 1", r.ShrinkCount)
	}
	if cap(r.buf) != 512 {
		t.Fatalf("buffer capacity after shrink = %d, want 512", cap(r.buf))
	}
}

func TestEmptyMessageAtStartIsProtocolError(t *testing.T) {
	wire := bytes.NewBuffer([]byte{0x00, 0x00})
	r := NewReader(wire, 4096, 1<<20)
	if _, err := r.ReadMessage(); err == nil {
		t.Fatal("expected protocol error for empty message, got nil")
	}
}
