// Package testutil provides the driver's substitute for a live Neo4j
// server in tests: a net.Conn that records a session's reads and writes
// and can replay them back, grounded in the teacher's recorder.go. The
// chunk framer and message engine only need an io.Reader/io.Writer, so a
// Recorder plugs directly into chunk.NewWriter/chunk.NewReader (or a
// bufio-wrapped pair of them) in place of a real socket.
package testutil

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/packstream"
)

// endMarker is the chunk terminator spec §4.2 defines: a zero-length
// chunk header. A completed message's raw bytes end with it.
var endMarker = []byte{0x00, 0x00}

// Event is a single recorded read or write.
type Event struct {
	Timestamp int64 `json:"-"`
	Data      []byte
	IsWrite   bool
	Completed bool
	Error     error
}

func newEvent(isWrite bool) *Event {
	return &Event{IsWrite: isWrite}
}

// Recorder is a net.Conn that either records a live session (when built
// over a real net.Conn) or replays a previously recorded one (when built
// from a name with no backing Conn), the same dual mode the teacher's
// recorder supported.
type Recorder struct {
	net.Conn
	name    string
	events  []*Event
	current int
}

// NewRecorder wraps conn, recording every Read/Write against it under
// name.
func NewRecorder(name string, conn net.Conn) *Recorder {
	return &Recorder{Conn: conn, name: name}
}

// LoadRecorder replays a previously saved recording by name instead of
// talking to a live connection.
func LoadRecorder(name string) (*Recorder, error) {
	r := &Recorder{name: name}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) Read(p []byte) (int, error) {
	if r.Conn != nil {
		n, err := r.Conn.Read(p)
		r.record(p[:n], false)
		r.recordErr(err, false)
		return n, err
	}

	if r.current >= len(r.events) {
		return 0, errors.NewClient("recorder %q: read past all recorded events", r.name)
	}
	event := r.events[r.current]
	if event.IsWrite {
		return 0, errors.NewClient("recorder %q: expected read, got write at event %d", r.name, r.current)
	}
	if len(p) > len(event.Data) {
		return 0, errors.NewClient("recorder %q: read past current event's data at event %d", r.name, r.current)
	}

	n := copy(p, event.Data)
	event.Data = event.Data[n:]
	if len(event.Data) == 0 {
		r.current++
	}
	return n, nil
}

func (r *Recorder) Write(p []byte) (int, error) {
	if r.Conn != nil {
		n, err := r.Conn.Write(p)
		r.record(p[:n], true)
		r.recordErr(err, true)
		return n, err
	}

	if r.current >= len(r.events) {
		return 0, errors.NewClient("recorder %q: write past all recorded events", r.name)
	}
	event := r.events[r.current]
	if !event.IsWrite {
		return 0, errors.NewClient("recorder %q: expected write, got read at event %d", r.name, r.current)
	}
	if len(p) > len(event.Data) {
		return 0, errors.NewClient("recorder %q: write past current event's data at event %d", r.name, r.current)
	}

	event.Data = event.Data[len(p):]
	if len(event.Data) == 0 {
		r.current++
	}
	return len(p), nil
}

// Close closes the underlying connection (if any) and, when
// BOLT_DRIVER_RECORD is set, persists the recording to disk.
func (r *Recorder) Close() error {
	if r.Conn != nil {
		if err := r.flush(); err != nil {
			return err
		}
		return r.Conn.Close()
	}
	if r.current != len(r.events) {
		return errors.NewClient("recorder %q: not all recorded events were replayed", r.name)
	}
	return nil
}

func (r *Recorder) record(data []byte, isWrite bool) {
	if len(data) == 0 {
		return
	}
	event := r.lastEvent()
	if event == nil || event.Completed || event.IsWrite != isWrite {
		event = newEvent(isWrite)
		r.events = append(r.events, event)
	}
	event.Data = append(event.Data, data...)
	event.Completed = bytes.HasSuffix(data, endMarker)
}

func (r *Recorder) recordErr(err error, isWrite bool) {
	if err == nil {
		return
	}
	event := r.lastEvent()
	if event == nil || event.Completed || event.IsWrite != isWrite {
		event = newEvent(isWrite)
		r.events = append(r.events, event)
	}
	event.Error = err
	event.Completed = true
}

func (r *Recorder) lastEvent() *Event {
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func (r *Recorder) recordingPath() string {
	return filepath.Join("recordings", r.name+".json")
}

func (r *Recorder) load() error {
	file, err := os.Open(r.recordingPath())
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(&r.events)
}

func (r *Recorder) flush() error {
	if os.Getenv("BOLT_DRIVER_RECORD") == "" {
		return nil
	}
	file, err := os.OpenFile(r.recordingPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0660)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewEncoder(file).Encode(r.events)
}

// DecodeLastMessage decodes the payload of the most recent event, whether
// or not it has completed, for diagnostic purposes, stripping the chunk
// framing first.
func (r *Recorder) DecodeLastMessage() (interface{}, error) {
	event := r.lastEvent()
	if event == nil {
		return nil, errors.NewClient("recorder %q: no recorded events", r.name)
	}
	payload := unchunk(event.Data)
	return packstream.NewDecoder(payload).Decode()
}

// unchunk strips the 2-byte length-prefixed chunk framing (and the
// trailing zero-length terminator) from a raw recorded message,
// concatenating every chunk's payload back into one buffer.
func unchunk(raw []byte) []byte {
	var out []byte
	for len(raw) >= 2 {
		n := int(raw[0])<<8 | int(raw[1])
		raw = raw[2:]
		if n == 0 {
			break
		}
		if n > len(raw) {
			break
		}
		out = append(out, raw[:n]...)
		raw = raw[n:]
	}
	return out
}

func (r *Recorder) LocalAddr() net.Addr {
	if r.Conn != nil {
		return r.Conn.LocalAddr()
	}
	return nil
}

func (r *Recorder) RemoteAddr() net.Addr {
	if r.Conn != nil {
		return r.Conn.RemoteAddr()
	}
	return nil
}

func (r *Recorder) SetDeadline(t time.Time) error {
	if r.Conn != nil {
		return r.Conn.SetDeadline(t)
	}
	return nil
}

func (r *Recorder) SetReadDeadline(t time.Time) error {
	if r.Conn != nil {
		return r.Conn.SetReadDeadline(t)
	}
	return nil
}

func (r *Recorder) SetWriteDeadline(t time.Time) error {
	if r.Conn != nil {
		return r.Conn.SetWriteDeadline(t)
	}
	return nil
}
