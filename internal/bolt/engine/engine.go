// Package engine implements the message engine (spec §4.4): it owns the
// encoder, decoder, and a FIFO queue of outstanding response handlers,
// and drives send/receive for one connection.
//
// Grounded in the official driver's bolt5.go messageQueue/responseHandler
// pattern (neo4j-neo4j-go-driver__bolt5.go in the reference pack),
// re-expressed in this repo's own naming and built directly on the
// chunk/packstream/structhandlers packages instead of that driver's
// internal buffer machinery.
package engine

import (
	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/chunk"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/packstream"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/structhandlers"
	"github.com/mindstand/golang-bolt-driver/internal/transport"
	"github.com/mindstand/golang-bolt-driver/log"
	"github.com/mindstand/golang-bolt-driver/structures/messages"
)

// ResponseHandler receives the callbacks the engine dispatches for one
// enqueued request, in the order spec §4.4 describes: zero or more
// OnRecord calls, then exactly one of OnSuccess/OnFailure/OnIgnored.
type ResponseHandler struct {
	OnSuccess func(metadata map[string]interface{}) error
	OnRecord  func(fields []interface{}) error
	OnFailure func(metadata map[string]interface{}) error
	OnIgnored func() error
	// OnFatal is invoked instead of the above when the connection dies
	// with this handler still outstanding (spec §4.4 "fatal I/O error").
	OnFatal func(err error)
}

// Engine is the per-connection message engine. Not safe for concurrent
// use: a connection belongs to exactly one consumer at a time (spec §3).
type Engine struct {
	transport *transport.Transport
	writer    *chunk.Writer
	reader    *chunk.Reader
	encoder   *packstream.Encoder
	registry  *structhandlers.Registry

	queue []*ResponseHandler

	broken bool

	// resetting and resetHandler implement spec §4.4's Reset semantics:
	// while resetting is true, every popped handler up to (and excluding)
	// resetHandler is completed as ignored regardless of what the wire
	// actually sent for it.
	resetting   bool
	resetHandler *ResponseHandler
}

// New builds an Engine over an already-connected, already-handshaken
// Transport, using the given buffer sizes for the chunk reader.
func New(t *transport.Transport, defaultReadBuf, maxReadBuf int) *Engine {
	w := chunk.NewWriter(writerAdapter{t}, chunk.DefaultChunkSize)
	return &Engine{
		transport: t,
		writer:    w,
		reader:    chunk.NewReader(readerAdapter{t}, defaultReadBuf, maxReadBuf),
		encoder:   packstream.NewEncoder(w),
		registry:  structhandlers.NewRegistry(),
	}
}

// writerAdapter/readerAdapter let chunk.Writer/Reader (which want
// io.Writer/io.Reader) drive a *transport.Transport's ReadStream/WriteStream.
type writerAdapter struct{ t *transport.Transport }

func (w writerAdapter) Write(p []byte) (int, error) { return w.t.WriteStream(p) }

type readerAdapter struct{ t *transport.Transport }

func (r readerAdapter) Read(p []byte) (int, error) { return r.t.ReadStream(p) }

// Broken reports whether a fatal I/O error has already tripped the engine.
func (e *Engine) Broken() bool {
	return e.broken
}

// Enqueue encodes msg as a PackStream struct, writes it as one chunked
// message, and appends handler to the FIFO queue. Per spec §4.4 this does
// not block on the network beyond the write itself - requests may be
// pipelined ahead of reading their responses.
func (e *Engine) Enqueue(msg interface{}, handler *ResponseHandler) error {
	if e.broken {
		return errors.NewTransport(nil, "cannot enqueue on a broken connection")
	}
	s, ok, err := e.registry.EncodeValue(msg)
	if err != nil {
		e.fail(err)
		return err
	}
	if !ok {
		err := errors.NewClient("no struct handler registered for message type %T", msg)
		e.fail(err)
		return err
	}
	if err := e.encoder.Encode(s); err != nil {
		e.fail(err)
		return err
	}
	if err := e.writer.EndMessage(); err != nil {
		e.fail(err)
		return err
	}
	e.queue = append(e.queue, handler)
	return nil
}

// Reset enqueues a RESET request and arranges for every handler currently
// queued ahead of it to observe an ignored outcome once its response
// arrives, per spec §4.4.
func (e *Engine) Reset(handler *ResponseHandler) error {
	if err := e.Enqueue(messages.NewResetMessage(), handler); err != nil {
		return err
	}
	e.resetting = true
	e.resetHandler = handler
	return nil
}

// Flush reads and dispatches responses until the handler queue is empty.
// Each response pops exactly one handler, except RECORD responses, which
// are delivered to the handler at the front of the queue without popping
// it (spec §4.4).
func (e *Engine) Flush() error {
	for len(e.queue) > 0 {
		payload, err := e.reader.ReadMessage()
		if err != nil {
			e.fail(err)
			return err
		}
		value, err := e.decodeMessage(payload)
		if err != nil {
			e.fail(err)
			return err
		}
		if err := e.dispatch(value); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) decodeMessage(payload []byte) (interface{}, error) {
	dec := packstream.NewDecoder(payload)
	raw, err := dec.Decode()
	if err != nil {
		return nil, err
	}
	if dec.Remaining() != 0 {
		return nil, errors.NewProtocol("trailing bytes after decoding one response message")
	}
	return e.registry.Resolve(raw)
}

func (e *Engine) dispatch(value interface{}) error {
	if len(e.queue) == 0 {
		return errors.NewProtocol("received a response with no outstanding request")
	}
	front := e.queue[0]

	if e.resetting && front != e.resetHandler {
		if _, isRecord := value.(messages.RecordMessage); isRecord {
			return nil
		}
		e.queue = e.queue[1:]
		log.Trace("discarding response as ignored: connection is mid-RESET")
		return callIgnored(front)
	}

	switch v := value.(type) {
	case messages.RecordMessage:
		if front.OnRecord != nil {
			return front.OnRecord(v.Fields)
		}
		return nil
	case messages.SuccessMessage:
		e.queue = e.queue[1:]
		if front == e.resetHandler {
			e.resetting = false
			e.resetHandler = nil
		}
		if front.OnSuccess != nil {
			return front.OnSuccess(v.Metadata)
		}
		return nil
	case messages.FailureMessage:
		e.queue = e.queue[1:]
		if front == e.resetHandler {
			e.resetting = false
			e.resetHandler = nil
		}
		if front.OnFailure != nil {
			return front.OnFailure(v.Metadata)
		}
		return nil
	case messages.IgnoredMessage:
		e.queue = e.queue[1:]
		return callIgnored(front)
	default:
		e.queue = e.queue[1:]
		return errors.NewProtocol("unexpected response message type: %T", v)
	}
}

func callIgnored(h *ResponseHandler) error {
	if h.OnIgnored != nil {
		return h.OnIgnored()
	}
	return nil
}

// fail implements spec §4.4's fatal I/O error path: every outstanding
// handler is completed with a failure, the engine is marked broken, and
// further Enqueue calls fail fast.
func (e *Engine) fail(err error) {
	if e.broken {
		return
	}
	e.broken = true
	pending := e.queue
	e.queue = nil
	for _, h := range pending {
		if h.OnFatal != nil {
			h.OnFatal(err)
		}
	}
}
