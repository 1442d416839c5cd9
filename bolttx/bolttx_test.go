package bolttx

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mindstand/golang-bolt-driver/config"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/chunk"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/engine"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/packstream"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/structhandlers"
	"github.com/mindstand/golang-bolt-driver/internal/transport"
)

// fakeServer speaks just enough of the wire protocol to drive a
// Transaction through the state machine: it reads one request message,
// inspects its struct tag, and replies with a canned SUCCESS/FAILURE.
type fakeServer struct {
	reader *chunk.Reader
	writer *chunk.Writer
}

func newFakeServer(conn net.Conn) *fakeServer {
	return &fakeServer{
		reader: chunk.NewReader(conn, 4096, 1<<20),
		writer: chunk.NewWriter(conn, chunk.DefaultChunkSize),
	}
}

func (f *fakeServer) recvTag() (byte, error) {
	payload, err := f.reader.ReadMessage()
	if err != nil {
		return 0, err
	}
	v, err := packstream.NewDecoder(payload).Decode()
	if err != nil {
		return 0, err
	}
	s, ok := v.(*packstream.Struct)
	if !ok {
		return 0, fmt.Errorf("expected *packstream.Struct, got %T", v)
	}
	return s.Tag, nil
}

func (f *fakeServer) send(tag byte, meta map[string]interface{}) error {
	s := &packstream.Struct{Tag: tag, Fields: []interface{}{meta}}
	if err := packstream.NewEncoder(f.writer).Encode(s); err != nil {
		return err
	}
	return f.writer.EndMessage()
}

func (f *fakeServer) sendSuccess(meta map[string]interface{}) error {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return f.send(structhandlers.TagSuccess, meta)
}

// newTestTransaction wires a Transaction over one end of a net.Pipe,
// running serve on the other end in its own goroutine.
func newTestTransaction(t *testing.T, onDispose ResourceHandler, serve func(*fakeServer)) *Transaction {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	go func() {
		fs := newFakeServer(server)
		serve(fs)
	}()

	tr := transport.NewFromConn(client, config.Default())
	eng := engine.New(tr, 4096, 1<<20)
	return New(eng, onDispose)
}

func beginThenServe(extra func(*fakeServer)) func(*fakeServer) {
	return func(fs *fakeServer) {
		if _, err := fs.recvTag(); err != nil { // BEGIN
			return
		}
		if err := fs.sendSuccess(nil); err != nil {
			return
		}
		if extra != nil {
			extra(fs)
		}
	}
}

func TestCommitOnSuccessFlag(t *testing.T) {
	disposed := make(chan string, 1)
	onDispose := func(bookmark string) { disposed <- bookmark }

	tx := newTestTransaction(t, onDispose, beginThenServe(func(fs *fakeServer) {
		_, _ = fs.recvTag() // COMMIT
		_ = fs.sendSuccess(map[string]interface{}{"bookmark": "bm-1"})
	}))

	if err := tx.Begin(Config{}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tx.Success()
	if err := tx.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	if tx.State() != StateSucceeded {
		t.Fatalf("state = %s, want Succeeded", tx.State())
	}
	if tx.Bookmark() != "bm-1" {
		t.Fatalf("bookmark = %q, want %q", tx.Bookmark(), "bm-1")
	}

	select {
	case bm := <-disposed:
		if bm != "bm-1" {
			t.Fatalf("resource handler bookmark = %q, want %q", bm, "bm-1")
		}
	case <-time.After(time.Second):
		t.Fatal("resource handler was never invoked")
	}
}

func TestFailureWinsOverSuccess(t *testing.T) {
	disposed := make(chan struct{}, 1)
	rollbackSeen := make(chan struct{}, 1)

	tx := newTestTransaction(t, func(string) { disposed <- struct{}{} }, beginThenServe(func(fs *fakeServer) {
		tag, _ := fs.recvTag()
		if tag == structhandlers.TagRollback {
			rollbackSeen <- struct{}{}
		}
		_ = fs.sendSuccess(nil)
	}))

	if err := tx.Begin(Config{}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tx.Success()
	tx.Failure()
	if err := tx.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	select {
	case <-rollbackSeen:
	case <-time.After(time.Second):
		t.Fatal("server never observed a ROLLBACK")
	}
	if tx.State() != StateAborted {
		t.Fatalf("state = %s, want Aborted", tx.State())
	}
}

func TestDisposeWithoutSuccessRollsBack(t *testing.T) {
	rollbackSeen := make(chan struct{}, 1)
	tx := newTestTransaction(t, func(string) {}, beginThenServe(func(fs *fakeServer) {
		tag, _ := fs.recvTag()
		if tag == structhandlers.TagRollback {
			rollbackSeen <- struct{}{}
		}
		_ = fs.sendSuccess(nil)
	}))

	if err := tx.Begin(Config{}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	select {
	case <-rollbackSeen:
	case <-time.After(time.Second):
		t.Fatal("expected a ROLLBACK with no prior Success() call")
	}
}

func TestDoubleDisposeInvokesHandlerOnce(t *testing.T) {
	var calls int
	tx := newTestTransaction(t, func(string) { calls++ }, beginThenServe(func(fs *fakeServer) {
		_, _ = fs.recvTag() // ROLLBACK
		_ = fs.sendSuccess(nil)
	}))

	if err := tx.Begin(Config{}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Dispose(); err != nil {
		t.Fatalf("first Dispose: %v", err)
	}
	if err := tx.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
	if calls != 1 {
		t.Fatalf("resource handler invoked %d times, want 1", calls)
	}
}

func TestMarkedToCloseBlocksRun(t *testing.T) {
	tx := newTestTransaction(t, func(string) {}, beginThenServe(nil))
	if err := tx.Begin(Config{}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tx.MarkToClose()

	_, err := tx.Run("RETURN 1", nil)
	if err == nil {
		t.Fatal("expected Run on a MarkedToClose transaction to fail")
	}
	if !strings.HasPrefix(err.Error(), "Cannot run more statements in this transaction") {
		t.Fatalf("error = %q, want prefix %q", err.Error(), "Cannot run more statements in this transaction")
	}
}

func TestMarkedToCloseDisposeSendsNoWireTraffic(t *testing.T) {
	sawAnyRequest := make(chan struct{}, 1)
	called := make(chan struct{}, 1)
	tx := newTestTransaction(t, func(string) { called <- struct{}{} }, beginThenServe(func(fs *fakeServer) {
		// Any further message after BEGIN's reply would mean Dispose
		// sent wire traffic it shouldn't have.
		if _, err := fs.recvTag(); err == nil {
			sawAnyRequest <- struct{}{}
		}
	}))

	if err := tx.Begin(Config{}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tx.MarkToClose()

	if err := tx.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	select {
	case <-called:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("resource handler was not notified")
	}

	select {
	case <-sawAnyRequest:
		t.Fatal("Dispose on a MarkedToClose transaction sent wire traffic")
	case <-time.After(100 * time.Millisecond):
	}
}
