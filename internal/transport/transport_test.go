package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/mindstand/golang-bolt-driver/config"
)

func pipeTransport(t *testing.T) (*Transport, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	tr := &Transport{conn: client, cfg: config.Default(), timeout: time.Second}
	t.Cleanup(func() { _ = tr.Disconnect(); _ = server.Close() })
	return tr, server
}

func TestReadWriteStreamRoundTrip(t *testing.T) {
	tr, server := pipeTransport(t)

	go func() {
		_, _ = server.Write([]byte("hello"))
	}()

	buf := make([]byte, 5)
	n, err := tr.ReadStream(buf)
	if err != nil {
		t.Fatalf("ReadStream: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("ReadStream got %q, want %q", buf[:n], "hello")
	}

	done := make(chan []byte, 1)
	go func() {
		b := make([]byte, 5)
		n, _ := server.Read(b)
		done <- b[:n]
	}()
	if _, err := tr.WriteStream([]byte("world")); err != nil {
		t.Fatalf("WriteStream: %v", err)
	}
	if got := <-done; string(got) != "world" {
		t.Fatalf("server observed %q, want %q", got, "world")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	tr, _ := pipeTransport(t)
	if err := tr.Disconnect(); err != nil {
		t.Fatalf("first Disconnect: %v", err)
	}
	if err := tr.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
	if tr.IsOpen() {
		t.Fatal("IsOpen() after Disconnect() = true, want false")
	}
}

// TestConnectTimeout exercises spec §8 property 12: with a short
// connection timeout and an address that never responds, Connect raises
// within the configured timeout and never blocks indefinitely.
// 192.0.2.0/24 is the TEST-NET-1 block reserved by RFC 5737 - guaranteed
// never to route anywhere, making it black-hole in any environment.
func TestConnectTimeout(t *testing.T) {
	cfg := config.New(config.WithConnectTimeout(100 * time.Millisecond))

	start := time.Now()
	_, err := Connect(context.Background(), "192.0.2.1", "7687", cfg)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected Connect to a black-holed address to fail, got nil error")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("Connect took %s, expected it to respect the ~100ms timeout", elapsed)
	}
}
