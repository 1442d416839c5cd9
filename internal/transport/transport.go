// Package transport implements the socket transport layer: connect with
// IPv4/IPv6 fallback and a cancellable timeout, an optional TLS wrap
// consulting an injected trust strategy, and plain read/write streams.
// Everything above chunk framing is the chunk and packstream packages'
// job; this package knows nothing about Bolt messages.
//
// Grounded in the teacher's conn.go (net.DialTimeout, deadline-based
// Read/Write, Close), generalized per spec §4.1 to multi-address
// resolution fallback and TLS, neither of which the teacher implemented.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"

	"github.com/mindstand/golang-bolt-driver/config"
	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/log"
)

// certPoolFrom builds a certificate pool from the PEM-encoded CAs
// supplied via config.WithTrustStrategy(TrustCustomCAs, ...). Invalid
// PEM blocks are skipped rather than failing the connect, since a
// partially-bad CA bundle still validates against whichever certs parsed.
func certPoolFrom(pemBlocks [][]byte) *x509.CertPool {
	pool := x509.NewCertPool()
	for _, b := range pemBlocks {
		pool.AppendCertsFromPEM(b)
	}
	return pool
}

// Transport is one socket connection to a Bolt server, wrapped in TLS
// when configured. It is not safe for concurrent reads, nor for
// concurrent writes, but a read and a write may proceed concurrently
// (spec §5 "shared-resource policy").
type Transport struct {
	conn    net.Conn
	cfg     *config.Config
	timeout time.Duration
	closed  bool
}

// Connect resolves host, attempts each resolved address in order
// (IPv6 addresses only when cfg.IPv6Enabled), and returns the first
// Transport to connect successfully. Every per-address failure is
// recorded; if none succeed, a ServiceUnavailableError wrapping all of
// them is returned (spec §4.1, testable property 11).
func Connect(ctx context.Context, host string, port string, cfg *config.Config) (*Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
	defer cancel()

	resolver := &net.Resolver{}
	ips, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, errors.NewServiceUnavailable([]error{err})
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		if ip.IP.To4() == nil && !cfg.IPv6Enabled {
			continue
		}
		addrs = append(addrs, net.JoinHostPort(ip.IP.String(), port))
	}
	if len(addrs) == 0 {
		return nil, errors.NewServiceUnavailable(nil)
	}

	var dialer net.Dialer
	var inner []error
	for _, addr := range addrs {
		rawConn, dialErr := dialer.DialContext(ctx, "tcp", addr)
		if dialErr != nil {
			log.Tracef("connect attempt failed for %s: %v", addr, dialErr)
			inner = append(inner, dialErr)
			continue
		}
		if tcpConn, ok := rawConn.(*net.TCPConn); ok {
			_ = tcpConn.SetNoDelay(true)
			if cfg.SocketKeepalive {
				_ = tcpConn.SetKeepAlive(true)
			}
		}

		t := &Transport{conn: rawConn, cfg: cfg, timeout: cfg.ConnectionTimeout}
		if cfg.Encryption == config.EncryptionRequired {
			if err := t.upgradeTLS(host); err != nil {
				_ = rawConn.Close()
				inner = append(inner, err)
				continue
			}
		}
		return t, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.NewTransport(ctx.Err(), "connect timed out after %s", cfg.ConnectionTimeout)
	}
	return nil, errors.NewServiceUnavailable(inner)
}

// NewFromConn builds a Transport directly over an already-established
// net.Conn, skipping host resolution and dialing. Exported so tests of
// the layers above (engine, bolttx, session) can drive them against an
// in-memory net.Pipe instead of a live socket.
func NewFromConn(conn net.Conn, cfg *config.Config) *Transport {
	return &Transport{conn: conn, cfg: cfg, timeout: cfg.ConnectionTimeout}
}

func (t *Transport) upgradeTLS(serverName string) error {
	tlsCfg := &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: t.cfg.TrustStrategy == config.TrustAll,
	}
	if t.cfg.TrustStrategy == config.TrustCustomCAs {
		tlsCfg.RootCAs = certPoolFrom(t.cfg.CustomCAs)
	}
	tlsConn := tls.Client(t.conn, tlsCfg)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return errors.NewSecurity("TLS handshake failed: %v", err)
	}
	t.conn = tlsConn
	return nil
}

// SetDeadlineTimeout changes the read/write deadline applied to every
// subsequent stream operation (analogous to the teacher's SetTimeout).
func (t *Transport) SetDeadlineTimeout(d time.Duration) {
	t.timeout = d
}

// ReadStream reads into b, applying the configured deadline.
func (t *Transport) ReadStream(b []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return 0, errors.NewTransport(err, "setting read deadline")
	}
	n, err := t.conn.Read(b)
	if err != nil {
		return n, errors.NewTransport(err, "reading from stream")
	}
	if log.Level >= log.TraceLevel {
		log.Tracef("read %d bytes from stream:\n\n%s", n, SprintByteHex(b[:n]))
	}
	return n, nil
}

// WriteStream writes b in full, applying the configured deadline.
func (t *Transport) WriteStream(b []byte) (int, error) {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		return 0, errors.NewTransport(err, "setting write deadline")
	}
	n, err := t.conn.Write(b)
	if err != nil {
		return n, errors.NewTransport(err, "writing to stream")
	}
	if log.Level >= log.TraceLevel {
		log.Tracef("wrote %d of %d bytes to stream:\n\n%s", n, len(b), SprintByteHex(b[:n]))
	}
	return n, nil
}

// Disconnect closes the underlying stream. Idempotent per spec §5 and
// the resolved Open Question in SPEC_FULL.md: both the raw socket and any
// wrapping TLS conn are released unconditionally, with no platform
// branch distinguishing the two.
func (t *Transport) Disconnect() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return errors.NewTransport(err, "closing connection")
	}
	return nil
}

// IsOpen reports whether Disconnect has not yet been called.
func (t *Transport) IsOpen() bool {
	return !t.closed
}
