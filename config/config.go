// Package config holds the connection-level options recognized by the
// driver core (spec §6 Configuration). It follows the teacher driver's
// functional-options idiom (SetChunkSize/SetTimeout in bolt_conn.go)
// generalized across every recognized option.
package config

import "time"

// Encryption selects whether the transport wraps the stream in TLS.
type Encryption int

const (
	EncryptionOff Encryption = iota
	EncryptionRequired
)

// TrustStrategy selects the certificate validation predicate used during
// the TLS handshake.
type TrustStrategy int

const (
	TrustAll TrustStrategy = iota
	TrustSystemCAs
	TrustCustomCAs
)

// Auth carries the principal and credentials sent in HELLO/INIT.
type Auth struct {
	Scheme      string
	Principal   string
	Credentials string
	Realm       string
}

// Config is the set of options recognized by the driver core.
type Config struct {
	Encryption            Encryption
	TrustStrategy         TrustStrategy
	CustomCAs             [][]byte
	IPv6Enabled           bool
	ConnectionTimeout     time.Duration
	SocketKeepalive       bool
	DefaultReadBufferSize int
	MaxReadBufferSize     int
	UserAgent             string
	Auth                  Auth
}

// Default returns a Config with the teacher's historical defaults:
// a 10 second connect timeout and 4096-byte default buffers.
func Default() *Config {
	return &Config{
		Encryption:            EncryptionOff,
		TrustStrategy:         TrustSystemCAs,
		IPv6Enabled:           false,
		ConnectionTimeout:     10 * time.Second,
		SocketKeepalive:       true,
		DefaultReadBufferSize: 4096,
		MaxReadBufferSize:     8 * 1024 * 1024,
		UserAgent:             "golang-bolt-driver/2.0",
	}
}

// Option mutates a Config in place.
type Option func(*Config)

// New builds a Config from Default() with the given options applied.
func New(opts ...Option) *Config {
	c := Default()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithEncryption(e Encryption) Option {
	return func(c *Config) { c.Encryption = e }
}

func WithTrustStrategy(strategy TrustStrategy, customCAs ...[]byte) Option {
	return func(c *Config) {
		c.TrustStrategy = strategy
		c.CustomCAs = customCAs
	}
}

func WithIPv6(enabled bool) Option {
	return func(c *Config) { c.IPv6Enabled = enabled }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) { c.ConnectionTimeout = d }
}

func WithKeepalive(enabled bool) Option {
	return func(c *Config) { c.SocketKeepalive = enabled }
}

func WithReadBufferSizes(defaultSize, maxSize int) Option {
	return func(c *Config) {
		c.DefaultReadBufferSize = defaultSize
		c.MaxReadBufferSize = maxSize
	}
}

func WithUserAgent(agent string) Option {
	return func(c *Config) { c.UserAgent = agent }
}

func WithAuth(auth Auth) Option {
	return func(c *Config) { c.Auth = auth }
}
