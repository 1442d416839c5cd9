package bolt

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/url"
	"os"
	"strings"

	"github.com/mindstand/golang-bolt-driver/config"
	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/internal/connpool"
	"github.com/mindstand/golang-bolt-driver/log"
)

func init() {
	if level := os.Getenv("BOLT_DRIVER_LOG"); level != "" {
		log.SetLevel(level)
	}
	sql.Register("neo4j-bolt", sqlDriver{})
}

// Driver opens pooled, authenticated connections to one Neo4j Bolt
// endpoint. Unlike the teacher's boltDriver, which dialed a fresh raw
// socket per Open call, a Driver holds one connpool.Pool for its
// lifetime and Open just wraps it in a session.
type Driver struct {
	pool *connpool.Pool
}

// NewDriver parses connStr (a "bolt://[user[:password]@]host[:port]"
// URI) and returns a Driver backed by a connection pool dialing that
// address. The pool itself dials lazily - no connection is made until
// the first query.
func NewDriver(ctx context.Context, connStr string, opts ...config.Option) (*Driver, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, errors.NewClient("invalid connection string %q: %v", connStr, err)
	}
	if strings.ToLower(u.Scheme) != "bolt" {
		return nil, errors.NewClient("unsupported connection string scheme %q, driver only supports 'bolt'", u.Scheme)
	}

	cfg := config.New(opts...)
	if u.User != nil {
		auth := config.Auth{Scheme: "basic", Principal: u.User.Username()}
		if pwd, ok := u.User.Password(); ok {
			auth.Credentials = pwd
		}
		cfg.Auth = auth
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "7687"
	}

	return &Driver{pool: connpool.New(ctx, host, port, cfg)}, nil
}

// Open returns a new Conn borrowing connections from the Driver's pool.
// Opening is cheap - the underlying connection isn't acquired until the
// first query or transaction.
func (d *Driver) Open() (*Conn, error) {
	return newConn(d.pool), nil
}

// Close shuts the underlying connection pool down, destroying every idle
// connection.
func (d *Driver) Close(ctx context.Context) {
	d.pool.Close(ctx)
}

// sqlDriver adapts Driver to database/sql/driver.Driver, so this package
// can also be used through database/sql under the "neo4j-bolt" name.
// Each Open call builds its own Driver, and so its own connection pool
// with go-commons-pool's default settings; database/sql.DB pools the
// resulting driver.Conn values itself.
type sqlDriver struct{}

func (sqlDriver) Open(name string) (driver.Conn, error) {
	d, err := NewDriver(context.Background(), name)
	if err != nil {
		return nil, err
	}
	return newConn(d.pool), nil
}
