// Package connpool adapts the teacher's own go-commons-pool dependency
// (previously hand-rolled in bolt_pool_factory.go/routing_driver.go as
// buffered-channel pools) into a real pool.ObjectPool, implementing the
// connection contract spec §4.6 asks the core to consume: acquire() and
// release(conn), where the pool - not the core - decides whether a
// returned connection is kept or discarded, and concurrent acquires on
// one pool are serialized by the pool itself.
package connpool

import (
	"context"

	pool "github.com/jolestar/go-commons-pool/v2"

	"github.com/mindstand/golang-bolt-driver/config"
	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/engine"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/handshake"
	"github.com/mindstand/golang-bolt-driver/internal/transport"
	"github.com/mindstand/golang-bolt-driver/structures/messages"
)

// PooledConnection is one opened, authenticated, protocol-versioned
// connection as handed out by Acquire.
type PooledConnection struct {
	Transport       *transport.Transport
	Engine          *engine.Engine
	ProtocolVersion uint32
}

// Pool manages a set of PooledConnections to one host:port, backed by
// go-commons-pool/v2's ObjectPool for borrow/return/eviction.
type Pool struct {
	objPool *pool.ObjectPool
	host    string
	port    string
	cfg     *config.Config
}

// New builds a Pool dialing host:port with cfg, using go-commons-pool's
// default pool config (the teacher never tuned these knobs beyond ad hoc
// channel sizes, so the library defaults are kept rather than re-derived).
func New(ctx context.Context, host, port string, cfg *config.Config) *Pool {
	p := &Pool{host: host, port: port, cfg: cfg}
	factory := pool.NewPooledObjectFactory(p.makeObject, p.destroyObject, p.validateObject, nil, nil)
	p.objPool = pool.NewObjectPoolWithDefaultConfig(ctx, factory)
	return p
}

func (p *Pool) makeObject(ctx context.Context) (interface{}, error) {
	t, err := transport.Connect(ctx, p.host, p.port, p.cfg)
	if err != nil {
		return nil, err
	}
	version, err := handshake.Negotiate(t)
	if err != nil {
		_ = t.Disconnect()
		return nil, err
	}

	e := engine.New(t, p.cfg.DefaultReadBufferSize, p.cfg.MaxReadBufferSize)
	if err := helloExchange(e, p.cfg); err != nil {
		_ = t.Disconnect()
		return nil, err
	}

	return &PooledConnection{Transport: t, Engine: e, ProtocolVersion: version}, nil
}

func helloExchange(e *engine.Engine, cfg *config.Config) error {
	authToken := map[string]interface{}{
		"scheme":    cfg.Auth.Scheme,
		"principal": cfg.Auth.Principal,
	}
	if cfg.Auth.Credentials != "" {
		authToken["credentials"] = cfg.Auth.Credentials
	}
	if cfg.Auth.Realm != "" {
		authToken["realm"] = cfg.Auth.Realm
	}

	var helloErr error
	handler := &engine.ResponseHandler{
		OnSuccess: func(map[string]interface{}) error { return nil },
		OnFailure: func(meta map[string]interface{}) error {
			helloErr = errors.NewDatabase(stringField(meta, "code"), stringField(meta, "message"))
			return nil
		},
	}
	if err := e.Enqueue(messages.NewHelloMessage(cfg.UserAgent, authToken), handler); err != nil {
		return err
	}
	if err := e.Flush(); err != nil {
		return err
	}
	return helloErr
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func (p *Pool) destroyObject(ctx context.Context, object *pool.PooledObject) error {
	conn := object.Object.(*PooledConnection)
	return conn.Transport.Disconnect()
}

func (p *Pool) validateObject(ctx context.Context, object *pool.PooledObject) bool {
	conn := object.Object.(*PooledConnection)
	return conn.Transport.IsOpen() && !conn.Engine.Broken()
}

// Acquire borrows an opened, authenticated connection from the pool,
// serialized by the pool itself as spec §4.6 requires.
func (p *Pool) Acquire(ctx context.Context) (*PooledConnection, error) {
	obj, err := p.objPool.BorrowObject(ctx)
	if err != nil {
		return nil, errors.NewTransport(err, "acquiring connection from pool")
	}
	return obj.(*PooledConnection), nil
}

// Release returns conn to the pool. A broken connection is never
// returned to circulation - it is invalidated (and destroyed) instead.
func (p *Pool) Release(ctx context.Context, conn *PooledConnection) error {
	if conn.Engine.Broken() || !conn.Transport.IsOpen() {
		return p.objPool.InvalidateObject(ctx, conn)
	}
	return p.objPool.ReturnObject(ctx, conn)
}

// Close shuts the pool down, destroying every idle connection.
func (p *Pool) Close(ctx context.Context) {
	p.objPool.Close(ctx)
}
