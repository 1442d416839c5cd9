/*
Package bolt implements a driver for the Neo4j Bolt protocol.

The driver is compatible with Go's database/sql/driver interface, but also
exposes a more complete Neo4j-specific surface that the sql/driver interface
can't express. It's recommended callers use the Neo4j-specific methods
(QueryNeo, ExecNeo, BeginNeo) where possible, since the sql/driver interface
forces awkward concessions - named parameters have to be passed as a
map[string]interface{}, and the graph-shaped values Bolt can return (nodes,
relationships, paths - see the structures/graph package) have no sql/driver
representation at all.

Internally the driver is layered the way spec §4 of the protocol describes
it: internal/transport dials and optionally TLS-wraps the socket,
internal/bolt/handshake negotiates a protocol version over it,
internal/bolt/chunk frames messages into length-prefixed chunks,
internal/bolt/packstream encodes/decodes the binary value codec, and
internal/bolt/structhandlers maps PackStream structs to and from the
domain types in structures/graph, structures/spatial and
structures/temporal. internal/bolt/engine sits on top of all of that as
the request/response dispatcher; bolttx and session build the transaction
and session lifecycle on top of the engine; internal/connpool pools
authenticated connections with go-commons-pool. Conn, Tx, Rows, Stmt and
Result in this package are the public façade over session/bolttx.

The sql driver is registered under the name "neo4j-bolt".
*/
package bolt
