// Package handshake implements the protocol version dispatcher (spec
// §4.5): the magic preamble + four proposed versions and the server's
// version selection. The HELLO initialization exchange that follows is
// performed by internal/connpool, not by this package.
//
// Grounded in the teacher's driver.go (magicPreamble, supportedVersions,
// noVersionSupported) and conn.go's initialize(), generalized from the
// teacher's single hardcoded version to a small version table.
package handshake

import (
	"encoding/binary"

	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/internal/transport"
)

// MagicPreamble is the four-byte prefix that opens every Bolt connection.
var MagicPreamble = []byte{0x60, 0x60, 0xb0, 0x17}

// SupportedVersions is sent as four proposed 32-bit version numbers,
// highest-preference first. Versions 1 through 3 cover the message set
// this driver implements (BEGIN/COMMIT/ROLLBACK as of version 3); the
// remaining slot is zero, meaning "no further proposal".
var SupportedVersions = []uint32{3, 2, 1, 0}

// NoVersionSupported is what the server sends back when it rejects every
// proposed version.
const NoVersionSupported uint32 = 0

// Negotiate writes the magic preamble and proposed versions, then reads
// back the server's selected version. A selected version of 0 is a fatal
// protocol error (spec §4.5).
func Negotiate(t *transport.Transport) (uint32, error) {
	if _, err := t.WriteStream(MagicPreamble); err != nil {
		return 0, err
	}

	proposal := make([]byte, 16)
	for i, v := range SupportedVersions {
		binary.BigEndian.PutUint32(proposal[i*4:], v)
	}
	if _, err := t.WriteStream(proposal); err != nil {
		return 0, err
	}

	resp := make([]byte, 4)
	if err := readFull(t, resp); err != nil {
		return 0, err
	}
	selected := binary.BigEndian.Uint32(resp)
	if selected == NoVersionSupported {
		return 0, errors.NewProtocol("server did not accept any proposed Bolt version")
	}
	return selected, nil
}

func readFull(t *transport.Transport, buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := t.ReadStream(buf[read:])
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.NewProtocol("connection closed during handshake")
		}
		read += n
	}
	return nil
}
