// Package transport defines the byte-stream connection abstraction the
// HTTP client runs on top of, plus the error taxonomy for connection
// establishment.
package transport

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Connect failures, distinguishable with errors.Is.
var (
	ErrDialTimeout   = errors.New("dial timed out")
	ErrConnRefused   = errors.New("connection refused")
	ErrResolveFailed = errors.New("host resolution failed")
	ErrTLSHandshake  = errors.New("tls handshake failed")
)

// Addr identifies one dial target. TLS selects an encrypted session
// negotiated before the connection is handed to the caller.
type Addr struct {
	Host string
	Port uint16
	TLS  bool
}

func (a Addr) String() string {
	host := a.Host
	for _, c := range host {
		if c == ':' {
			// Bare IPv6 literal needs brackets next to a port.
			host = "[" + host + "]"
			break
		}
	}
	return host + ":" + strconv.FormatUint(uint64(a.Port), 10)
}

// Conn is a single byte-stream connection. Reads may return fewer bytes
// than requested; callers accumulate. A Conn is owned by exactly one
// request and is never shared.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	RemoteAddr() Addr

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer opens connections. Implementations bound establishment (and
// the TLS handshake, when requested) by their own timeout and must
// release the socket on every failure path.
type Dialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}
