// Package tcp implements [transport.Dialer] over the operating system's
// TCP sockets, with optional TLS against the platform trust store.
package tcp

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"syscall"
	"time"

	"rawhttp/transport"

	"github.com/pkg/errors"
)

const DefaultTimeout = 10 * time.Second

type Dialer struct {
	// Timeout bounds connection establishment including the TLS
	// handshake. Zero means [DefaultTimeout].
	Timeout time.Duration

	// TLSConfig overrides the config used for https targets.
	// Nil means the platform default trust store.
	TLSConfig *tls.Config

	logger *slog.Logger
}

var _ transport.Dialer = (*Dialer)(nil)

func NewDialer(timeout time.Duration, tlsConfig *tls.Config, logger *slog.Logger) *Dialer {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Dialer{Timeout: timeout, TLSConfig: tlsConfig, logger: logger}
}

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	nd := net.Dialer{Timeout: timeout}

	raw, err := nd.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, classifyDialError(err, addr)
	}

	d.logger.Debug("connection established", "addr", addr.String(), "tls", addr.TLS)

	if !addr.TLS {
		return &conn{Conn: raw, remote: addr}, nil
	}

	tlsConn, err := d.handshake(ctx, raw, addr, timeout)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}

	return &conn{Conn: tlsConn, remote: addr}, nil
}

func (d *Dialer) handshake(
	ctx context.Context, raw net.Conn, addr transport.Addr, timeout time.Duration,
) (net.Conn, error) {
	cfg := d.TLSConfig
	if cfg == nil {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg = cfg.Clone()
		cfg.ServerName = addr.Host
	}

	tlsConn := tls.Client(raw, cfg)

	if err := tlsConn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, errors.Wrap(err, "setting handshake deadline")
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		if isTimeout(err) {
			return nil, errors.Wrapf(transport.ErrDialTimeout, "tls handshake with %s: %v", addr, err)
		}
		return nil, errors.Wrapf(transport.ErrTLSHandshake, "tls handshake with %s: %v", addr, err)
	}

	if err := tlsConn.SetDeadline(time.Time{}); err != nil {
		return nil, errors.Wrap(err, "clearing handshake deadline")
	}

	return tlsConn, nil
}

// classifyDialError maps a net dial failure onto the transport error
// taxonomy so callers can tell timeout, refusal and resolution apart.
func classifyDialError(err error, addr transport.Addr) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return errors.Wrapf(transport.ErrResolveFailed, "resolving %q: %v", addr.Host, dnsErr)
	}

	if isTimeout(err) {
		return errors.Wrapf(transport.ErrDialTimeout, "dialing %s: %v", addr, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return errors.Wrapf(transport.ErrConnRefused, "dialing %s: %v", addr, err)
	}

	return errors.Wrapf(err, "dialing %s", addr)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// conn adds the transport-level remote address to a net.Conn.
// The embedded methods cover reads, writes, close and deadlines.
type conn struct {
	net.Conn
	remote transport.Addr
}

var _ transport.Conn = (*conn)(nil)

func (c *conn) RemoteAddr() transport.Addr { return c.remote }
