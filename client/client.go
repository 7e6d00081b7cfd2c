// Package client orchestrates one HTTP request over a raw transport
// connection: parse the URL, dial, serialize the request, decode the
// response and measure how long the exchange took.
//
// A Client holds no connection state. Every request dials its own
// connection and closes it when done, so a single Client is safe for
// concurrent use from multiple goroutines.
package client

import (
	"context"
	"io"
	"log/slog"
	"time"

	"rawhttp/transport"
	"rawhttp/transport/tcp"
	"rawhttp/uri"
	"rawhttp/wire"
	"rawhttp/wire/status"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultUserAgent    = "rawhttp/0.1"
)

type Options struct {
	// ReadTimeout bounds each blocking read while decoding the
	// response. Zero means [DefaultReadTimeout].
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the serialized request.
	// Zero means [DefaultWriteTimeout].
	WriteTimeout time.Duration
	// UserAgent fills the User-Agent header.
	// Zero means [DefaultUserAgent].
	UserAgent string
}

// Response is the caller-facing result of one request.
type Response struct {
	StatusCode uint16
	// StatusText is the server's reason phrase, or the canonical phrase
	// for the code when the server sent none.
	StatusText string
	// Headers collapses duplicate names to the last occurrence.
	Headers wire.Headers
	// JSONBody is the raw body decoded as UTF-8 text. It is not
	// validated as JSON; the name follows the shape of the payloads
	// this client is built for.
	JSONBody string
	// Duration covers connect, send and receive.
	Duration time.Duration
}

type Client struct {
	dialer transport.Dialer
	logger *slog.Logger
	clock  clock.Clock
	opts   Options
}

// New builds a Client around an explicit dialer. logger and clk may be
// nil, in which case logging is discarded and the wall clock is used.
func New(dialer transport.Dialer, logger *slog.Logger, clk clock.Clock, opts Options) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if clk == nil {
		clk = clock.New()
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Client{dialer: dialer, logger: logger, clock: clk, opts: opts}
}

// Default builds a Client over plain TCP sockets with connectTimeout
// bounding connection establishment.
func Default(connectTimeout time.Duration, logger *slog.Logger) *Client {
	return New(tcp.NewDialer(connectTimeout, nil, logger), logger, clock.New(), Options{})
}

// Request performs one connect-send-receive-close cycle.
//
// A URL that fails to parse yields (nil, nil): no response and no
// error. That reserves the error return for network and protocol
// failures, at the cost of making the two outcomes share a shape.
// Carried over from the behavior this client replicates.
func (c *Client) Request(ctx context.Context, method wire.Method, rawURL string, body []byte) (*Response, error) {
	return c.Do(ctx, method, rawURL, nil, body)
}

// Do is Request with additional header fields appended after the
// standard ones.
func (c *Client) Do(ctx context.Context, method wire.Method, rawURL string, headers []wire.Field, body []byte) (*Response, error) {
	u, err := uri.Parse(rawURL)
	if err != nil {
		c.logger.Debug("url rejected", "url", rawURL, "err", err)
		return nil, nil
	}

	addr := transport.Addr{
		Host: u.Host,
		Port: u.Port,
		TLS:  u.Scheme == uri.SchemeHTTPS,
	}

	start := c.clock.Now()

	conn, err := c.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", addr)
	}
	defer conn.Close()

	if err := c.send(conn, method, &u, headers, body); err != nil {
		return nil, err
	}

	res, err := c.receive(conn)
	if err != nil {
		return nil, err
	}

	res.Duration = c.clock.Since(start)

	c.logger.Debug("request finished",
		"method", method, "url", rawURL,
		"status", res.StatusCode, "duration", res.Duration)

	return res, nil
}

func (c *Client) send(conn transport.Conn, method wire.Method, u *uri.URL, headers []wire.Field, body []byte) error {
	if err := conn.SetWriteDeadline(c.clock.Now().Add(c.opts.WriteTimeout)); err != nil {
		return errors.Wrap(err, "setting write deadline")
	}

	req := wire.Request{
		Method:    method,
		Target:    u.RequestTarget(),
		Host:      u.HostPort(),
		UserAgent: c.opts.UserAgent,
		Headers:   headers,
		Body:      body,
	}

	if err := wire.NewRequestEncoder(conn).Encode(req); err != nil {
		return errors.Wrap(err, "writing request")
	}

	return nil
}

func (c *Client) receive(conn transport.Conn) (*Response, error) {
	if err := conn.SetReadDeadline(c.clock.Now().Add(c.opts.ReadTimeout)); err != nil {
		return nil, errors.Wrap(err, "setting read deadline")
	}

	decoded, err := wire.NewResponseDecoder(conn).Decode()
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}

	text := decoded.ReasonPhrase
	if text == "" {
		text = status.Text(decoded.StatusCode)
	}

	return &Response{
		StatusCode: decoded.StatusCode,
		StatusText: text,
		Headers:    decoded.Headers,
		JSONBody:   string(decoded.Body),
	}, nil
}

// Get is shorthand for Request with [wire.MethodGet] and no body.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Request(ctx, wire.MethodGet, rawURL, nil)
}

// Post is shorthand for Request with [wire.MethodPost].
func (c *Client) Post(ctx context.Context, rawURL string, body []byte) (*Response, error) {
	return c.Request(ctx, wire.MethodPost, rawURL, body)
}

// Delete is shorthand for Request with [wire.MethodDelete] and no body.
func (c *Client) Delete(ctx context.Context, rawURL string) (*Response, error) {
	return c.Request(ctx, wire.MethodDelete, rawURL, nil)
}
