// Package uri parses absolute http and https URLs into their scheme,
// host, port, path and query components.
//
// Only the subset of RFC 3986 needed for dialing and building an
// HTTP/1.1 request target is implemented. Userinfo, fragments and
// percent-decoding are out of scope.
package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// DefaultPort returns the well-known port for the scheme.
func (s Scheme) DefaultPort() uint16 {
	if s == SchemeHTTPS {
		return 443
	}
	return 80
}

// URL is a parsed absolute URL. Port always carries an effective value:
// the explicit one when present, the scheme default otherwise.
// Query is nil when the input had no '?'.
type URL struct {
	Scheme Scheme
	Host   string
	Port   uint16
	Path   string
	Query  *string
}

// RequestTarget joins path and query into the origin-form target used
// on the request line.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func (u *URL) RequestTarget() string {
	target := u.Path
	if u.Query != nil {
		target += "?" + *u.Query
	}
	return target
}

// HostPort renders the authority for the Host header. The port is
// omitted when it equals the scheme default.
func (u *URL) HostPort() string {
	if u.Port == u.Scheme.DefaultPort() {
		return u.Host
	}
	return u.Host + ":" + strconv.FormatUint(uint64(u.Port), 10)
}

var (
	ErrUnsupportedScheme = errors.New("scheme is not http or https")
	ErrEmptyHost         = errors.New("host is empty")
)

// Parse parses raw into a URL. It fails on any malformed input instead
// of returning a partially populated value; callers rely on that to
// detect an invalid URL.
func Parse(raw string) (URL, error) {
	scheme, rest, err := cutScheme(raw)
	if err != nil {
		return URL{}, errors.Wrap(err, "reading scheme")
	}

	// The authority runs up to the first '/' or '?', whichever comes
	// first. A '?' directly after the authority starts the query of an
	// empty path.
	var authority string
	authority, rest = rest, ""
	if i := strings.IndexAny(authority, "/?"); i >= 0 {
		authority, rest = authority[:i], authority[i:]
	}

	host, port, err := parseAuthority(authority, scheme)
	if err != nil {
		return URL{}, errors.Wrap(err, "parsing authority")
	}

	u := URL{Scheme: scheme, Host: host, Port: port, Path: "/"}

	path, query := splitPathQuery(rest)
	if path != "" {
		u.Path = path
	}
	if query != nil {
		u.Query = query
	}

	return u, nil
}

func cutScheme(raw string) (scheme Scheme, rest string, err error) {
	before, after, found := strings.Cut(raw, "://")
	if !found {
		return "", "", ErrUnsupportedScheme
	}

	switch Scheme(strings.ToLower(before)) {
	case SchemeHTTP:
		scheme = SchemeHTTP
	case SchemeHTTPS:
		scheme = SchemeHTTPS
	default:
		return "", "", ErrUnsupportedScheme
	}

	return scheme, after, nil
}

func parseAuthority(raw string, scheme Scheme) (host string, port uint16, err error) {
	host, portPart := splitHostPort(raw)

	if host == "" {
		return "", 0, ErrEmptyHost
	}

	port = scheme.DefaultPort()
	if portPart != "" {
		n, err := strconv.ParseUint(portPart, 10, 16)
		if err != nil {
			return "", 0, errors.Wrapf(err, "port %q is not a 16-bit uint", portPart)
		}
		port = uint16(n)
	}

	return strings.ToLower(host), port, nil
}

func splitHostPort(raw string) (host, portPart string) {
	if strings.HasPrefix(raw, "[") {
		// IP literal. Keep the brackets out of the host.
		if idx := strings.LastIndexByte(raw, ']'); idx >= 0 {
			host = raw[1:idx]
			portPart = strings.TrimPrefix(raw[idx+1:], ":")
			return host, portPart
		}
		// Missing ']', let the empty-host check reject it below.
		return "", ""
	}

	host = raw
	if idx := strings.LastIndexByte(raw, ':'); idx >= 0 {
		host, portPart = raw[:idx], raw[idx+1:]
		if portPart == "" {
			// "host:" with nothing after the colon.
			return "", ""
		}
	}
	return host, portPart
}

func splitPathQuery(raw string) (path string, query *string) {
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		q := raw[idx+1:]
		return raw[:idx], &q
	}
	return raw, nil
}
