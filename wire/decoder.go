package wire

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	bytesutil "rawhttp/util/bytes"
	"rawhttp/wire/transfer"

	"github.com/pkg/errors"
)

// Decode failures, distinguishable with errors.Is. Chunk framing
// failures carry [transfer.ErrChunkFraming].
var (
	ErrMalformedStatusLine = errors.New("malformed status line")
	ErrMalformedHeader     = errors.New("malformed header line")
	ErrTruncatedBody       = errors.New("body shorter than Content-Length")
	ErrNonUTF8Body         = errors.New("body is not valid utf-8")
	ErrReadTimeout         = errors.New("read timed out")
)

// Response is one parsed HTTP/1.1 response. The body has been fully
// read off the wire and validated as UTF-8.
type Response struct {
	Version      Version
	StatusCode   uint16
	ReasonPhrase string
	Headers      Headers
	Body         []byte
}

// ResponseDecoder parses a response off a byte stream: status line,
// header block, then the body under whichever framing the headers
// announce.
type ResponseDecoder struct {
	br *bufio.Reader
}

func NewResponseDecoder(r io.Reader) *ResponseDecoder {
	return &ResponseDecoder{br: bufio.NewReader(r)}
}

func (rd *ResponseDecoder) Decode() (*Response, error) {
	res := &Response{Headers: NewHeaders(nil)}

	if err := rd.decodeStatusLine(res); err != nil {
		return nil, errors.Wrap(err, "decoding status line")
	}

	if err := rd.decodeHeaders(&res.Headers); err != nil {
		return nil, errors.Wrap(err, "decoding headers")
	}

	body, err := rd.decodeBody(res.Headers)
	if err != nil {
		return nil, errors.Wrap(err, "decoding body")
	}

	if !utf8.Valid(body) {
		return nil, ErrNonUTF8Body
	}
	res.Body = body

	return res, nil
}

func (rd *ResponseDecoder) decodeStatusLine(res *Response) error {
	line, err := rd.readLine()
	if err != nil {
		if errors.Is(err, ErrReadTimeout) {
			return err
		}
		return errors.Wrapf(ErrMalformedStatusLine, "reading line: %v", err)
	}

	parsed, err := parseStatusLine(line)
	if err != nil {
		return errors.Wrapf(ErrMalformedStatusLine, "%v", err)
	}

	res.Version = parsed.version
	res.StatusCode = parsed.code
	res.ReasonPhrase = parsed.reason

	return nil
}

type statusLine struct {
	version Version
	code    uint16
	reason  string
}

func parseStatusLine(line []byte) (statusLine, error) {
	parts := bytes.SplitN(line, []byte{SP}, 3)
	if len(parts) < 2 {
		return statusLine{}, errors.New("expected version and status code")
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return statusLine{}, errors.Wrap(err, "parsing version")
	}

	codeStr := string(parts[1])
	code, err := strconv.ParseUint(codeStr, 10, 16)
	if err != nil || len(codeStr) != 3 {
		return statusLine{}, errors.Errorf("status code is malformed: %q", codeStr)
	}

	// The reason phrase is optional.
	var reason string
	if len(parts) == 3 {
		reason = string(parts[2])
	}

	return statusLine{version: ver, code: uint16(code), reason: reason}, nil
}

func (rd *ResponseDecoder) decodeHeaders(headers *Headers) error {
	for {
		line, err := rd.readLine()
		if err != nil {
			if errors.Is(err, ErrReadTimeout) {
				return err
			}
			return errors.Wrapf(ErrMalformedHeader, "reading line: %v", err)
		}

		if len(line) == 0 {
			// End of the header block.
			return nil
		}

		field, err := ParseField(line)
		if err != nil {
			return errors.Wrapf(ErrMalformedHeader, "%v", err)
		}

		// Duplicate names collapse to the last occurrence.
		headers.Set(field.Name, field.Value)
	}
}

// decodeBody picks the framing in order: chunked transfer coding, then
// Content-Length, then read-to-close for responses with neither.
func (rd *ResponseDecoder) decodeBody(headers Headers) ([]byte, error) {
	if isChunked(headers) {
		body, err := io.ReadAll(transfer.NewChunkedReader(rd.br))
		if err != nil {
			return nil, classifyReadErr(errors.Wrap(err, "reading chunked body"))
		}
		return body, nil
	}

	if v, ok := headers.Get("Content-Length"); ok {
		length, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedHeader, "Content-Length %q: %v", v, err)
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(rd.br, body); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return nil, errors.Wrapf(ErrTruncatedBody, "connection closed before %d bytes", length)
			}
			return nil, classifyReadErr(errors.Wrap(err, "reading sized body"))
		}
		return body, nil
	}

	// No framing headers: the body runs until the peer closes.
	body, err := io.ReadAll(rd.br)
	if err != nil {
		return nil, classifyReadErr(errors.Wrap(err, "reading body to close"))
	}
	return body, nil
}

func isChunked(headers Headers) bool {
	v, ok := headers.Get("Transfer-Encoding")
	if !ok {
		return false
	}

	// chunked must be the final coding applied.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.1
	codings := strings.Split(v, ",")
	last := strings.TrimSpace(codings[len(codings)-1])

	return strings.EqualFold(last, string(transfer.CodingChunked))
}

func (rd *ResponseDecoder) readLine() ([]byte, error) {
	line, err := bytesutil.ReadCRLFLine(rd.br)
	if err != nil {
		return nil, classifyReadErr(err)
	}
	return line, nil
}

// classifyReadErr surfaces deadline hits as [ErrReadTimeout] and leaves
// every other failure untouched.
func classifyReadErr(err error) error {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return errors.Wrapf(ErrReadTimeout, "%v", err)
	}
	return err
}
