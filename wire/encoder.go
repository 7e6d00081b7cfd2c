package wire

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Request is the fully resolved description of one outgoing request,
// ready for serialization.
type Request struct {
	Method Method
	// Target is the origin-form request target (path plus optional query).
	Target string
	// Host fills the mandatory Host header.
	Host      string
	UserAgent string
	// Extra headers, emitted after the mandatory ones in slice order.
	Headers []Field
	// Body is sent verbatim. The encoder does not reject a body on any
	// method; whether one belongs there is caller policy.
	Body []byte
}

// RequestEncoder writes a [Request] onto a stream as HTTP/1.1 bytes.
// The emission order of headers is fixed, so identical input produces
// byte-identical output.
type RequestEncoder struct {
	bw *bufio.Writer
}

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{bw: bufio.NewWriter(w)}
}

func (re *RequestEncoder) Encode(request Request) error {
	if err := re.encodeRequestLine(request); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	if err := re.encodeHeaders(request); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	if _, err := re.bw.Write(request.Body); err != nil {
		return errors.Wrap(err, "writing request body")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request")
	}

	return nil
}

func (re *RequestEncoder) encodeRequestLine(request Request) error {
	target := request.Target
	if target == "" {
		target = "/"
	}

	buf := bytes.NewBuffer(nil)
	buf.WriteString(string(request.Method))
	buf.WriteByte(SP)
	buf.WriteString(target)
	buf.WriteByte(SP)
	buf.Write(Version1_1.Text())

	return re.writeLine(buf.Bytes())
}

func (re *RequestEncoder) encodeHeaders(request Request) error {
	fields := []Field{
		{Name: "Host", Value: request.Host},
	}
	if request.UserAgent != "" {
		fields = append(fields, Field{Name: "User-Agent", Value: request.UserAgent})
	}
	// Connections are not reused, tell the server so.
	fields = append(fields, Field{Name: "Connection", Value: "close"})

	fields = append(fields, request.Headers...)

	if request.Body != nil {
		fields = append(fields,
			Field{Name: "Content-Length", Value: strconv.Itoa(len(request.Body))},
			Field{Name: "Content-Type", Value: "application/json"},
		)
	}

	for _, field := range fields {
		if err := re.writeLine([]byte(field.Name + ": " + field.Value)); err != nil {
			return errors.Wrapf(err, "writing field %q", field.Name)
		}
	}

	// An empty line terminates the header block.
	return re.writeLine(nil)
}

func (re *RequestEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := re.bw.Write(CRLF); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

// EncodeRequest serializes request into a byte slice.
func EncodeRequest(request Request) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := NewRequestEncoder(buf).Encode(request); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
