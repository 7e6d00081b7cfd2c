package bytesutil

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// ReadUntil reads from r until delim. The output includes delim.
// Hitting EOF before delim yields io.ErrUnexpectedEOF.
func ReadUntil(r *bufio.Reader, delim []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	last := delim[len(delim)-1]

	for {
		b, err := r.ReadBytes(last)
		buf.Write(b)

		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if bytes.HasSuffix(buf.Bytes(), delim) {
			return buf.Bytes(), nil
		}
	}
}

var crlf = []byte("\r\n")

// ErrMissingCRBeforeLF reports a line terminated by a bare LF.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
var ErrMissingCRBeforeLF = errors.New("missing CR before LF")

// ReadCRLFLine reads one CRLF-terminated line and strips the terminator.
func ReadCRLFLine(r *bufio.Reader) ([]byte, error) {
	b, err := ReadUntil(r, []byte{'\n'})
	if err != nil {
		return nil, err
	}

	if !bytes.HasSuffix(b, crlf) {
		return nil, ErrMissingCRBeforeLF
	}

	return b[:len(b)-2], nil
}
