// Package transfer implements the chunked transfer coding used to frame
// HTTP/1.1 bodies of unknown length.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	bytesutil "rawhttp/util/bytes"

	"github.com/pkg/errors"
)

type Coding string

const CodingChunked Coding = "chunked"

// ErrChunkFraming reports a body whose chunk structure is broken: a
// non-hexadecimal size line, a missing CRLF after chunk data, or a
// stream cut off mid-chunk.
var ErrChunkFraming = errors.New("invalid chunk framing")

// ChunkedReader converts a chunked body into a plain byte stream. It
// reads the terminal zero-size chunk and discards any trailer fields,
// then reports io.EOF.
type ChunkedReader struct {
	br     *bufio.Reader
	remain uint64 // unread data bytes of the current chunk
	open   bool   // a chunk header has been read and its data not fully consumed
	done   bool
}

var _ io.Reader = (*ChunkedReader)(nil)

func NewChunkedReader(r io.Reader) *ChunkedReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &ChunkedReader{br: br}
}

func (cr *ChunkedReader) Read(p []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if !cr.open {
		if err := cr.readChunkHeader(); err != nil {
			return 0, err
		}

		if cr.remain == 0 {
			// Terminal chunk. Trailers follow, then the body ends.
			if err := cr.discardTrailers(); err != nil {
				return 0, err
			}
			cr.done = true
			return 0, io.EOF
		}
	}

	if uint64(len(p)) > cr.remain {
		p = p[:cr.remain]
	}

	n, err := cr.br.Read(p)
	cr.remain -= uint64(n)
	if err != nil {
		if isTimeout(err) {
			return n, errors.Wrap(err, "reading chunk data")
		}
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return n, errors.Wrapf(ErrChunkFraming, "reading chunk data: %v", err)
	}

	if cr.remain == 0 {
		if err := cr.consumeCRLF(); err != nil {
			return n, err
		}
		cr.open = false
	}

	return n, nil
}

func (cr *ChunkedReader) readChunkHeader() error {
	line, err := bytesutil.ReadCRLFLine(cr.br)
	if err != nil {
		if isTimeout(err) {
			return errors.Wrap(err, "reading chunk size line")
		}
		return errors.Wrapf(ErrChunkFraming, "reading chunk size line: %v", err)
	}

	// Chunk extensions after ';' are ignored.
	sizeRaw, _, _ := bytes.Cut(line, []byte{';'})
	sizeRaw = bytes.TrimSpace(sizeRaw)

	size, err := strconv.ParseUint(string(sizeRaw), 16, 64)
	if err != nil {
		return errors.Wrapf(ErrChunkFraming, "chunk size %q is not hexadecimal", sizeRaw)
	}

	cr.remain = size
	cr.open = true

	return nil
}

func (cr *ChunkedReader) consumeCRLF() error {
	var crlf [2]byte
	if _, err := io.ReadFull(cr.br, crlf[:]); err != nil {
		if isTimeout(err) {
			return errors.Wrap(err, "reading chunk delimiter")
		}
		return errors.Wrapf(ErrChunkFraming, "reading chunk delimiter: %v", err)
	}

	if crlf[0] != '\r' || crlf[1] != '\n' {
		return errors.Wrapf(ErrChunkFraming, "CRLF delimiter not found after chunk data")
	}

	return nil
}

// discardTrailers consumes trailer fields after the terminal chunk up
// to and including the empty line. They are dropped, not merged into
// the header map.
func (cr *ChunkedReader) discardTrailers() error {
	for {
		line, err := bytesutil.ReadCRLFLine(cr.br)
		if err != nil {
			return errors.Wrapf(ErrChunkFraming, "reading trailer line: %v", err)
		}

		if len(line) == 0 {
			return nil
		}
	}
}

// ChunkedWriter frames written bytes as one chunk per Write call.
// Close emits the terminal chunk; forgetting it leaves the body
// unterminated on the wire.
type ChunkedWriter struct {
	w io.Writer
}

var _ io.WriteCloser = (*ChunkedWriter)(nil)

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{w: w}
}

func (cw *ChunkedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		// A zero-size chunk means EOF, skip it here.
		return 0, nil
	}

	buf := bytes.NewBuffer(nil)
	buf.WriteString(strconv.FormatUint(uint64(len(p)), 16))
	buf.Write([]byte{'\r', '\n'})
	buf.Write(p)
	buf.Write([]byte{'\r', '\n'})

	if _, err := cw.w.Write(buf.Bytes()); err != nil {
		return 0, errors.Wrap(err, "writing chunk")
	}

	return len(p), nil
}

func (cw *ChunkedWriter) Close() error {
	if _, err := cw.w.Write([]byte("0\r\n\r\n")); err != nil {
		return errors.Wrap(err, "writing terminal chunk")
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
