package transfer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ChunkedReaderTestSuite struct {
	suite.Suite
}

func TestChunkedReaderTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedReaderTestSuite))
}

func (s *ChunkedReaderTestSuite) TestRead() {
	input := "" +
		"5\r\n" +
		"ABCDE\r\n" +
		"a\r\n" +
		"FGHIJKLMNO\r\n" +
		"0\r\n" +
		"\r\n"

	cr := NewChunkedReader(strings.NewReader(input))

	// First read stops at the chunk boundary.
	buf := make([]byte, 8)
	n, err := cr.Read(buf)
	s.Require().NoError(err)
	s.Equal("ABCDE", string(buf[:n]))

	n, err = cr.Read(buf)
	s.Require().NoError(err)
	s.Equal("FGHIJKLM", string(buf[:n]))

	n, err = cr.Read(buf)
	s.Require().NoError(err)
	s.Equal("NO", string(buf[:n]))

	n, err = cr.Read(buf)
	s.Require().ErrorIs(err, io.EOF)
	s.Zero(n)

	// EOF is sticky.
	_, err = cr.Read(buf)
	s.ErrorIs(err, io.EOF)
}

func (s *ChunkedReaderTestSuite) TestExtensionsIgnored() {
	input := "" +
		"5;ext=foo\r\n" +
		"ABCDE\r\n" +
		"0\r\n" +
		"\r\n"

	b, err := io.ReadAll(NewChunkedReader(strings.NewReader(input)))
	s.Require().NoError(err)
	s.Equal("ABCDE", string(b))
}

func (s *ChunkedReaderTestSuite) TestTrailersDiscarded() {
	input := "" +
		"2\r\n" +
		"{}\r\n" +
		"0\r\n" +
		"Hello: World\r\n" +
		"\r\n"

	r := strings.NewReader(input)
	b, err := io.ReadAll(NewChunkedReader(r))
	s.Require().NoError(err)
	s.Equal("{}", string(b))

	// Everything including the trailer block has been consumed.
	s.Zero(r.Len())
}

// The concatenated body must not depend on how the sender split it
// into chunks.
func (s *ChunkedReaderTestSuite) TestChunkBoundaryInvariance() {
	body := `{"postId":1,"name":"John Doe","body":"This is a test comment"}`

	splits := [][]int{
		{len(body)},
		{1, len(body) - 1},
		{7, 13, len(body) - 20},
		{31, 31},
	}

	for _, split := range splits {
		buf := bytes.NewBuffer(nil)
		cw := NewChunkedWriter(buf)

		rest := body
		for _, size := range split {
			if size > len(rest) {
				size = len(rest)
			}
			_, err := cw.Write([]byte(rest[:size]))
			s.Require().NoError(err)
			rest = rest[size:]
		}
		if rest != "" {
			_, err := cw.Write([]byte(rest))
			s.Require().NoError(err)
		}
		s.Require().NoError(cw.Close())

		decoded, err := io.ReadAll(NewChunkedReader(buf))
		s.Require().NoError(err)
		s.Equal(body, string(decoded))
	}
}

func (s *ChunkedReaderTestSuite) TestFramingErrors() {
	testcases := []struct {
		desc  string
		input string
	}{
		{desc: "non-hexadecimal size", input: "zz\r\n{}\r\n"},
		{desc: "empty size line", input: "\r\n"},
		{desc: "stream ends mid-chunk", input: "a\r\n{}"},
		{desc: "missing CRLF after data", input: "2\r\n{}XX0\r\n\r\n"},
		{desc: "stream ends before trailers", input: "2\r\n{}\r\n0\r\n"},
		{desc: "no terminal chunk", input: "2\r\n{}\r\n"},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := io.ReadAll(NewChunkedReader(strings.NewReader(tc.input)))
			s.ErrorIs(err, ErrChunkFraming)
		})
	}
}

type ChunkedWriterTestSuite struct {
	suite.Suite
}

func TestChunkedWriterTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedWriterTestSuite))
}

func (s *ChunkedWriterTestSuite) TestWrite() {
	buf := bytes.NewBuffer(nil)
	cw := NewChunkedWriter(buf)

	_, err := cw.Write([]byte("ABCDE"))
	s.Require().NoError(err)

	s.Equal("5\r\nABCDE\r\n", buf.String())
}

func (s *ChunkedWriterTestSuite) TestZeroLengthWriteSkipped() {
	buf := bytes.NewBuffer(nil)
	cw := NewChunkedWriter(buf)

	n, err := cw.Write(nil)
	s.Require().NoError(err)
	s.Zero(n)
	s.Zero(buf.Len())
}

func (s *ChunkedWriterTestSuite) TestClose() {
	buf := bytes.NewBuffer(nil)
	cw := NewChunkedWriter(buf)

	_, err := cw.Write([]byte("{}"))
	s.Require().NoError(err)
	s.Require().NoError(cw.Close())

	s.Equal("2\r\n{}\r\n0\r\n\r\n", buf.String())
}
