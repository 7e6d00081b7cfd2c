package output

import (
	"testing"
	"time"

	"rawhttp/client"
	"rawhttp/wire"

	"github.com/stretchr/testify/suite"
)

type FormatterTestSuite struct {
	suite.Suite
}

func TestFormatterTestSuite(t *testing.T) {
	suite.Run(t, new(FormatterTestSuite))
}

func (s *FormatterTestSuite) TestFormatRequest() {
	f := NewFormatter(false, true)

	out := f.FormatRequest(wire.MethodGet, "http://example.com/")
	s.Equal("> GET http://example.com/\n", out)
}

func (s *FormatterTestSuite) TestFormatResponse() {
	headers := wire.NewHeaders(map[string]string{"Content-Type": "application/json"})

	testCases := []struct {
		name     string
		verbose  bool
		res      client.Response
		expected string
	}{
		{
			name: "pretty prints json body",
			res: client.Response{
				StatusCode: 200,
				StatusText: "OK",
				Headers:    headers,
				JSONBody:   `{"id":1}`,
				Duration:   12 * time.Millisecond,
			},
			expected: "< 200 OK (12ms)\n{\n  \"id\": 1\n}\n",
		},
		{
			name:    "verbose includes headers",
			verbose: true,
			res: client.Response{
				StatusCode: 404,
				StatusText: "Not Found",
				Headers:    headers,
				Duration:   3 * time.Millisecond,
			},
			expected: "< 404 Not Found (3ms)\n  Content-Type: application/json\n",
		},
		{
			name: "non-json body passes through",
			res: client.Response{
				StatusCode: 200,
				StatusText: "OK",
				Headers:    wire.NewHeaders(nil),
				JSONBody:   "plain text",
				Duration:   time.Millisecond,
			},
			expected: "< 200 OK (1ms)\nplain text\n",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			f := NewFormatter(tc.verbose, true)
			s.Equal(tc.expected, f.FormatResponse(&tc.res))
		})
	}
}

func (s *FormatterTestSuite) TestFormatBody() {
	s.Equal("not json", formatBody("not json"))
	s.Equal("[\n  1,\n  2\n]", formatBody("[1,2]"))
}
