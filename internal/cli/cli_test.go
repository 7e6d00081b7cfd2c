package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"rawhttp/wire"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/suite"
)

type CLITestSuite struct {
	suite.Suite
}

// Flag values stick to the package-level commands between executions,
// so each test starts from a clean -H slate.
func (s *CLITestSuite) SetupTest() {
	f := rootCmd.PersistentFlags().Lookup("header")
	s.Require().NoError(f.Value.(pflag.SliceValue).Replace(nil))
	f.Changed = false
}

func TestCLITestSuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

// serve starts a local server that answers every accepted connection
// with respond(req) and closes it. It stops when the returned func is
// called.
func (s *CLITestSuite) serve(respond func(req *http.Request) string) (url string, stop func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			req, err := http.ReadRequest(bufio.NewReader(conn))
			if err == nil {
				io.WriteString(conn, respond(req))
			}
			conn.Close()
		}
	}()

	stop = func() {
		ln.Close()
		<-done
	}

	return "http://" + ln.Addr().String(), stop
}

// execute runs the root command with args and returns its combined
// output.
func (s *CLITestSuite) execute(args ...string) (string, error) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return buf.String(), err
}

func (s *CLITestSuite) TestGetCommand() {
	url, stop := s.serve(func(req *http.Request) string {
		s.Equal("GET", req.Method)
		return "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n{}"
	})
	defer stop()

	out, err := s.execute("get", url, "--no-color")
	s.Require().NoError(err)

	s.Contains(out, "> GET "+url)
	s.Contains(out, "< 200 OK")
	s.Contains(out, "{}")
}

func (s *CLITestSuite) TestPostCommandSendsData() {
	url, stop := s.serve(func(req *http.Request) string {
		body, _ := io.ReadAll(req.Body)
		s.Equal("POST", req.Method)
		s.Equal(`{"name":"widget"}`, string(body))
		s.Equal("abc123", req.Header.Get("X-Request-Id"))
		return "HTTP/1.1 201 Created\r\nContent-Length: 0\r\n\r\n"
	})
	defer stop()

	out, err := s.execute("post", url,
		"-d", `{"name":"widget"}`,
		"-H", "X-Request-Id: abc123",
		"--no-color")
	s.Require().NoError(err)

	s.Contains(out, "< 201 Created")
}

func (s *CLITestSuite) TestDeleteCommand() {
	url, stop := s.serve(func(req *http.Request) string {
		s.Equal("DELETE", req.Method)
		return "HTTP/1.1 204 No Content\r\n\r\n"
	})
	defer stop()

	out, err := s.execute("delete", url, "--no-color")
	s.Require().NoError(err)

	s.Contains(out, "< 204 No Content")
}

func (s *CLITestSuite) TestGetCommandInvalidURL() {
	_, err := s.execute("get", "ftp://example.com", "--no-color")
	s.ErrorContains(err, "invalid url")
}

func (s *CLITestSuite) TestRunCommand() {
	var methods []string
	url, stop := s.serve(func(req *http.Request) string {
		methods = append(methods, req.Method)
		return "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n{}"
	})
	defer stop()

	runFile := fmt.Sprintf(`
requests:
  create:
    url: %[1]s/items
    method: POST
    body: '{}'
  list:
    url: %[1]s/items
    method: GET
run:
  - create
  - list
`, url)

	path := filepath.Join(s.T().TempDir(), "run.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(runFile), 0o600))

	out, err := s.execute("run", path, "--no-color")
	s.Require().NoError(err)

	s.Equal([]string{"POST", "GET"}, methods)
	s.Contains(out, "[create]")
	s.Contains(out, "[list]")
}

func (s *CLITestSuite) TestRunCommandRejectsInvalidFile() {
	path := filepath.Join(s.T().TempDir(), "run.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("requests: {}\nrun: []\n"), 0o600))

	out, err := s.execute("run", path, "--no-color")
	s.ErrorContains(err, "validation error")
	s.Contains(out, "at least one request is required")
}

func (s *CLITestSuite) TestBenchCommand() {
	url, stop := s.serve(func(req *http.Request) string {
		return "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n{}"
	})
	defer stop()

	out, err := s.execute("bench", url, "-n", "5", "-c", "2", "--no-color")
	s.Require().NoError(err)

	s.Contains(out, "requests:   5 (0 failed)")
	s.Contains(out, "status 200: 5")
	s.Contains(out, "p99")
}

func (s *CLITestSuite) TestParseHeaderFlags() {
	testCases := []struct {
		name     string
		in       []string
		expected []wire.Field
		wantErr  bool
	}{
		{
			name:     "single header",
			in:       []string{"Accept: application/json"},
			expected: []wire.Field{{Name: "Accept", Value: "application/json"}},
		},
		{
			name: "value containing colons",
			in:   []string{"Authorization: Bearer a:b:c"},
			expected: []wire.Field{
				{Name: "Authorization", Value: "Bearer a:b:c"},
			},
		},
		{
			name:    "missing colon",
			in:      []string{"Accept"},
			wantErr: true,
		},
		{
			name:    "empty name",
			in:      []string{": value"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			fields, err := parseHeaderFlags(tc.in)
			if tc.wantErr {
				s.Error(err)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.expected, fields)
		})
	}
}

func (s *CLITestSuite) TestMergeHeaders() {
	merged := mergeHeaders(
		[]wire.Field{{Name: "X-Env", Value: "dev"}, {Name: "Accept", Value: "*/*"}},
		map[string]string{"x-env": "prod"},
	)

	s.ElementsMatch([]wire.Field{
		{Name: "Accept", Value: "*/*"},
		{Name: "X-Env", Value: "prod"},
	}, merged)
}
