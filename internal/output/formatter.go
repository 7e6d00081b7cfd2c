// Package output renders requests and responses for the terminal.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rawhttp/client"
	"rawhttp/wire"
	"rawhttp/wire/status"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"
)

// Formatter turns responses into display text. With Verbose set it
// includes the header block; with NoColor set all ANSI styling is
// stripped.
type Formatter struct {
	Verbose bool
	NoColor bool
}

func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{Verbose: verbose, NoColor: noColor}
}

// FormatRequest renders the request line being sent.
func (f *Formatter) FormatRequest(method wire.Method, url string) string {
	methodColor := color.New(color.FgBlue, color.Bold)
	if f.NoColor {
		methodColor.DisableColor()
	}

	return fmt.Sprintf("> %s %s\n", methodColor.Sprint(method), url)
}

// FormatResponse renders status, optional headers and the body.
func (f *Formatter) FormatResponse(res *client.Response) string {
	var buf strings.Builder

	statusColor := color.New(color.Bold)
	switch {
	case status.IsSuccess(res.StatusCode):
		statusColor.Add(color.FgGreen)
	case status.IsRedirect(res.StatusCode):
		statusColor.Add(color.FgYellow)
	default:
		statusColor.Add(color.FgRed)
	}
	if f.NoColor {
		statusColor.DisableColor()
	}

	fmt.Fprintf(&buf, "< %s (%s)\n",
		statusColor.Sprintf("%d %s", res.StatusCode, res.StatusText),
		res.Duration.Round(time.Millisecond))

	if f.Verbose {
		for _, field := range res.Headers.Fields() {
			fmt.Fprintf(&buf, "  %s: %s\n", field.Name, field.Value)
		}
	}

	if res.JSONBody != "" {
		buf.WriteString(formatBody(res.JSONBody))
		buf.WriteString("\n")
	}

	return buf.String()
}

// formatBody pretty-prints valid JSON and passes everything else
// through untouched.
func formatBody(body string) string {
	if !gjson.Valid(body) {
		return body
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(body), "", "  "); err != nil {
		return body
	}

	return pretty.String()
}
