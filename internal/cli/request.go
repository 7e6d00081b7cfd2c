package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"rawhttp/client"
	"rawhttp/internal/output"
	"rawhttp/transport/tcp"
	"rawhttp/wire"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// requestOptions collects the persistent flags shared by every
// request-shaped command.
type requestOptions struct {
	headers []wire.Field
	verbose bool
	timeout time.Duration
	noColor bool
	debug   bool
}

func requestOptionsFrom(cmd *cobra.Command) (requestOptions, error) {
	var opts requestOptions

	raw, _ := cmd.Flags().GetStringArray("header")
	headers, err := parseHeaderFlags(raw)
	if err != nil {
		return opts, err
	}
	opts.headers = headers

	opts.verbose, _ = cmd.Flags().GetBool("verbose")
	opts.timeout, _ = cmd.Flags().GetDuration("timeout")
	noColor, _ := cmd.Flags().GetBool("no-color")
	opts.noColor = colorDisabled(noColor)
	opts.debug, _ = cmd.Flags().GetBool("debug")

	return opts, nil
}

// parseHeaderFlags turns repeated -H 'Name: value' flags into fields.
func parseHeaderFlags(raw []string) ([]wire.Field, error) {
	fields := make([]wire.Field, 0, len(raw))
	for _, h := range raw {
		name, value, found := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, errors.Errorf("malformed header flag %q, want 'Name: value'", h)
		}
		fields = append(fields, wire.Field{Name: name, Value: strings.TrimSpace(value)})
	}
	return fields, nil
}

func (o requestOptions) newClient() *client.Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if o.debug {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	dialer := tcp.NewDialer(o.timeout, nil, logger)

	return client.New(dialer, logger, nil, client.Options{
		ReadTimeout:  o.timeout,
		WriteTimeout: o.timeout,
	})
}

// sendAndPrint performs one request and renders both sides of the
// exchange to stdout.
func sendAndPrint(cmd *cobra.Command, method wire.Method, url string, body []byte) error {
	opts, err := requestOptionsFrom(cmd)
	if err != nil {
		return err
	}

	c := opts.newClient()
	formatter := output.NewFormatter(opts.verbose, opts.noColor)

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRequest(method, url))

	res, err := c.Do(context.Background(), method, url, opts.headers, body)
	if err != nil {
		return err
	}
	if res == nil {
		return errors.Errorf("invalid url: %s", url)
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatResponse(res))

	return nil
}
