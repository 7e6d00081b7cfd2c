package cli

import (
	"context"
	"fmt"

	"rawhttp/internal/config"
	"rawhttp/internal/output"
	"rawhttp/wire"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Execute the requests named in a YAML run file, in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := requestOptionsFrom(cmd)
		if err != nil {
			return err
		}

		file, err := config.Load(args[0])
		if err != nil {
			return err
		}
		if errs := config.Validate(file); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return errors.Errorf("%s: %d validation error(s)", args[0], len(errs))
		}

		c := opts.newClient()
		formatter := output.NewFormatter(opts.verbose, opts.noColor)

		for _, name := range file.Run {
			req := file.Requests[name]

			method, _ := wire.ParseMethod(req.Method)

			headers := mergeHeaders(opts.headers, req.Headers)

			var body []byte
			if req.Body != "" {
				body = []byte(req.Body)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", name)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRequest(method, req.URL))

			res, err := c.Do(context.Background(), method, req.URL, headers, body)
			if err != nil {
				return errors.Wrapf(err, "request %q", name)
			}
			if res == nil {
				return errors.Errorf("request %q: invalid url: %s", name, req.URL)
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatResponse(res))
		}

		return nil
	},
}

// mergeHeaders combines -H flags with a request's own headers. The
// run file wins on conflicts so one flag can set a shared default.
func mergeHeaders(flags []wire.Field, own map[string]string) []wire.Field {
	merged := wire.NewHeaders(nil)
	for _, f := range flags {
		merged.Set(f.Name, f.Value)
	}
	for k, v := range own {
		merged.Set(k, v)
	}
	if merged.Len() == 0 {
		return nil
	}
	return merged.Fields()
}
