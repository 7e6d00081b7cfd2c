package cli

import (
	"os"
	"strings"

	"rawhttp/wire"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post URL",
	Short: "Send a POST request with a JSON body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := bodyFromFlags(cmd)
		if err != nil {
			return err
		}
		return sendAndPrint(cmd, wire.MethodPost, args[0], body)
	},
}

func init() {
	postCmd.Flags().StringP("data", "d", "", "request body, or @FILE to read it from a file")
}

// bodyFromFlags resolves the -d flag. A leading @ names a file, like
// curl.
func bodyFromFlags(cmd *cobra.Command) ([]byte, error) {
	data, _ := cmd.Flags().GetString("data")
	if data == "" {
		return nil, nil
	}

	if path, ok := strings.CutPrefix(data, "@"); ok {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading body file")
		}
		return body, nil
	}

	return []byte(data), nil
}
