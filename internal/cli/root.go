// Package cli wires the client into a small set of terminal commands.
package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "rawhttp",
	Short:   "A from-scratch HTTP/1.1 client",
	Version: version,
	Long: `rawhttp sends HTTP/1.1 requests over sockets it opens itself:
URL parsing, request serialization and response framing are all done
in-process rather than delegated to a full HTTP library.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the command named on the command line. Called once from
// main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringArrayP("header", "H", nil, "extra header, as 'Name: value' (repeatable)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print response headers")
	rootCmd.PersistentFlags().Duration("timeout", 0, "connect/read/write timeout (0 uses the defaults)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("debug", false, "log internal steps to stderr")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
}

// colorDisabled reports whether output should skip ANSI styling, either
// because the user said so or because stdout is not a terminal.
func colorDisabled(flagNoColor bool) bool {
	return flagNoColor || !isatty.IsTerminal(os.Stdout.Fd())
}
