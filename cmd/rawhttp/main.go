package main

import (
	"fmt"
	"os"

	"rawhttp/internal/cli"
)

// Main is split out from main so the exit path stays testable.
func Main() int {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main())
}
