// Package main provides the runfixer CLI, a maintenance tool that corrects
// time_played values for cheated runs in the checkpoint statistics database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
