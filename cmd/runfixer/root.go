// Root command for the runfixer CLI.
package main

import (
	"github.com/spf13/cobra"
)

// version is stamped at release time.
const version = "0.1.0"

// Exit codes: 1 for operator errors (bad input, missing data), 2 for system
// errors (connectivity, verification failures).
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// flagConfigFile is set by the --config flag.
var flagConfigFile string

var rootCmd = &cobra.Command{
	Use:     "runfixer",
	Short:   "runfixer corrects time_played values inflated by cheated runs",
	Version: version,
	Long: `runfixer is a single-operator database maintenance tool. It finds runs
that crossed a checkpoint segment faster than a physically possible reference
time, raises their recorded times to match the reference, and exports a CSV
journal from which every change can be reverted.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "",
		"config file (default: ./config.yaml, then ~/.runfixer/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(revertCmd)
}
