// Revert command for the runfixer CLI.
package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ujcly/cheated-runs-fixer/internal/engine"
)

var revertYes bool

var revertCmd = &cobra.Command{
	Use:   "revert <csv_path>",
	Short: "Revert corrections recorded in an exported journal",
	Long: `Revert replays a journal produced by a live fix: every recorded old
value is written back to its row in a single verified transaction. Reverting
the same journal twice is harmless; the second pass rewrites values already
in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(flagConfigFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, cleanup, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		eng := engine.New(st, newStdinPrompter(), engine.Options{})
		rep, err := eng.Revert(ctx, args[0], revertYes)
		if err != nil {
			return err
		}
		if rep.Applied {
			color.Green("✓ Revert complete: %d row(s) restored", len(rep.Records))
		}
		return nil
	},
}

func init() {
	revertCmd.Flags().BoolVar(&revertYes, "yes", false, "revert without asking for confirmation")
}
