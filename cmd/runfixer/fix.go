// Fix command for the runfixer CLI.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ujcly/cheated-runs-fixer/internal/engine"
	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

var (
	fixYes        bool
	fixDryRun     bool
	fixJournalDir string
)

var fixCmd = &cobra.Command{
	Use:   "fix [from_cp_id to_cp_id ref_time_seconds]",
	Short: "Find and correct cheated runs between two checkpoints",
	Long: `Fix finds finished runs that crossed the segment between the two
checkpoints faster than the reference time, raises their recorded times to
match it, and exports a CSV journal of every changed row.

With no arguments the parameters are prompted for interactively. All changes
are applied in a single verified transaction after confirmation.`,
	Args: cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("%w: expected no arguments or exactly <from_cp_id> <to_cp_id> <ref_time_seconds>",
				types.ErrValidation)
		}
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

		eng := engine.New(st, newStdinPrompter(), engine.Options{JournalDir: fixJournalDir})

		var params engine.Params
		if len(args) == 3 {
			params, err = engine.ParseParams(args[0], args[1], args[2])
		} else {
			params, err = eng.CollectParams()
		}
		if err != nil {
			return err
		}

		if !fixDryRun {
			granted, privErr := st.HasUpdatePrivilege(ctx)
			if privErr != nil {
				color.Yellow("⚠ Could not verify UPDATE privileges: %v", privErr)
			} else if !granted {
				return fmt.Errorf("%w: user lacks UPDATE privilege on checkpoint_statistics",
					types.ErrValidation)
			}
		}

		rep, err := eng.Fix(ctx, params, engine.FixOptions{DryRun: fixDryRun, Confirm: fixYes})
		if err != nil {
			return err
		}

		switch {
		case rep.Applied:
			color.Green("✓ All changes applied (operation %s)", rep.OperationID)
			printPlayerSummary(rep)
		case rep.Aborted:
			fmt.Println("No changes were made.")
		case fixDryRun && len(rep.Plan) > 0:
			fmt.Println("Dry run complete; no changes were made.")
		}
		return nil
	},
}

func init() {
	fixCmd.Flags().BoolVar(&fixYes, "yes", false, "apply without asking for confirmation")
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "analyze and preview only, write nothing")
	fixCmd.Flags().StringVar(&fixJournalDir, "journal-dir", ".", "directory for exported CSV journals")
}
