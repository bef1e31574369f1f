package main

import (
	"fmt"

	"github.com/phanxgames/marionette"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <track.json>...",
	Short: "Decode track files and report advisories",
	Long: `Decodes each track file and reports actuator windows outside the track
and overlapping actuators of the same kind on the same node. Overlaps are
advisory: the track still plays, and the last declared actuator wins.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		return runValidate(cmd, args, strict)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Fail when any advisory is reported")
}

func runValidate(cmd *cobra.Command, paths []string, strict bool) error {
	out := cmd.OutOrStdout()
	advisories := 0
	for _, path := range paths {
		c, err := readTrack(path)
		if err != nil {
			return err
		}
		errs := marionette.ValidationErrors(c.Validate())
		if len(errs) == 0 {
			fmt.Fprintf(out, "%s: ok (%d actuators)\n", path, c.NumActuators())
			continue
		}
		advisories += len(errs)
		for _, e := range errs {
			fmt.Fprintf(out, "%s: %v\n", path, e)
		}
	}
	if strict && advisories > 0 {
		return fmt.Errorf("validate: %d advisories", advisories)
	}
	return nil
}
