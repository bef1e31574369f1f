package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <track.json>",
	Short: "Print the actuator table of a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readTrack(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "track %q id=%s duration=%gs delay=%gs looping=%t hash=%016x\n",
			c.Name, c.ID, c.Duration, c.Delay, c.Looping, c.Hash())

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTYPE\tNODE\tSTART\tEND\tMETHOD\tID")
		for i, a := range c.Actuators() {
			s, e := a.Window()
			fmt.Fprintf(w, "%d\t%s\t%s\t%.3fs\t%.3fs\t%s\t%s\n",
				i, a.Type(), a.Node, s*c.Duration, e*c.Duration, a.Method, a.ID)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
