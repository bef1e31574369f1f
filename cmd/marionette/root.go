package main

import (
	"fmt"
	"os"

	"github.com/phanxgames/marionette"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marionette",
	Short: "Marionette inspects, validates and simulates animation tracks",
	Long: `Marionette works on animation track files (JSON) and scene files (YAML)
without opening a window: validate tracks, print their actuators, run a
headless simulation or serve renderer metrics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := loadConfig(path)
		if err != nil {
			return err
		}
		return cfg.Apply(nil)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
}

// loadConfig returns DefaultConfig when path is empty.
func loadConfig(path string) (*marionette.Config, error) {
	if path == "" {
		return marionette.DefaultConfig(), nil
	}
	return marionette.LoadConfig(path)
}

// readTrack loads and decodes a track file.
func readTrack(path string) (*marionette.AnimationTrackClass, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track: %w", err)
	}
	c, ok := marionette.TrackClassFromJSON(data)
	if !ok {
		return nil, fmt.Errorf("failed to decode track %s", path)
	}
	return c, nil
}
