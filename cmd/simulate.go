package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargestation/infra/logger"
	"github.com/kilianp07/chargestation/qa/scenarios"
)

var verbose bool

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Play a scenario against a fresh station and print the results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return simulate(cmd.OutOrStdout(), args[0], verbose)
	},
}

func init() {
	simulateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log station decisions")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(w io.Writer, path string, verbose bool) error {
	sc, err := scenarios.Load(path)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	var log logger.Logger = logger.NopLogger{}
	if verbose {
		log = logger.New("simulate")
	}
	st, err := scenarios.NewStation(sc, log)
	if err != nil {
		return err
	}
	res, err := scenarios.Run(st, sc)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Passed {
		return fmt.Errorf("scenario %s: expectations not met", sc.Name)
	}
	return nil
}
