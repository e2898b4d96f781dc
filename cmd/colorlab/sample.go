package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	sampleFlags canvasFlags
	sampleX     float64
	sampleY     float64
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the mixed color at a display coordinate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := sampleFlags.engine(cmd)
		if err != nil {
			return err
		}
		if s, ok := eng.Sample(sampleX, sampleY); ok {
			fmt.Fprintln(cmd.OutOrStdout(), s.Color)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "null")
		}
		return nil
	},
}

func init() {
	sampleFlags.register(sampleCmd)
	sampleCmd.Flags().Float64Var(&sampleX, "x", 0, "x in display px")
	sampleCmd.Flags().Float64Var(&sampleY, "y", 0, "y in display px")
}
