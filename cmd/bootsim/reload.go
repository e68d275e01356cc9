package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devicecore-go/tick"
	"devicecore-go/x/timex"
)

func newReloadCmd() *cobra.Command {
	var clockHz, rateHz uint32
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Compute the SysTick reload for a core clock and tick rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := tick.Reload(clockHz, rateHz)
			if err != nil {
				return err
			}
			period := time.Duration(timex.PeriodFromHz(rateHz))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\nSYST_RVR=%d period=%v\n", r, r-1, period)
			return err
		},
	}
	cmd.Flags().Uint32Var(&clockHz, "clock", 64_000_000, "core clock in Hz")
	cmd.Flags().Uint32Var(&rateHz, "rate", tick.RateHz, "tick rate in Hz")
	return cmd
}
