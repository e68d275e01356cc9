// Command bootsim boots the startup core on the host: it runs a board image
// through reset, clock bring-up and the tick engine, and prints the vector
// table, flash image and SysTick reload values a target would get.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"devicecore-go/x/logx"
)

func newRootCmd() *cobra.Command {
	var quiet, debug bool
	root := &cobra.Command{
		Use:           "bootsim",
		Short:         "Simulate Cortex-M startup on the host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logx.SetOutput(cmd.ErrOrStderr())
			switch {
			case debug:
				logx.SetLevel(logx.LevelDebug)
			case quiet:
				logx.SetLevel(logx.LevelWarn)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug messages")

	root.AddCommand(newRunCmd(), newVectorsCmd(), newImageCmd(), newReloadCmd(), newTargetsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logx.Errorf("%v", err)
		os.Exit(1)
	}
}
