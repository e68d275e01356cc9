package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"devicecore-go/services/config"
	"devicecore-go/targets"
)

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the known targets and boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range targets.All().Names() {
				t, _ := targets.All().FindByName(name)
				fmt.Fprintf(w, "target %-10s flash %#x+%#x ram %#x+%#x irqs %d\n",
					t.Name, t.Flash.Origin, t.Flash.Size, t.RAM.Origin, t.RAM.Size, t.IRQs)
			}
			for _, name := range config.Boards() {
				b, err := config.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "board  %-10s target %s led p0.%02d\n", b.Name, b.Target, b.LED.Pin)
			}
			return nil
		},
	}
}
