package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"devicecore-go/startup"
	"devicecore-go/system"
	"devicecore-go/targets"
)

// buildSystem renders a system for target with the named exceptions claimed
// by placeholder handlers.
func buildSystem(target string, claims []string, data []uint32, bss int) (*system.System, error) {
	tg, err := targets.Find(target)
	if err != nil {
		return nil, err
	}
	overrides := map[startup.Exception]startup.Handler{}
	for _, name := range claims {
		e, err := startup.ParseException(name)
		if err != nil {
			return nil, err
		}
		overrides[e] = func(context.Context) {}
	}
	return system.New(system.Config{Target: tg, Overrides: overrides, Data: data, BSSWords: bss})
}

func newVectorsCmd() *cobra.Command {
	var (
		target string
		claims []string
	)
	cmd := &cobra.Command{
		Use:   "vectors",
		Short: "Print the vector table of a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildSystem(target, claims, nil, 0)
			if err != nil {
				return err
			}
			return printVectors(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "nrf52840", "target or chip name")
	cmd.Flags().StringSliceVar(&claims, "claim", nil, "exceptions given their own handler, e.g. HardFault,IRQ6")
	return cmd
}

func printVectors(w io.Writer, s *system.System) error {
	for i := 0; i < s.Vectors.Len(); i++ {
		e := startup.Exception(i)
		var note string
		switch {
		case e == startup.InitialSP:
			note = "initial stack pointer"
		case e.IsReserved():
			note = "reserved"
		case s.Vectors.IsDefault(e):
			note = "default handler"
		default:
			note = "handler"
		}
		if _, err := fmt.Fprintf(w, "%3d  %#08x  %-12s %s\n", i, s.Image.Vector(i), e, note); err != nil {
			return err
		}
	}
	return nil
}
