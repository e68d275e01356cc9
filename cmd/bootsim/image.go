package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"devicecore-go/errcode"
	"devicecore-go/image"
	"devicecore-go/x/logx"
)

type imageOptions struct {
	target string
	claims []string
	data   []uint
	bss    int
	output string
	verify bool
}

func newImageCmd() *cobra.Command {
	var opts imageOptions
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Write the flash image of a target as Intel HEX",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := make([]uint32, len(opts.data))
			for i, v := range opts.data {
				data[i] = uint32(v)
			}
			s, err := buildSystem(opts.target, opts.claims, data, opts.bss)
			if err != nil {
				return err
			}
			logx.Infof("%s: %v", opts.target, s.Image.Layout)

			var buf bytes.Buffer
			if err := s.Image.WriteHex(&buf); err != nil {
				return err
			}
			if opts.verify {
				if err := verifyHex(buf.Bytes(), s.Image); err != nil {
					return err
				}
				logx.Infof("%s: hex verified", opts.target)
			}
			if opts.output == "" || opts.output == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			return os.WriteFile(opts.output, buf.Bytes(), 0o644)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.target, "target", "t", "nrf52840", "target or chip name")
	f.StringSliceVar(&opts.claims, "claim", nil, "exceptions given their own handler")
	f.UintSliceVar(&opts.data, "data", nil, "initial .data words")
	f.IntVar(&opts.bss, "bss", 0, ".bss size in words")
	f.StringVarP(&opts.output, "output", "o", "-", "output file, - for stdout")
	f.BoolVar(&opts.verify, "verify", false, "read the HEX back and compare it with the image")
	return cmd
}

// verifyHex loads hex into a blank flash region and compares the used part
// with img.
func verifyHex(hex []byte, img *image.Image) error {
	const op = "bootsim.verify"
	flash := image.NewRegion("flash", img.Flash.Origin, uint32(len(img.Flash.Words))*image.WordSize)
	start, err := image.ReadHex(bytes.NewReader(hex), flash)
	if err != nil {
		return err
	}
	if start != img.Vector(1) {
		return errcode.New(errcode.BadImage, op, fmt.Sprintf("start address %#x, reset vector %#x", start, img.Vector(1)))
	}
	end := (img.Layout.DataLoadEnd() - img.Flash.Origin) / image.WordSize
	for i := uint32(0); i < end; i++ {
		if flash.Words[i] != img.Flash.Words[i] {
			return errcode.New(errcode.BadImage, op, fmt.Sprintf("word %#x: %#x, want %#x", img.Flash.Origin+i*image.WordSize, flash.Words[i], img.Flash.Words[i]))
		}
	}
	return nil
}
